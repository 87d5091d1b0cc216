package models

// Field identifies one declared InvoiceRecord field by its internal name.
type Field string

// Internal field identifiers
const (
	FieldCustomerName         Field = "customer_name"
	FieldIssueDate            Field = "issue_date"
	FieldDueDate              Field = "due_date"
	FieldCustomerCode         Field = "customer_code"
	FieldReferenceMonth       Field = "reference_month"
	FieldConsumptionKWh       Field = "consumption_kwh"
	FieldAmountDue            Field = "amount_due"
	FieldSavings              Field = "savings"
	FieldConsumptionHistory   Field = "consumption_history"
	FieldAccumulatedBalance   Field = "accumulated_balance"
	FieldUnitPriceWithTaxes   Field = "unit_price_with_taxes"
	FieldInjectedActiveEnergy Field = "injected_active_energy"
)

// History item keys as they appear in the model response.
const (
	HistoryMonthLabel       = "mes"
	HistoryConsumptionLabel = "consumo"
)

// Fields lists every declared field in output order.
var Fields = []Field{
	FieldCustomerName,
	FieldIssueDate,
	FieldDueDate,
	FieldCustomerCode,
	FieldReferenceMonth,
	FieldConsumptionKWh,
	FieldAmountDue,
	FieldSavings,
	FieldConsumptionHistory,
	FieldAccumulatedBalance,
	FieldUnitPriceWithTaxes,
	FieldInjectedActiveEnergy,
}

var fieldLabels = map[Field]string{
	FieldCustomerName:         "nome do cliente",
	FieldIssueDate:            "data de emissao",
	FieldDueDate:              "data de vencimento",
	FieldCustomerCode:         "codigo do cliente - uc",
	FieldReferenceMonth:       "mes de referencia",
	FieldConsumptionKWh:       "consumo kwh",
	FieldAmountDue:            "valor a pagar",
	FieldSavings:              "Economia",
	FieldConsumptionHistory:   "historico de consumo",
	FieldAccumulatedBalance:   "saldo acumulado",
	FieldUnitPriceWithTaxes:   "preco unit com tributos",
	FieldInjectedActiveEnergy: "Energia Atv Injetada",
}

var labelFields = func() map[string]Field {
	m := make(map[string]Field, len(fieldLabels))
	for f, l := range fieldLabels {
		m[l] = f
	}
	return m
}()

// Label returns the external label of the field.
func (f Field) Label() string {
	return fieldLabels[f]
}

// IsList reports whether the field holds a sequence instead of a string.
func (f Field) IsList() bool {
	return f == FieldConsumptionHistory
}

// FieldForLabel maps an external label back to its field.
func FieldForLabel(label string) (Field, bool) {
	f, ok := labelFields[label]
	return f, ok
}

// Labels returns the external labels in output order.
func Labels() []string {
	out := make([]string, 0, len(Fields))
	for _, f := range Fields {
		out = append(out, f.Label())
	}
	return out
}
