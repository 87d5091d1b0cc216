package models

import (
	"bytes"
	"encoding/json"
)

// InvoiceRecord is the canonical structured representation of one processed
// electricity invoice. JSON tags carry the human-readable labels used by the
// model response and by every serialized output.
type InvoiceRecord struct {
	CustomerName         string        `json:"nome do cliente"`
	IssueDate            string        `json:"data de emissao"`
	DueDate              string        `json:"data de vencimento"`
	CustomerCode         string        `json:"codigo do cliente - uc"` // 10/########-#
	ReferenceMonth       string        `json:"mes de referencia"`
	ConsumptionKWh       string        `json:"consumo kwh"`
	AmountDue            string        `json:"valor a pagar"`
	Savings              string        `json:"Economia"`
	ConsumptionHistory   []HistoryItem `json:"historico de consumo"`
	AccumulatedBalance   string        `json:"saldo acumulado"`
	UnitPriceWithTaxes   string        `json:"preco unit com tributos"`
	InjectedActiveEnergy string        `json:"Energia Atv Injetada"`
}

// HistoryItem is one month of the consumption history table.
type HistoryItem struct {
	Month       string `json:"mes"`
	Consumption string `json:"consumo"`
}

// NewInvoiceRecord returns a record with every field at its declared default.
func NewInvoiceRecord() *InvoiceRecord {
	return &InvoiceRecord{ConsumptionHistory: []HistoryItem{}}
}

// Clone returns a deep copy so derivations never alias the caller's history slice.
func (r *InvoiceRecord) Clone() *InvoiceRecord {
	out := *r
	out.ConsumptionHistory = make([]HistoryItem, len(r.ConsumptionHistory))
	copy(out.ConsumptionHistory, r.ConsumptionHistory)
	return &out
}

// MarshalJSON keeps the history a JSON array even on a zero-value record.
// Names such as "JOSÉ & FILHOS" are written as is; the calling encoder
// decides whether to escape HTML.
func (r InvoiceRecord) MarshalJSON() ([]byte, error) {
	type plain InvoiceRecord
	if r.ConsumptionHistory == nil {
		r.ConsumptionHistory = []HistoryItem{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(plain(r)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Get returns the string value of a scalar field. History is not a scalar and
// yields "".
func (r *InvoiceRecord) Get(f Field) string {
	switch f {
	case FieldCustomerName:
		return r.CustomerName
	case FieldIssueDate:
		return r.IssueDate
	case FieldDueDate:
		return r.DueDate
	case FieldCustomerCode:
		return r.CustomerCode
	case FieldReferenceMonth:
		return r.ReferenceMonth
	case FieldConsumptionKWh:
		return r.ConsumptionKWh
	case FieldAmountDue:
		return r.AmountDue
	case FieldSavings:
		return r.Savings
	case FieldAccumulatedBalance:
		return r.AccumulatedBalance
	case FieldUnitPriceWithTaxes:
		return r.UnitPriceWithTaxes
	case FieldInjectedActiveEnergy:
		return r.InjectedActiveEnergy
	}
	return ""
}

// Set assigns a scalar field. Unknown fields and the history field are ignored.
func (r *InvoiceRecord) Set(f Field, value string) {
	switch f {
	case FieldCustomerName:
		r.CustomerName = value
	case FieldIssueDate:
		r.IssueDate = value
	case FieldDueDate:
		r.DueDate = value
	case FieldCustomerCode:
		r.CustomerCode = value
	case FieldReferenceMonth:
		r.ReferenceMonth = value
	case FieldConsumptionKWh:
		r.ConsumptionKWh = value
	case FieldAmountDue:
		r.AmountDue = value
	case FieldSavings:
		r.Savings = value
	case FieldAccumulatedBalance:
		r.AccumulatedBalance = value
	case FieldUnitPriceWithTaxes:
		r.UnitPriceWithTaxes = value
	case FieldInjectedActiveEnergy:
		r.InjectedActiveEnergy = value
	}
}
