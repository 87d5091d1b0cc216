package report

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/garyjia/fatura-reader/internal/brnum"
	"github.com/garyjia/fatura-reader/internal/models"
	"github.com/shopspring/decimal"
)

// Placeholder is shown for any value missing from the record.
const Placeholder = "—"

const noData = "Sem dados"

var monthYearPattern = regexp.MustCompile(`^([A-Za-zÀ-ÿ]+)[^\d]*(\d{2,4})`)

// Customer holds the customer block of the report
type Customer struct {
	Name         string
	CustomerCode string
}

// HistoryRow is one displayed month of the consumption history
type HistoryRow struct {
	Label              string
	ConsumptionDisplay string
	HasConsumption     bool
}

// Context is everything the report template renders
type Context struct {
	LogoURI   template.URL
	QRCodeURI template.URL

	ReferenceMonth string
	CurrentDate    string
	IssueDate      string
	DueDate        string
	Customer       Customer

	ConsumptionDisplay    string
	InjectedEnergyDisplay string
	UnitPriceDisplay      string
	AmountDueDisplay      string
	SavingsDisplay        string
	BalanceDisplay        string

	History        []HistoryRow
	HistorySummary string
}

// BuildContext maps a record to display values. Numeric text is parsed
// leniently; values that do not parse are shown as written.
func BuildContext(rec *models.InvoiceRecord, now time.Time, assets Assets) Context {
	history, summary := buildHistory(rec.ConsumptionHistory)

	return Context{
		LogoURI:        assets.LogoURI,
		QRCodeURI:      assets.QRCodeURI,
		ReferenceMonth: pick(rec.ReferenceMonth),
		CurrentDate:    now.Format("02/01/2006"),
		IssueDate:      pick(rec.IssueDate),
		DueDate:        pick(rec.DueDate),
		Customer: Customer{
			Name:         pick(rec.CustomerName),
			CustomerCode: pick(rec.CustomerCode),
		},
		ConsumptionDisplay:    numberOr(rec.ConsumptionKWh, " kWh"),
		InjectedEnergyDisplay: numberOr(rec.InjectedActiveEnergy, " kWh"),
		UnitPriceDisplay:      unitPrice(rec.UnitPriceWithTaxes),
		AmountDueDisplay:      currencyOr(rec.AmountDue),
		SavingsDisplay:        currencyOr(rec.Savings),
		BalanceDisplay:        currencyOr(rec.AccumulatedBalance),
		History:               history,
		HistorySummary:        summary,
	}
}

// SplitMonthYear splits labels like "AGO/25" into ("AGO", "2025"). A label
// without a recognizable year is returned whole.
func SplitMonthYear(label string) (month, year string) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Placeholder, ""
	}
	m := monthYearPattern.FindStringSubmatch(label)
	if m == nil {
		return label, ""
	}
	month, year = strings.ToUpper(m[1]), m[2]
	if len(year) == 2 {
		year = "20" + year
	}
	return month, year
}

func buildHistory(items []models.HistoryItem) ([]HistoryRow, string) {
	rows := make([]HistoryRow, 0, len(items))
	sum := decimal.Zero
	count := 0

	for _, item := range items {
		month, year := SplitMonthYear(item.Month)
		row := HistoryRow{Label: month}
		if year != "" {
			row.Label = month + "/" + year
		}

		raw := strings.TrimSpace(item.Consumption)
		if v, ok := brnum.Parse(raw); ok {
			row.ConsumptionDisplay = brnum.FormatGrouped(v, 2) + " kWh"
			if v.IsPositive() {
				row.HasConsumption = true
				sum = sum.Add(v)
				count++
			}
		} else if raw == "" {
			row.ConsumptionDisplay = noData
		} else {
			row.ConsumptionDisplay = raw
		}
		rows = append(rows, row)
	}

	if count == 0 {
		return rows, ""
	}
	mean := sum.Div(decimal.NewFromInt(int64(count)))
	return rows, fmt.Sprintf("%d meses com consumo registrado | Média: %s kWh", count, brnum.FormatGrouped(mean, 2))
}

func pick(value string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return Placeholder
}

func numberOr(value, suffix string) string {
	if v, ok := brnum.Parse(value); ok {
		return brnum.FormatGrouped(v, 2) + suffix
	}
	return pick(value)
}

func currencyOr(value string) string {
	if v, ok := brnum.Parse(value); ok {
		return brnum.Currency(v)
	}
	return pick(value)
}

// unitPrice keeps every digit the invoice prints, with at least two places
func unitPrice(value string) string {
	v, ok := brnum.Parse(value)
	if !ok {
		return pick(value)
	}
	places := -v.Exponent()
	if places < 2 {
		places = 2
	}
	return brnum.FormatGrouped(v, places)
}
