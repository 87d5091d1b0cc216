package invoice

import (
	"fmt"
	"strings"

	"github.com/garyjia/fatura-reader/internal/brnum"
	"github.com/garyjia/fatura-reader/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Default split of the injected energy value between the amount to pay and
// the customer's savings.
const (
	DefaultAmountFactor  = "0.7"
	DefaultSavingsFactor = "0.3"
)

// DerivationConfig configures the derivation engine
type DerivationConfig struct {
	AmountFactor  string
	SavingsFactor string
	CodeStrategy  string
}

// DerivationEngine recomputes the fields the model was asked to calculate so
// the stored values never depend on model arithmetic.
type DerivationEngine struct {
	amountFactor  decimal.Decimal
	savingsFactor decimal.Decimal
	codes         CodeNormalizer
	logger        *zap.Logger
}

// NewDerivationEngine creates a derivation engine. Empty factors fall back to
// the defaults.
func NewDerivationEngine(cfg DerivationConfig, logger *zap.Logger) (*DerivationEngine, error) {
	amount, err := parseFactor(cfg.AmountFactor, DefaultAmountFactor)
	if err != nil {
		return nil, fmt.Errorf("amount factor: %w", err)
	}
	savings, err := parseFactor(cfg.SavingsFactor, DefaultSavingsFactor)
	if err != nil {
		return nil, fmt.Errorf("savings factor: %w", err)
	}
	codes, err := NewCodeNormalizer(cfg.CodeStrategy)
	if err != nil {
		return nil, err
	}

	return &DerivationEngine{
		amountFactor:  amount,
		savingsFactor: savings,
		codes:         codes,
		logger:        logger,
	}, nil
}

func parseFactor(value, fallback string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		value = fallback
	}
	return decimal.NewFromString(strings.Replace(strings.TrimSpace(value), ",", ".", 1))
}

// InjectedTotal sums every number found in the injected energy text and
// returns the non-negative total with two decimal places.
func InjectedTotal(lines ...string) (string, bool) {
	var values []decimal.Decimal
	for _, line := range lines {
		values = append(values, brnum.ParseAll(strings.ReplaceAll(line, "−", "-"))...)
	}
	if len(values) == 0 {
		return "", false
	}

	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return brnum.Format(total.Abs().Round(2), 2), true
}

// Derive returns a copy of rec with the derived fields filled in. The input
// record is not modified. Running Derive on its own output changes nothing.
func (e *DerivationEngine) Derive(rec *models.InvoiceRecord) *models.InvoiceRecord {
	out := rec.Clone()

	if code, ok := e.codes.Normalize(out.CustomerCode); ok {
		if code != out.CustomerCode {
			e.logger.Debug("Customer code normalized",
				zap.String("raw", out.CustomerCode),
				zap.String("normalized", code))
		}
		out.CustomerCode = code
	} else {
		if out.CustomerCode != "" {
			e.logger.Warn("Customer code could not be normalized",
				zap.String("raw", out.CustomerCode))
		}
		out.CustomerCode = ""
	}

	normalizeNumbers(out)

	if total, ok := InjectedTotal(out.InjectedActiveEnergy); ok {
		out.InjectedActiveEnergy = total
	}

	if history, repaired := repairHistory(out.ConsumptionHistory); repaired {
		e.logger.Debug("Consumption history re-paired", zap.Int("items", len(history)))
		out.ConsumptionHistory = history
	}

	energy, okEnergy := brnum.Parse(out.InjectedActiveEnergy)
	price, okPrice := brnum.Parse(out.UnitPriceWithTaxes)
	if !okEnergy || !okPrice {
		out.Savings = ""
		return out
	}

	base := energy.Mul(price)
	out.AmountDue = brnum.Format(base.Mul(e.amountFactor).Round(2), 2)
	out.Savings = brnum.Format(base.Mul(e.savingsFactor).Round(2), 2)

	return out
}

// normalizeNumbers rewrites the numeric fields the engine does not compute
// with a comma separator. Currency keeps two places; measurements and the
// unit price keep the places they were given. Text that holds no number is
// left alone.
func normalizeNumbers(rec *models.InvoiceRecord) {
	rec.ConsumptionKWh = reformat(rec.ConsumptionKWh, brnum.FormatExact)
	rec.UnitPriceWithTaxes = reformat(rec.UnitPriceWithTaxes, brnum.FormatExact)
	rec.AccumulatedBalance = reformat(rec.AccumulatedBalance, currency)
	rec.AmountDue = reformat(rec.AmountDue, currency)
	for i := range rec.ConsumptionHistory {
		item := &rec.ConsumptionHistory[i]
		item.Consumption = reformat(item.Consumption, brnum.FormatExact)
	}
}

func reformat(value string, format func(decimal.Decimal) string) string {
	d, ok := brnum.Parse(value)
	if !ok {
		return value
	}
	return format(d)
}

func currency(d decimal.Decimal) string {
	return brnum.Format(d.Round(2), 2)
}
