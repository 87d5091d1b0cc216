package invoice

import (
	"strings"

	"github.com/garyjia/fatura-reader/internal/models"
)

// PairHistory pairs month labels with consumption values by position,
// aligning both lists at their most recent end. Months left without a value
// get an empty consumption; surplus older values are dropped.
func PairHistory(months, values []string) []models.HistoryItem {
	out := make([]models.HistoryItem, 0, len(months))
	offset := len(values) - len(months)
	for i, month := range months {
		item := models.HistoryItem{Month: month}
		if j := i + offset; j >= 0 && j < len(values) {
			item.Consumption = values[j]
		}
		out = append(out, item)
	}
	return out
}

// repairHistory re-pairs a history whose months and values came back as
// separate items. A history where every item already carries a month is
// returned unchanged.
func repairHistory(items []models.HistoryItem) ([]models.HistoryItem, bool) {
	var months, values []string
	orphanValues := false
	for _, item := range items {
		month := strings.TrimSpace(item.Month)
		value := strings.TrimSpace(item.Consumption)
		if month != "" {
			months = append(months, month)
			if value != "" {
				values = append(values, value)
			}
			continue
		}
		if value != "" {
			values = append(values, value)
			orphanValues = true
		}
	}

	if !orphanValues || len(months) == 0 {
		return items, false
	}
	return PairHistory(months, values), true
}
