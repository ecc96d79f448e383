// Package features turns raw transactions into FeatureRecords. The same
// functions serve training and inference so both paths see identical
// feature values for identical inputs.
package features

import (
	"strings"
	"time"

	"github.com/Veraticus/pfm-classifier/internal/config"
	"github.com/Veraticus/pfm-classifier/internal/model"
)

// timestampLayouts are tried in order against the upper-cased input.
// Zone-qualified forms keep their own offset so the extracted hour is the
// wall-clock hour written in the string. Fractional seconds are accepted
// after any seconds field.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05Z07",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	// basic format
	"20060102T150405Z0700",
	"20060102T150405Z07",
	"20060102T150405",
	"20060102T1504",
	"20060102",
}

var defaultInstant = mustParse(config.DefaultTimestamp)

// ParseTimestamp parses an ISO-8601 string. ok is false when no layout
// matched.
func ParseTimestamp(s string) (t time.Time, ok bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// ResolveTimestamp parses s, silently substituting the default instant
// (config.DefaultTimestamp) when s cannot be parsed.
func ResolveTimestamp(s string) time.Time {
	if t, ok := ParseTimestamp(s); ok {
		return t
	}
	return defaultInstant
}

// DayOfWeek returns the weekday with Monday=0 .. Sunday=6.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Derive builds the FeatureRecord for a single transaction.
func Derive(merchant, description string, amount float64, timestamp string) model.FeatureRecord {
	ts := ResolveTimestamp(timestamp)
	dow := DayOfWeek(ts)

	weekend := 0
	if dow >= 5 {
		weekend = 1
	}

	merchantText := strings.ToLower(merchant)
	return model.FeatureRecord{
		CombinedText: merchantText + " " + strings.ToLower(description),
		MerchantText: merchantText,
		Amount:       amount,
		Hour:         ts.Hour(),
		DayOfWeek:    dow,
		IsWeekend:    weekend,
	}
}

// DeriveTransaction builds the FeatureRecord for a RawTransaction.
func DeriveTransaction(t model.RawTransaction) model.FeatureRecord {
	return Derive(t.Merchant, t.Description, t.Amount, t.Timestamp)
}

// DeriveBatch applies DeriveTransaction to every row, in order.
func DeriveBatch(txns []model.RawTransaction) []model.FeatureRecord {
	out := make([]model.FeatureRecord, len(txns))
	for i, t := range txns {
		out[i] = DeriveTransaction(t)
	}
	return out
}

// FeatureTable derives the feature rows and label column of a labelled dataset.
func FeatureTable(txns []model.RawTransaction) ([]model.FeatureRecord, []string) {
	return DeriveBatch(txns), model.Labels(txns)
}

func mustParse(s string) time.Time {
	t, ok := ParseTimestamp(s)
	if !ok {
		panic("features: default timestamp does not parse: " + s)
	}
	return t
}
