package features

import (
	"testing"

	"github.com/Veraticus/pfm-classifier/internal/config"
	"github.com/Veraticus/pfm-classifier/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive_EndToEndExample(t *testing.T) {
	got := Derive("Tesco", "groceries", 43.0, "2025-08-24T09:00:00")

	assert.Equal(t, model.FeatureRecord{
		CombinedText: "tesco groceries",
		MerchantText: "tesco",
		Amount:       43.0,
		Hour:         9,
		DayOfWeek:    6,
		IsWeekend:    1,
	}, got)
}

func TestDerive_Lowercases(t *testing.T) {
	got := Derive("HSBC", "PAYROLL BACS CREDIT", 1350, "2025-08-18T08:00:00")

	assert.Equal(t, "hsbc payroll bacs credit", got.CombinedText)
	assert.Equal(t, "hsbc", got.MerchantText)
	assert.Equal(t, 0, got.DayOfWeek) // Monday
	assert.Equal(t, 0, got.IsWeekend)
}

func TestDerive_TimestampFallback(t *testing.T) {
	want := Derive("Uber", "ride home", -12, config.DefaultTimestamp)

	for _, bad := range []string{"", "not a date", "2025-13-45T99:00:00", "yesterday"} {
		got := Derive("Uber", "ride home", -12, bad)
		assert.Equal(t, want.Hour, got.Hour, bad)
		assert.Equal(t, want.DayOfWeek, got.DayOfWeek, bad)
		assert.Equal(t, want.IsWeekend, got.IsWeekend, bad)
	}
}

func TestParseTimestamp_Layouts(t *testing.T) {
	tests := []struct {
		in       string
		hour     int
		weekday  int
		parsable bool
	}{
		{in: "2025-08-16T21:00:00", hour: 21, weekday: 5, parsable: true},
		{in: "2025-08-16 21:00:00", hour: 21, weekday: 5, parsable: true},
		{in: "2025-08-16T21:00", hour: 21, weekday: 5, parsable: true},
		{in: "2025-08-16T21:00:00.123456", hour: 21, weekday: 5, parsable: true},
		{in: "2025-08-16T21:00:00Z", hour: 21, weekday: 5, parsable: true},
		{in: "2025-08-16T23:30:00+02:00", hour: 23, weekday: 5, parsable: true},
		{in: "2025-08-16", hour: 0, weekday: 5, parsable: true},
		{in: "  2025-08-17T01:00:00  ", hour: 1, weekday: 6, parsable: true},
		{in: "2025-08-20T15:00:00+0100", hour: 15, weekday: 2, parsable: true},
		{in: "2025-08-20T15:00:00+01", hour: 15, weekday: 2, parsable: true},
		{in: "2025-08-20T15:00:00.5-0530", hour: 15, weekday: 2, parsable: true},
		{in: "2025-08-20 15:00:00+01:00", hour: 15, weekday: 2, parsable: true},
		{in: "2025-08-20t15:00:00", hour: 15, weekday: 2, parsable: true},
		{in: "2025-08-20T15:00:00z", hour: 15, weekday: 2, parsable: true},
		{in: "20250820T150000", hour: 15, weekday: 2, parsable: true},
		{in: "20250820T150000+0100", hour: 15, weekday: 2, parsable: true},
		{in: "20250820T150000Z", hour: 15, weekday: 2, parsable: true},
		{in: "20250820", hour: 0, weekday: 2, parsable: true},
		{in: "16/08/2025", parsable: false},
		{in: "yesterday", parsable: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ts, ok := ParseTimestamp(tt.in)
			require.Equal(t, tt.parsable, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.hour, ts.Hour())
			assert.Equal(t, tt.weekday, DayOfWeek(ts))
		})
	}
}

func TestDerive_OffsetSpellingsAgree(t *testing.T) {
	want := Derive("x", "y", 1, "2025-08-20T15:00:00+01:00")
	for _, ts := range []string{"2025-08-20T15:00:00+0100", "2025-08-20T15:00:00+01", "20250820T150000+0100"} {
		got := Derive("x", "y", 1, ts)
		assert.Equal(t, want.Hour, got.Hour, ts)
		assert.Equal(t, want.DayOfWeek, got.DayOfWeek, ts)
		assert.Equal(t, want.IsWeekend, got.IsWeekend, ts)
	}
	assert.Equal(t, 15, want.Hour)
}

func TestDayOfWeek_MondayIsZero(t *testing.T) {
	days := []string{
		"2025-08-18", "2025-08-19", "2025-08-20", "2025-08-21",
		"2025-08-22", "2025-08-23", "2025-08-24",
	}
	for want, d := range days {
		ts, ok := ParseTimestamp(d)
		require.True(t, ok)
		assert.Equal(t, want, DayOfWeek(ts), d)
	}
}

func TestDeriveBatch_MatchesSingleRecordPath(t *testing.T) {
	txns := []model.RawTransaction{
		{Merchant: "Tesco", Description: "groceries", Amount: 43, Timestamp: "2025-08-24T09:00:00"},
		{Merchant: "Caffè Nero", Description: "Morning Latte", Amount: -3.2, Timestamp: "2025-08-19T08:00:00"},
		{Merchant: "STREAMIO", Description: "monthly subscription", Amount: 8.99, Timestamp: "garbage"},
		{Merchant: "", Description: "", Amount: 0, Timestamp: ""},
	}

	batch := DeriveBatch(txns)
	require.Len(t, batch, len(txns))

	for i, txn := range txns {
		single := Derive(txn.Merchant, txn.Description, txn.Amount, txn.Timestamp)
		assert.Equal(t, single, batch[i], "row %d", i)
	}
}

func TestFeatureTable(t *testing.T) {
	txns := []model.RawTransaction{
		{Merchant: "Uber", Description: "ride home", Amount: -9, Timestamp: "2025-08-15T23:00:00", Label: "Transport"},
		{Merchant: "Payroll", Description: "wage", Amount: 1500, Timestamp: "2025-08-20T10:00:00", Label: "Income"},
	}

	rows, labels := FeatureTable(txns)
	assert.Len(t, rows, 2)
	assert.Equal(t, []string{"Transport", "Income"}, labels)
}
