package model

// Feature column names, in the canonical order.
const (
	ColumnCombinedText = "combined_text"
	ColumnMerchantText = "merchant_text"
	ColumnAmount       = "amount"
	ColumnHour         = "hour"
	ColumnDayOfWeek    = "day_of_week"
	ColumnIsWeekend    = "is_weekend"
)

// FeatureColumns is the fixed column order of a FeatureRecord. Training and
// serving must both see exactly this schema.
var FeatureColumns = []string{
	ColumnCombinedText,
	ColumnMerchantText,
	ColumnAmount,
	ColumnHour,
	ColumnDayOfWeek,
	ColumnIsWeekend,
}

// NumericColumns are the columns fed to the numeric scaler.
var NumericColumns = []string{
	ColumnAmount,
	ColumnHour,
	ColumnDayOfWeek,
	ColumnIsWeekend,
}

// FeatureRecord is the fixed-shape representation of one transaction.
type FeatureRecord struct {
	CombinedText string  `json:"combined_text"`
	MerchantText string  `json:"merchant_text"`
	Amount       float64 `json:"amount"`
	Hour         int     `json:"hour"`
	DayOfWeek    int     `json:"day_of_week"` // Monday=0 .. Sunday=6
	IsWeekend    int     `json:"is_weekend"`
}

// Text returns the value of a text column.
func (f FeatureRecord) Text(column string) (string, bool) {
	switch column {
	case ColumnCombinedText:
		return f.CombinedText, true
	case ColumnMerchantText:
		return f.MerchantText, true
	default:
		return "", false
	}
}

// Numeric returns the value of a numeric column.
func (f FeatureRecord) Numeric(column string) (float64, bool) {
	switch column {
	case ColumnAmount:
		return f.Amount, true
	case ColumnHour:
		return float64(f.Hour), true
	case ColumnDayOfWeek:
		return float64(f.DayOfWeek), true
	case ColumnIsWeekend:
		return float64(f.IsWeekend), true
	default:
		return 0, false
	}
}
