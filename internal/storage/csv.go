package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Veraticus/pfm-classifier/internal/common"
	"github.com/Veraticus/pfm-classifier/internal/model"
)

// CSVHeader is the column layout written by WriteCSV.
var CSVHeader = []string{"date", "merchant", "description", "amount", "label"}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []model.RawTransaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.Timestamp,
			r.Merchant,
			r.Description,
			strconv.FormatFloat(r.Amount, 'f', -1, 64),
			r.Label,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads transactions from CSV with a header line. Columns are
// matched by name, case-insensitively; date, merchant, description and
// amount are required and label is optional.
func ReadCSV(r io.Reader) ([]model.RawTransaction, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, common.InvalidInputf("CSV is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range CSVHeader[:4] {
		if _, ok := index[required]; !ok {
			return nil, common.InvalidInputf("CSV is missing column %q", required)
		}
	}
	labelCol, hasLabel := index["label"]

	var out []model.RawTransaction
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		amount, err := strconv.ParseFloat(strings.TrimSpace(record[index["amount"]]), 64)
		if err != nil {
			return nil, common.InvalidInputf("line %d: invalid amount %q", line, record[index["amount"]])
		}
		txn := model.RawTransaction{
			Timestamp:   strings.TrimSpace(record[index["date"]]),
			Merchant:    strings.TrimSpace(record[index["merchant"]]),
			Description: strings.TrimSpace(record[index["description"]]),
			Amount:      amount,
		}
		if hasLabel {
			txn.Label = strings.TrimSpace(record[labelCol])
		}
		out = append(out, txn)
	}
	return out, nil
}
