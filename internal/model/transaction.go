// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
)

// RawTransaction is a transaction as produced by the generator or supplied
// by a caller. Label is empty at inference time.
type RawTransaction struct {
	Timestamp   string  `json:"date"`
	Merchant    string  `json:"merchant"`
	Description string  `json:"description"`
	Label       string  `json:"label,omitempty"`
	Amount      float64 `json:"amount"`
}

// Labeled reports whether the transaction carries a category label.
func (t RawTransaction) Labeled() bool {
	return t.Label != ""
}

// Hash returns a stable fingerprint of the transaction fields, used to
// detect identical rows in stored datasets.
func (t RawTransaction) Hash() string {
	data := fmt.Sprintf("%s:%.4f:%s:%s:%s",
		t.Timestamp,
		t.Amount,
		t.Merchant,
		t.Description,
		t.Label)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// Labels returns the label of every transaction, in order.
func Labels(txns []RawTransaction) []string {
	out := make([]string, len(txns))
	for i, t := range txns {
		out[i] = t.Label
	}
	return out
}
