package domain

import (
	"time"

	"github.com/google/uuid"
)

// RawRow - typed row produced by an import parser. ParseError is set when the
// parser could not turn the source record into typed values.
type RawRow struct {
	Line           int     `json:"line"`
	ID             string  `json:"id"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Capacity       int     `json:"capacity"`
	AvailableCount int     `json:"available_count"`
	LotType        LotType `json:"lot_type,omitempty"`
	Address        string  `json:"address,omitempty"`
	ParseError     string  `json:"parse_error,omitempty"`
}

// RowOutcome - validation verdict for one row of a batch
type RowOutcome struct {
	Row      RawRow `json:"row"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// ImportBatch is the immutable summary of one bulk import.
type ImportBatch struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Committed bool
	rows      []RowOutcome
}

// NewImportBatch copies rows so later changes by the caller do not leak in.
func NewImportBatch(id uuid.UUID, createdAt time.Time, rows []RowOutcome, committed bool) ImportBatch {
	own := make([]RowOutcome, len(rows))
	copy(own, rows)
	return ImportBatch{ID: id, CreatedAt: createdAt, Committed: committed, rows: own}
}

// Rows returns a copy of the per-row outcomes in input order.
func (b ImportBatch) Rows() []RowOutcome {
	out := make([]RowOutcome, len(b.rows))
	copy(out, b.rows)
	return out
}

func (b ImportBatch) AcceptedCount() int {
	n := 0
	for _, r := range b.rows {
		if r.Accepted {
			n++
		}
	}
	return n
}

func (b ImportBatch) RejectedCount() int {
	return len(b.rows) - b.AcceptedCount()
}

// Rejected returns only the rejected rows, in input order.
func (b ImportBatch) Rejected() []RowOutcome {
	var out []RowOutcome
	for _, r := range b.rows {
		if !r.Accepted {
			out = append(out, r)
		}
	}
	return out
}
