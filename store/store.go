package store

import (
	"context"
	"time"

	"github.com/icecave/quarry/query"
)

// DefaultCollection is the name of the collection that query records are
// appended to.
const DefaultCollection = "queries"

// Store is an interface for persisting recognized queries.
type Store interface {
	// Insert persists q as having been observed at time when.
	Insert(ctx context.Context, q query.Query, when time.Time) error
}

// Record is the persisted form of a query.
type Record struct {
	When     time.Time `json:"when"`
	Query    string    `json:"query"`
	Keywords []string  `json:"keywords"`
}

// NewRecord returns the record for q observed at time when.
func NewRecord(q query.Query, when time.Time) Record {
	keywords := q.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	return Record{
		When:     when.UTC(),
		Query:    q.Text,
		Keywords: keywords,
	}
}
