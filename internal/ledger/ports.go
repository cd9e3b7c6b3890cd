// Package ledger defines the transaction store and its backends.
package ledger

import "context"

// Ports for ledger backends.
type (
	// Store is the persisted record of every saved transaction.
	Store interface {
		// Initialize prepares the backing store (headers, tables, schema) and
		// is safe to call more than once.
		Initialize(ctx context.Context) (*Info, error)

		// Append adds rows in the order given.
		Append(ctx context.Context, rows []Row) (*AppendResult, error)

		// Query returns rows matching the filter in append order.
		Query(ctx context.Context, f Filter) ([]Row, error)
	}
)

// Info describes an initialized ledger.
type Info struct {
	Backend  string `json:"backend"`
	Title    string `json:"title,omitempty"`
	Location string `json:"location"`
	Created  bool   `json:"created"`
}

// AppendResult reports what Append wrote.
type AppendResult struct {
	Appended int    `json:"appended"`
	Range    string `json:"range,omitempty"`
}
