// Package aggregates runs achievement writes inside one transaction.
//
// ExecuteWrite owns the transaction boundary, the operation timing hooks and
// the mapping of store errors onto aggregate error codes. Callers compose the
// table repos from internal/data/repos inside the callback.
package aggregates
