package aggregates

// WriteTxOwnership states who opens the transaction around an aggregate write.
type WriteTxOwnership string

const (
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
	WriteTxOwnedByCaller    WriteTxOwnership = "caller_owned"
)

// ReadPolicy states which reads an aggregate performs inside its writes.
type ReadPolicy string

const (
	// ReadPolicyInvariantScoped limits reads to those a write decision needs.
	ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"
)

// Contract documents the transaction and read policy of one aggregate.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	Notes            string
}

type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}
