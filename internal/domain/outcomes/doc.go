// Package outcomes holds the entities of outcome-based assessment: the reference
// data the engine reads (plans, outcomes, sections, enrollments), the weight
// structure authored by curriculum admins, the raw score ledger, and the derived
// achievement rows the engine owns.
//
// rollup.go contains the pure weighted-aggregation math shared by the course and
// program level rollups. It performs no I/O.
package outcomes
