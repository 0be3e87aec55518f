package outcomes

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Term is one weighted input of a rollup: a scored component feeding a course
// outcome, or a course outcome achievement feeding a program outcome.
// Present=false excludes the term from the weight base (not yet graded or
// insufficient data below it).
type Term struct {
	SourceID uuid.UUID
	Weight   float64
	Scaled   float64
	Present  bool
}

// Contribution is the share a present term added to the rollup value.
type Contribution struct {
	SourceID uuid.UUID `json:"source_id"`
	Weight   float64   `json:"weight"`
	Scaled   float64   `json:"scaled"`
	Value    float64   `json:"value"`
}

type Rollup struct {
	Value         float64        `json:"value"`
	Computable    bool           `json:"computable"`
	WeightBase    float64        `json:"weight_base"`
	Contributions []Contribution `json:"contributions,omitempty"`
}

// Aggregate normalizes by the weight actually present: the value is
// sum(scaled_i * w_i) / W with W = sum(w_i) over present terms, clamped to
// [0,100]. W == 0 yields a non-computable rollup with value 0.
func Aggregate(terms []Term) Rollup {
	var base float64
	for _, t := range terms {
		if t.Present && t.Weight > 0 {
			base += t.Weight
		}
	}
	if base <= 0 {
		return Rollup{}
	}

	out := Rollup{Computable: true, WeightBase: base}
	var sum float64
	for _, t := range terms {
		if !t.Present || t.Weight <= 0 {
			continue
		}
		v := t.Scaled * t.Weight / base
		sum += v
		out.Contributions = append(out.Contributions, Contribution{
			SourceID: t.SourceID,
			Weight:   t.Weight,
			Scaled:   t.Scaled,
			Value:    v,
		})
	}
	out.Value = Clamp(sum, 0, 100)
	return out
}

// ScaleScore maps a raw score onto 0..100 using the component maximum. Raw
// values outside [0,max] are clamped and reported.
func ScaleScore(raw, max float64) (scaled float64, clamped bool) {
	if max <= 0 || math.IsNaN(raw) {
		return 0, true
	}
	c := Clamp(raw, 0, max)
	return c / max * 100, c != raw
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Passed applies the inclusive threshold boundary.
func Passed(value, threshold float64) bool {
	return value >= threshold
}

// InputHash fingerprints the inputs a rollup was computed from. Term order
// does not matter.
func InputHash(terms []Term, threshold float64) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		parts = append(parts, fmt.Sprintf("%s|%t|%.9g|%.9g", t.SourceID, t.Present, t.Weight, t.Scaled))
	}
	sort.Strings(parts)
	h := sha256.New()
	h.Write([]byte(strings.Join(parts, ";")))
	fmt.Fprintf(h, "#%.9g", threshold)
	return hex.EncodeToString(h.Sum(nil))[:32]
}
