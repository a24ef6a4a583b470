// Package unit implements UnitBuilder (spec C5) and UnitTransformer (spec
// C6): partitioning a region's RefDiffs and variants into
// TransformationUnits, then emitting target-assembly variants for each
// unit's supported shape.
package unit

import (
	"github.com/inodb/genomewarp/internal/genome"
	"github.com/inodb/genomewarp/internal/refdiff"
	"github.com/inodb/genomewarp/internal/variant"
)

// TransformationUnit pairs one reference difference with the query
// variants that overlap it (or, for the trailing unit, the variants that
// overlap no reference difference at all).
type TransformationUnit struct {
	RefDiff  refdiff.RefDiff
	Variants []*variant.Variant
	Region   genome.Region
}
