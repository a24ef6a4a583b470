package unit

import (
	"fmt"
	"reflect"

	"github.com/inodb/genomewarp/internal/genome"
	"github.com/inodb/genomewarp/internal/refdiff"
	"github.com/inodb/genomewarp/internal/variant"
)

// ErrDuplicateVariants is returned when the input variant list contains the
// same variant twice (by pointer identity or full value equality).
type ErrDuplicateVariants struct {
	Index int
}

func (e *ErrDuplicateVariants) Error() string {
	return fmt.Sprintf("unit: duplicate variant at index %d", e.Index)
}

// ErrUnsupported is returned when a variant overlaps two or more distinct
// RefDiffs; the region must be dropped by the caller.
type ErrUnsupported struct {
	Reason string
}

func (e *ErrUnsupported) Error() string {
	return fmt.Sprintf("unit: unsupported: %s", e.Reason)
}

// Build implements UnitBuilder (spec C5): it partitions refDiffs (already
// in query-position order) and variants into TransformationUnits, one per
// RefDiff followed by a trailing NoDiff unit for whatever variants overlap
// none of them.
func Build(refDiffs []refdiff.RefDiff, variants []*variant.Variant, region genome.Region) ([]TransformationUnit, error) {
	if err := checkNoDuplicates(variants); err != nil {
		return nil, err
	}

	consumedBy := make(map[*variant.Variant]int, len(variants))
	var units []TransformationUnit

	for di, d := range refDiffs {
		var matched []*variant.Variant
		for _, v := range variants {
			if !d.Overlaps(v) {
				continue
			}
			if prev, ok := consumedBy[v]; ok {
				return nil, &ErrUnsupported{Reason: fmt.Sprintf(
					"variant at %s:%d overlaps refdiff %d after already being claimed by refdiff %d",
					v.ReferenceName, v.Start, di, prev)}
			}
			consumedBy[v] = di
			matched = append(matched, v)
		}
		units = append(units, TransformationUnit{RefDiff: d, Variants: matched, Region: region})
	}

	var unassigned []*variant.Variant
	for _, v := range variants {
		if _, ok := consumedBy[v]; !ok {
			unassigned = append(unassigned, v)
		}
	}
	if len(unassigned) > 0 {
		units = append(units, TransformationUnit{RefDiff: refdiff.NoDiff, Variants: unassigned, Region: region})
	}

	return units, nil
}

// checkNoDuplicates fails if the same variant (by pointer or by full value
// equality) appears more than once in variants.
func checkNoDuplicates(variants []*variant.Variant) error {
	for i := 0; i < len(variants); i++ {
		for j := 0; j < i; j++ {
			if variants[i] == variants[j] || reflect.DeepEqual(variants[i], variants[j]) {
				return &ErrDuplicateVariants{Index: i}
			}
		}
	}
	return nil
}
