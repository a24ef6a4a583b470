package unit

import (
	"testing"

	"github.com/inodb/genomewarp/internal/genome"
	"github.com/inodb/genomewarp/internal/refdiff"
	"github.com/inodb/genomewarp/internal/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegion() genome.Region {
	return genome.Region{
		Query:  genome.Interval{ReferenceName: "chr1", Start: 0, End: 100},
		Target: genome.Interval{ReferenceName: "chr1t", Start: 1000, End: 1100},
		Strand: genome.Positive,
		Type:   genome.Identical,
	}
}

func TestBuild_NoDiffOnlyUnitWhenNoRefDiffs(t *testing.T) {
	v1 := &variant.Variant{ReferenceName: "chr1", Start: 10, End: 11, ReferenceBases: "A", AlternateBases: []variant.Allele{"G"}}
	v2 := &variant.Variant{ReferenceName: "chr1", Start: 20, End: 21, ReferenceBases: "C", AlternateBases: []variant.Allele{"T"}}

	units, err := Build(nil, []*variant.Variant{v1, v2}, testRegion())
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.True(t, units[0].RefDiff.IsNoDiff())
	assert.ElementsMatch(t, []*variant.Variant{v1, v2}, units[0].Variants)
}

func TestBuild_OneUnitPerRefDiffPlusTrailingNoDiff(t *testing.T) {
	d1, err := refdiff.Create(10, "A", "G")
	require.NoError(t, err)
	d2, err := refdiff.Create(30, "C", "T")
	require.NoError(t, err)

	overlapping1 := &variant.Variant{ReferenceName: "chr1", Start: 10, End: 11, ReferenceBases: "A", AlternateBases: []variant.Allele{"G"}}
	overlapping2 := &variant.Variant{ReferenceName: "chr1", Start: 30, End: 31, ReferenceBases: "C", AlternateBases: []variant.Allele{"T"}}
	untouched := &variant.Variant{ReferenceName: "chr1", Start: 50, End: 51, ReferenceBases: "G", AlternateBases: []variant.Allele{"A"}}

	units, err := Build([]refdiff.RefDiff{d1, d2}, []*variant.Variant{overlapping1, untouched, overlapping2}, testRegion())
	require.NoError(t, err)
	require.Len(t, units, 3)
	assert.Equal(t, d1, units[0].RefDiff)
	assert.Equal(t, []*variant.Variant{overlapping1}, units[0].Variants)
	assert.Equal(t, d2, units[1].RefDiff)
	assert.Equal(t, []*variant.Variant{overlapping2}, units[1].Variants)
	assert.True(t, units[2].RefDiff.IsNoDiff())
	assert.Equal(t, []*variant.Variant{untouched}, units[2].Variants)
}

func TestBuild_NoTrailingUnitWhenEverythingConsumed(t *testing.T) {
	d1, err := refdiff.Create(10, "A", "G")
	require.NoError(t, err)
	v := &variant.Variant{ReferenceName: "chr1", Start: 10, End: 11, ReferenceBases: "A", AlternateBases: []variant.Allele{"G"}}

	units, err := Build([]refdiff.RefDiff{d1}, []*variant.Variant{v}, testRegion())
	require.NoError(t, err)
	require.Len(t, units, 1)
}

func TestBuild_VariantOverlappingTwoRefDiffsIsUnsupported(t *testing.T) {
	d1, err := refdiff.Create(27, "C", "T")
	require.NoError(t, err)
	d2, err := refdiff.Create(29, "T", "A")
	require.NoError(t, err)
	v := &variant.Variant{ReferenceName: "chr1", Start: 27, End: 31, ReferenceBases: "CATG", AlternateBases: []variant.Allele{"C"}}

	_, err = Build([]refdiff.RefDiff{d1, d2}, []*variant.Variant{v}, testRegion())
	require.Error(t, err)
	var unsupported *ErrUnsupported
	assert.ErrorAs(t, err, &unsupported)
}

func TestBuild_DuplicateVariantsRejected(t *testing.T) {
	v := &variant.Variant{ReferenceName: "chr1", Start: 10, End: 11, ReferenceBases: "A", AlternateBases: []variant.Allele{"G"}}
	dup := &variant.Variant{ReferenceName: "chr1", Start: 10, End: 11, ReferenceBases: "A", AlternateBases: []variant.Allele{"G"}}

	_, err := Build(nil, []*variant.Variant{v, dup}, testRegion())
	require.Error(t, err)
	var dupErr *ErrDuplicateVariants
	assert.ErrorAs(t, err, &dupErr)
}
