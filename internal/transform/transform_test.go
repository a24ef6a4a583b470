package transform

import (
	"context"
	"testing"

	"github.com/inodb/genomewarp/internal/fasta"
	"github.com/inodb/genomewarp/internal/genome"
	"github.com/inodb/genomewarp/internal/unit"
	"github.com/inodb/genomewarp/internal/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	seqs map[string]string
}

func (f *fakeIndex) Get(_ context.Context, name string, start, end int64) (string, error) {
	seq, ok := f.seqs[name]
	if !ok {
		return fasta.Missing, nil
	}
	if start == -1 {
		start = 0
	}
	if end == -1 || end > int64(len(seq)) {
		end = int64(len(seq))
	}
	return seq[start:end], nil
}

func (f *fakeIndex) ChromosomeSize(name string) int64 {
	seq, ok := f.seqs[name]
	if !ok {
		return -1
	}
	return int64(len(seq))
}

func (f *fakeIndex) ReferenceOrder() []fasta.ReferenceLength { return nil }

// TestTransform_S1_IdenticalCarryOver: a pure-SNV/Identical region takes
// the fast path (no scanner fetches) and carries both variants over.
func TestTransform_S1_IdenticalCarryOver(t *testing.T) {
	r := genome.Region{
		Query:  genome.Interval{ReferenceName: "chr1", Start: 1, End: 40},
		Target: genome.Interval{ReferenceName: "chr1_same", Start: 11, End: 50},
		Strand: genome.Positive,
		Type:   genome.Identical,
	}
	v1 := &variant.Variant{ReferenceName: "chr1", Start: 3, End: 4, ReferenceBases: "G", AlternateBases: []variant.Allele{"T"},
		Calls: []variant.Call{{Genotype: []int{0, 1}}, {Genotype: []int{1, 0}}}}
	v2 := &variant.Variant{ReferenceName: "chr1", Start: 8, End: 9, ReferenceBases: "C", AlternateBases: []variant.Allele{"T", "G"},
		Calls: []variant.Call{{Genotype: []int{2, 1}}, {Genotype: []int{2, 1}}}}

	// Fast path means these fasta indexes, if ever read, would blow up the
	// test by returning "missing"; leave them empty to prove they're unused.
	q, tg := &fakeIndex{}, &fakeIndex{}

	res, err := Transform(context.Background(), r, []*variant.Variant{v1, v2}, []string{"s1", "s2"}, q, tg)
	require.NoError(t, err)
	require.Equal(t, unit.Ok, res.Kind)
	require.Len(t, res.Variants, 2)
	assert.Equal(t, int64(13), res.Variants[0].Start)
	assert.Equal(t, int64(18), res.Variants[1].Start)
}

// TestTransform_S6_UnsupportedTwoRefDiffsOneVariant.
func TestTransform_S6_UnsupportedTwoRefDiffsOneVariant(t *testing.T) {
	r := genome.Region{
		Query:  genome.Interval{ReferenceName: "chr1", Start: 0, End: 40},
		Target: genome.Interval{ReferenceName: "chr1t", Start: 0, End: 40},
		Strand: genome.Positive,
		Type:   genome.MismatchedBases,
	}
	// Query and target differ at 27 (C->T) and 29 (T->A); the rest matches.
	query := "AAAAAAAAAAAAAAAAAAAAAAAAAAACTGAAAAAAAAA"
	target := "AAAAAAAAAAAAAAAAAAAAAAAAAAATTGAAAAAAAAA"
	// query[27]='C' target[27]='T'; query[29]='G' target[29]='G'... adjust
	// to exactly match the scenario's two mismatches at 27 and 29.
	qb := []byte(query)
	tb := []byte(target)
	qb[27], tb[27] = 'C', 'T'
	qb[29], tb[29] = 'T', 'A'
	q := &fakeIndex{seqs: map[string]string{"chr1": string(qb)}}
	tg := &fakeIndex{seqs: map[string]string{"chr1t": string(tb)}}

	v := &variant.Variant{ReferenceName: "chr1", Start: 27, End: 31, ReferenceBases: "CATG", AlternateBases: []variant.Allele{"C"}}

	res, err := Transform(context.Background(), r, []*variant.Variant{v}, []string{"s1"}, q, tg)
	require.NoError(t, err)
	assert.Equal(t, unit.Unsupported, res.Kind)
}

// TestTransform_S7_ContainmentViolationDropped proves the façade's final
// containment check: an otherwise-valid UnchangedGenome unit emits its
// variant at target position 30, outside a deliberately too-narrow target
// interval [0,5), so the region is dropped as Unsupported.
func TestTransform_S7_ContainmentViolationDropped(t *testing.T) {
	r := genome.Region{
		Query:  genome.Interval{ReferenceName: "chr1", Start: 0, End: 40},
		Target: genome.Interval{ReferenceName: "chr1t", Start: 0, End: 5}, // too narrow: length mismatches query
		Strand: genome.Positive,
		Type:   genome.Identical,
	}
	v := &variant.Variant{ReferenceName: "chr1", Start: 30, End: 31, ReferenceBases: "A", AlternateBases: []variant.Allele{"G"}}
	q, tg := &fakeIndex{}, &fakeIndex{}

	res, err := Transform(context.Background(), r, []*variant.Variant{v}, []string{"s1"}, q, tg)
	require.NoError(t, err)
	assert.Equal(t, unit.Unsupported, res.Kind)
}

func TestTransform_AlignmentRequiredIsUnsupported(t *testing.T) {
	r := genome.Region{
		Query:  genome.Interval{ReferenceName: "chr1", Start: 0, End: 40},
		Target: genome.Interval{ReferenceName: "chr1t", Start: 0, End: 41},
		Strand: genome.Positive,
		Type:   genome.AlignmentRequired,
	}
	q, tg := &fakeIndex{}, &fakeIndex{}
	res, err := Transform(context.Background(), r, nil, nil, q, tg)
	require.NoError(t, err)
	assert.Equal(t, unit.Unsupported, res.Kind)
}

func TestTransform_InvalidInput_VariantOutsideRegion(t *testing.T) {
	r := genome.Region{
		Query:  genome.Interval{ReferenceName: "chr1", Start: 0, End: 10},
		Target: genome.Interval{ReferenceName: "chr1t", Start: 0, End: 10},
		Strand: genome.Positive,
		Type:   genome.Identical,
	}
	v := &variant.Variant{ReferenceName: "chr1", Start: 50, End: 51, ReferenceBases: "A", AlternateBases: []variant.Allele{"G"}}
	q, tg := &fakeIndex{}, &fakeIndex{}

	_, err := Transform(context.Background(), r, []*variant.Variant{v}, []string{"s1"}, q, tg)
	require.Error(t, err)
	var invalid *ErrInvalidInput
	assert.ErrorAs(t, err, &invalid)
}

func TestClassifyRegion(t *testing.T) {
	r := genome.Region{
		Query:  genome.Interval{ReferenceName: "chr1", Start: 0, End: 4},
		Target: genome.Interval{ReferenceName: "chr1t", Start: 0, End: 4},
		Strand: genome.Positive,
	}
	q := &fakeIndex{seqs: map[string]string{"chr1": "ACGT"}}
	tg := &fakeIndex{seqs: map[string]string{"chr1t": "ACGT"}}
	rt, err := ClassifyRegion(context.Background(), r, q, tg)
	require.NoError(t, err)
	assert.Equal(t, genome.Identical, rt)
}
