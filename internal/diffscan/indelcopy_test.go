package diffscan

import (
	"context"
	"testing"

	"github.com/inodb/genomewarp/internal/genome"
	"github.com/inodb/genomewarp/internal/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildChrom returns a fakeIndex with a single chromosome whose sequence is
// literally seq (fixed length, no growth needed beyond it).
func buildChrom(name, seq string) *fakeIndex {
	return &fakeIndex{seqs: map[string]string{name: seq}}
}

func TestDetectIndelCopyNumber_TargetHasFewerCopies_Deletion(t *testing.T) {
	// Query: anchor 'A' at pos 5, then "CTG" repeated 3x (9 bases), then
	// a diverging tail so the run stops exactly after 3 repeats.
	querySeq := "XXXXXA" + "CTGCTGCTG" + "TTTTTTTTTT"
	// Target: anchor 'A' at pos 105, "CTG" repeated only 2x, then diverges.
	targetSeq := make([]byte, 200)
	for i := range targetSeq {
		targetSeq[i] = 'X'
	}
	copy(targetSeq[105:], "A"+"CTGCTG"+"TTTTTTTTTT")

	q := buildChrom("chr2", querySeq)
	tg := buildChrom("chr2t", string(targetSeq))

	r := genome.Region{
		Query:  genome.Interval{ReferenceName: "chr2", Start: 0, End: 10},
		Target: genome.Interval{ReferenceName: "chr2t", Start: 100, End: 110},
		Strand: genome.Positive,
		Type:   genome.Identical,
	}
	v := &variant.Variant{
		ReferenceName:  "chr2",
		Start:          5,
		End:            9,
		ReferenceBases: "ACTG",
		AlternateBases: []variant.Allele{"A"},
	}

	diffs, err := DetectIndelCopyNumber(context.Background(), r, []*variant.Variant{v}, q, tg)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	d := diffs[0]
	assert.True(t, d.IsDeletion())
	assert.Equal(t, int64(5), d.QueryPos())
	assert.Equal(t, "ACTG", d.QueryBases())
	assert.Equal(t, "A", d.TargetBases())
}

func TestDetectIndelCopyNumber_TargetHasMoreCopies_Insertion(t *testing.T) {
	querySeq := "XXXXXA" + "CTGCTG" + "TTTTTTTTTT"
	targetSeq := make([]byte, 200)
	for i := range targetSeq {
		targetSeq[i] = 'X'
	}
	copy(targetSeq[105:], "A"+"CTGCTGCTG"+"TTTTTTTTTT")

	q := buildChrom("chr2", querySeq)
	tg := buildChrom("chr2t", string(targetSeq))

	r := genome.Region{
		Query:  genome.Interval{ReferenceName: "chr2", Start: 0, End: 10},
		Target: genome.Interval{ReferenceName: "chr2t", Start: 100, End: 110},
		Strand: genome.Positive,
		Type:   genome.Identical,
	}
	v := &variant.Variant{
		ReferenceName:  "chr2",
		Start:          5,
		End:            8,
		ReferenceBases: "ACTG",
		AlternateBases: []variant.Allele{"A"},
	}

	diffs, err := DetectIndelCopyNumber(context.Background(), r, []*variant.Variant{v}, q, tg)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	d := diffs[0]
	assert.True(t, d.IsInsertion())
	assert.Equal(t, int64(5), d.QueryPos())
	assert.Equal(t, "A", d.QueryBases())
	assert.Equal(t, "ACTG", d.TargetBases())
}

func TestDetectIndelCopyNumber_SameCopyNumberIsNoDiff(t *testing.T) {
	querySeq := "XXXXXA" + "CTGCTGCTG" + "TTTTTTTTTT"
	targetSeq := make([]byte, 200)
	for i := range targetSeq {
		targetSeq[i] = 'X'
	}
	copy(targetSeq[105:], "A"+"CTGCTGCTG"+"TTTTTTTTTT")

	q := buildChrom("chr2", querySeq)
	tg := buildChrom("chr2t", string(targetSeq))

	r := genome.Region{
		Query:  genome.Interval{ReferenceName: "chr2", Start: 0, End: 10},
		Target: genome.Interval{ReferenceName: "chr2t", Start: 100, End: 110},
		Strand: genome.Positive,
		Type:   genome.Identical,
	}
	v := &variant.Variant{
		ReferenceName:  "chr2",
		Start:          5,
		End:            9,
		ReferenceBases: "ACTG",
		AlternateBases: []variant.Allele{"A"},
	}

	diffs, err := DetectIndelCopyNumber(context.Background(), r, []*variant.Variant{v}, q, tg)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestDetectIndelCopyNumber_ShortCircuitWhenDivergesInsideRegion(t *testing.T) {
	// The run diverges inside the region (qRun < cSize).
	// Here cSize = 20 (region.End - variant.Start), much larger than the
	// 3-base run before divergence, so this must short-circuit to no diff.
	querySeq := "XXXXXA" + "CTG" + "TTTTTTTTTTTTTTTTTTTTTTTTTT"
	targetSeq := make([]byte, 200)
	for i := range targetSeq {
		targetSeq[i] = 'X'
	}
	copy(targetSeq[105:], "A"+"CT"+"TTTTTTTTTTTTTTTTTTTTTTTTTT")

	q := buildChrom("chr2", querySeq)
	tg := buildChrom("chr2t", string(targetSeq))

	r := genome.Region{
		Query:  genome.Interval{ReferenceName: "chr2", Start: 0, End: 25},
		Target: genome.Interval{ReferenceName: "chr2t", Start: 100, End: 125},
		Strand: genome.Positive,
		Type:   genome.Identical,
	}
	v := &variant.Variant{
		ReferenceName:  "chr2",
		Start:          5,
		End:            8,
		ReferenceBases: "ACTG",
		AlternateBases: []variant.Allele{"A"},
	}

	diffs, err := DetectIndelCopyNumber(context.Background(), r, []*variant.Variant{v}, q, tg)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestDetectIndelCopyNumber_SkipsNonIdenticalOrNegativeStrand(t *testing.T) {
	q := buildChrom("chr2", "AAAAAA")
	tg := buildChrom("chr2t", "AAAAAA")
	v := &variant.Variant{ReferenceName: "chr2", Start: 1, End: 3, ReferenceBases: "AC", AlternateBases: []variant.Allele{"A"}}

	neg := genome.Region{
		Query:  genome.Interval{ReferenceName: "chr2", Start: 0, End: 6},
		Target: genome.Interval{ReferenceName: "chr2t", Start: 0, End: 6},
		Strand: genome.Negative,
		Type:   genome.Identical,
	}
	diffs, err := DetectIndelCopyNumber(context.Background(), neg, []*variant.Variant{v}, q, tg)
	require.NoError(t, err)
	assert.Empty(t, diffs)

	mismatched := neg
	mismatched.Strand = genome.Positive
	mismatched.Type = genome.MismatchedBases
	diffs, err = DetectIndelCopyNumber(context.Background(), mismatched, []*variant.Variant{v}, q, tg)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}
