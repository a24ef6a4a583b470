package fasta

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildIndex constructs a FileIndex from literal FASTA text ">chr1\nACGTACGTAC\nGTACGTACGT\n"
// (20 bases, 10 bases per line) and its .fai sidecar.
func buildIndex(t *testing.T) *FileIndex {
	t.Helper()
	fastaText := ">chr1\nACGTACGTAC\nGTACGTACGT\n"
	faiText := "chr1\t20\t6\t10\t11\n"

	idx, err := NewFileIndex(strings.NewReader(fastaText), strings.NewReader(faiText))
	require.NoError(t, err)
	return idx
}

func TestGet_WithinOneLine(t *testing.T) {
	idx := buildIndex(t)
	seq, err := idx.Get(context.Background(), "chr1", 0, 5)
	require.NoError(t, err)
	assert.Equal(t, "ACGTA", seq)
}

func TestGet_AcrossLineBreak(t *testing.T) {
	idx := buildIndex(t)
	seq, err := idx.Get(context.Background(), "chr1", 8, 12)
	require.NoError(t, err)
	assert.Equal(t, "ACGT", seq)
}

func TestGet_NegativeOneMeansFullRange(t *testing.T) {
	idx := buildIndex(t)
	seq, err := idx.Get(context.Background(), "chr1", -1, -1)
	require.NoError(t, err)
	assert.Equal(t, "ACGTACGTACGTACGTACGT", seq)
}

func TestGet_EndClampedToChromosomeLength(t *testing.T) {
	idx := buildIndex(t)
	seq, err := idx.Get(context.Background(), "chr1", 15, 1000)
	require.NoError(t, err)
	assert.Equal(t, "TACGT", seq)
}

func TestGet_LowercaseIsUppercased(t *testing.T) {
	idx, err := NewFileIndex(strings.NewReader(">chr1\nacgtacgtac\n"), strings.NewReader("chr1\t10\t6\t10\t11\n"))
	require.NoError(t, err)
	seq, err := idx.Get(context.Background(), "chr1", 0, 4)
	require.NoError(t, err)
	assert.Equal(t, "ACGT", seq)
}

func TestGet_UnknownChromosomeReturnsMissing(t *testing.T) {
	idx := buildIndex(t)
	seq, err := idx.Get(context.Background(), "chrUnknown", 0, 5)
	require.NoError(t, err)
	assert.Equal(t, Missing, seq)

	// Second lookup should hit the missing-chromosome cache, same result.
	seq, err = idx.Get(context.Background(), "chrUnknown", 0, 5)
	require.NoError(t, err)
	assert.Equal(t, Missing, seq)
}

func TestChromosomeSize(t *testing.T) {
	idx := buildIndex(t)
	assert.Equal(t, int64(20), idx.ChromosomeSize("chr1"))
	assert.Equal(t, int64(-1), idx.ChromosomeSize("nope"))
}

func TestReferenceOrder(t *testing.T) {
	faiText := "chr2\t5\t0\t5\t6\nchr1\t5\t0\t5\t6\n"
	idx, err := NewFileIndex(strings.NewReader(""), strings.NewReader(faiText))
	require.NoError(t, err)
	order := idx.ReferenceOrder()
	require.Len(t, order, 2)
	assert.Equal(t, "chr2", order[0].Name)
	assert.Equal(t, "chr1", order[1].Name)
}

func TestNewFileIndex_RejectsCRLFIndex(t *testing.T) {
	_, err := NewFileIndex(strings.NewReader(""), strings.NewReader("chr1\t5\t0\t5\t6\r\n"))
	require.Error(t, err)
	var bad *ErrBadFasta
	assert.ErrorAs(t, err, &bad)
}
