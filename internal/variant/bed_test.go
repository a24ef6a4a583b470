package variant

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBED = `# comment
track name=test
chr1	10	20	regionA
chr1	30	40

chr2	0	5	regionB
`

func TestBEDReader_SkipsCommentsAndBlankLines(t *testing.T) {
	regions, err := ReadAllBED(strings.NewReader(testBED))
	require.NoError(t, err)
	require.Len(t, regions, 3)
	assert.Equal(t, "chr1", regions[0].Interval.ReferenceName)
	assert.Equal(t, int64(10), regions[0].Interval.Start)
	assert.Equal(t, int64(20), regions[0].Interval.End)
	assert.Equal(t, "regionA", regions[0].Name)
	assert.Equal(t, "", regions[1].Name)
	assert.Equal(t, "regionB", regions[2].Name)
}

func TestBEDWriter_WritesBED4(t *testing.T) {
	regions, err := ReadAllBED(strings.NewReader(testBED))
	require.NoError(t, err)

	var buf bytes.Buffer
	w := NewBEDWriter(&buf)
	for _, r := range regions {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Flush())

	assert.Equal(t, "chr1\t10\t20\tregionA\nchr1\t30\t40\t\nchr2\t0\t5\tregionB\n", buf.String())
}
