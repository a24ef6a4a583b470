package chain

import (
	"strings"
	"testing"

	"github.com/inodb/genomewarp/internal/confident"
	"github.com/inodb/genomewarp/internal/genome"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChain = `chain 5000 chr1 100 + 10 50 chr1_lifted 200 + 20 60 1
20 5 5
15 0 0

chain 3000 chr2 80 + 0 30 chr2_lifted 80 - 0 30 2
30
`

func TestParseChains_TwoStanzas(t *testing.T) {
	chains, err := ParseChains(strings.NewReader(testChain))
	require.NoError(t, err)
	require.Len(t, chains, 2)

	c1 := chains[0]
	assert.Equal(t, "chr1", c1.Header.QueryName)
	assert.Equal(t, "chr1_lifted", c1.Header.TargetName)
	assert.Equal(t, genome.Positive, c1.Header.TargetStrand)
	require.Len(t, c1.Blocks, 2)
	assert.Equal(t, ChainBlock{Size: 20, Dt: 5, Dq: 5}, c1.Blocks[0])
	assert.Equal(t, ChainBlock{Size: 15}, c1.Blocks[1])

	c2 := chains[1]
	assert.Equal(t, genome.Negative, c2.Header.TargetStrand)
	require.Len(t, c2.Blocks, 1)
}

func TestChain_Regions_ComputesOffsets(t *testing.T) {
	chains, err := ParseChains(strings.NewReader(testChain))
	require.NoError(t, err)

	regions := chains[0].Regions()
	require.Len(t, regions, 2)

	// First block: query [10,30), target [20,40).
	assert.Equal(t, int64(10), regions[0].Query.Start)
	assert.Equal(t, int64(30), regions[0].Query.End)
	assert.Equal(t, int64(20), regions[0].Target.Start)
	assert.Equal(t, int64(40), regions[0].Target.End)

	// Second block starts after the 5/5 gap: query 30+5=35, target 40+5=45.
	assert.Equal(t, int64(35), regions[1].Query.Start)
	assert.Equal(t, int64(50), regions[1].Query.End)
	assert.Equal(t, int64(45), regions[1].Target.Start)
	assert.Equal(t, int64(60), regions[1].Target.End)
}

func TestProvider_Regions_NoConfidentFilter(t *testing.T) {
	p, err := NewProvider(strings.NewReader(testChain))
	require.NoError(t, err)
	regions := p.Regions()
	assert.Len(t, regions, 3) // 2 blocks in chain1 + 1 in chain2
}

func TestProvider_WithConfidentRegions_ClipsBlocks(t *testing.T) {
	p, err := NewProvider(strings.NewReader(testChain))
	require.NoError(t, err)
	p.WithConfidentRegions([]confident.ConfidentRegion{
		{Interval: genome.Interval{ReferenceName: "chr1", Start: 15, End: 25}, Name: "conf1"},
	})
	regions := p.Regions()
	// Only the first chr1 block [10,30) overlaps the confident region
	// [15,25); the second chr1 block [35,50) does not overlap it at all.
	var found int
	for _, r := range regions {
		if r.Query.ReferenceName == "chr1" {
			found++
			assert.Equal(t, int64(15), r.Query.Start)
			assert.Equal(t, int64(25), r.Query.End)
			assert.Equal(t, int64(25), r.Target.Start)
			assert.Equal(t, int64(35), r.Target.End)
		}
	}
	assert.Equal(t, 1, found)
}
