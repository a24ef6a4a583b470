package chain

import (
	"fmt"
	"io"
	"sort"

	"github.com/inodb/genomewarp/internal/confident"
	"github.com/inodb/genomewarp/internal/genome"
)

// Provider implements the RegionProvider role (spec.md §6): it expands a
// parsed chain file's blocks into HomologousRegions and, when confident
// regions are supplied, intersects each block against them so only
// confidently-called sub-intervals are yielded.
type Provider struct {
	chains     []Chain
	confident  []confident.ConfidentRegion // sorted by (ReferenceName, Start); query-side
}

// NewProvider parses r as a chain file and builds a Provider over it.
func NewProvider(r io.Reader) (*Provider, error) {
	chains, err := ParseChains(r)
	if err != nil {
		return nil, err
	}
	return &Provider{chains: chains}, nil
}

// WithConfidentRegions restricts every yielded region to the
// intersection with regions (query-side coordinates), sorted here once
// up front for the sweep in Regions.
func (p *Provider) WithConfidentRegions(regions []confident.ConfidentRegion) *Provider {
	sorted := append([]confident.ConfidentRegion(nil), regions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Interval.ReferenceName != sorted[j].Interval.ReferenceName {
			return sorted[i].Interval.ReferenceName < sorted[j].Interval.ReferenceName
		}
		return sorted[i].Interval.Start < sorted[j].Interval.Start
	})
	p.confident = sorted
	return p
}

// Regions returns every HomologousRegion this chain file (optionally
// clipped to confident regions) yields, type left unset.
func (p *Provider) Regions() []genome.Region {
	var out []genome.Region
	for _, c := range p.chains {
		for _, r := range c.Regions() {
			if p.confident == nil {
				out = append(out, r)
				continue
			}
			out = append(out, intersectWithConfident(r, p.confident)...)
		}
	}
	return out
}

// intersectWithConfident clips r.Query against every overlapping
// confident region and shrinks r.Target by the same amounts (chain blocks
// are one-to-one, so both sides have equal length). On the positive
// strand the target is trimmed at the same ends as the query; on the
// negative strand query offsets count back from Target.End (the mapping
// internal/unit's positionConvert uses), so trimming the query start
// trims the target end and vice versa.
func intersectWithConfident(r genome.Region, confidentRegions []confident.ConfidentRegion) []genome.Region {
	var out []genome.Region
	for _, c := range confidentRegions {
		if c.Interval.ReferenceName != r.Query.ReferenceName {
			continue
		}
		start := maxI64(r.Query.Start, c.Interval.Start)
		end := minI64(r.Query.End, c.Interval.End)
		if start >= end {
			continue
		}
		offsetStart := start - r.Query.Start
		offsetEnd := end - r.Query.Start
		tStart := r.Target.Start + offsetStart
		tEnd := r.Target.Start + offsetEnd
		if r.Strand == genome.Negative {
			tStart = r.Target.End - offsetEnd
			tEnd = r.Target.End - offsetStart
		}
		clipped := genome.Region{
			Query: genome.Interval{ReferenceName: r.Query.ReferenceName, Start: start, End: end},
			Target: genome.Interval{
				ReferenceName: r.Target.ReferenceName,
				Start:         tStart,
				End:           tEnd,
			},
			Strand: r.Strand,
		}
		out = append(out, clipped)
	}
	return out
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// String satisfies fmt.Stringer for diagnostic logging.
func (p *Provider) String() string {
	return fmt.Sprintf("chain.Provider{chains=%d}", len(p.chains))
}
