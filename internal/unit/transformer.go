package unit

import (
	"fmt"
	"sort"

	"github.com/inodb/genomewarp/internal/genome"
	"github.com/inodb/genomewarp/internal/refdiff"
	"github.com/inodb/genomewarp/internal/variant"
)

// Transform implements UnitTransformer (spec C6): it decides which of the
// four supported shapes u matches (or signals Unsupported/Invalid) and
// returns the target-assembly variants, with every call's CallSetName
// overwritten from callSetNames in positional order.
func Transform(u TransformationUnit, callSetNames []string) Result {
	region := u.Region

	// G0: region must already be classified as transformable.
	if region.Type != genome.Identical && region.Type != genome.MismatchedBases {
		return unsupported(fmt.Sprintf("region type %s is not transformable", region.Type))
	}
	// G1: an MNV never transforms on the negative strand (no left-shifting).
	for _, v := range u.Variants {
		if v.IsMNV() && region.Strand == genome.Negative {
			return unsupported("mnv variant on negative strand")
		}
	}
	// G2: indel reference differences never transform on the negative strand.
	if !u.RefDiff.IsNoDiff() && (u.RefDiff.IsInsertion() || u.RefDiff.IsDeletion()) && region.Strand == genome.Negative {
		return unsupported("indel refdiff on negative strand")
	}
	// G3: a reference difference paired with more than one variant is a
	// complexity the engine does not resolve.
	if !u.RefDiff.IsNoDiff() && len(u.Variants) > 1 {
		return unsupported("refdiff overlaps more than one variant")
	}

	var res Result
	switch {
	case u.RefDiff.IsNoDiff():
		res = transformUnchangedGenome(region, u.Variants)
	case len(u.Variants) == 0:
		res = transformRefOnly(region, u.RefDiff)
	case u.RefDiff.IsSnv() && u.Variants[0].IsSNV():
		res = transformDualSnv(region, u.RefDiff, u.Variants[0])
	case (u.RefDiff.IsInsertion() || u.RefDiff.IsDeletion()) && region.Strand == genome.Positive && matchesIndel(u.RefDiff, u.Variants[0]):
		res = transformMatchingPosIndel(region, u.RefDiff, u.Variants[0])
	default:
		return unsupported("unit matches no supported shape")
	}
	return applyCallSetNames(res, callSetNames)
}

func matchesIndel(d refdiff.RefDiff, v *variant.Variant) bool {
	return len(v.AlternateBases) == 1 &&
		d.QueryBases() == string(v.ReferenceBases) &&
		d.TargetBases() == string(v.AlternateBases[0])
}

// applyCallSetNames overwrites each output call's CallSetName from names in
// positional order; it is a no-op for non-Ok results.
func applyCallSetNames(res Result, names []string) Result {
	if res.Kind != Ok {
		return res
	}
	for _, v := range res.Variants {
		for i := range v.Calls {
			if i < len(names) {
				v.Calls[i].CallSetName = names[i]
			}
		}
	}
	return res
}

// positionConvert maps a query-coordinate position to its target-coordinate
// counterpart, per the region's strand.
func positionConvert(region genome.Region, queryPos int64) int64 {
	if region.Strand == genome.Negative {
		return region.Target.End - (queryPos - region.Query.Start)
	}
	return region.Target.Start + (queryPos - region.Query.Start)
}

// emit builds the target-assembly variant for (queryStart, posRef, posAlts)
// against template, which supplies every field emit doesn't itself set
// (quality, names, filters, info, calls). On the negative strand the
// alleles are reverse-complemented and the interval is anchored from the
// converted end rather than the converted start.
func emit(region genome.Region, template *variant.Variant, queryStart int64, posRef string, posAlts []string) *variant.Variant {
	out := template.Clone()
	out.ReferenceName = region.Target.ReferenceName
	pos := positionConvert(region, queryStart)

	alts := make([]variant.Allele, len(posAlts))
	if region.Strand == genome.Negative {
		out.ReferenceBases = variant.Allele(genome.ReverseComplement(posRef))
		for i, a := range posAlts {
			alts[i] = variant.Allele(genome.ReverseComplement(a))
		}
		out.End = pos
		out.Start = pos - int64(len(posRef))
	} else {
		out.ReferenceBases = variant.Allele(posRef)
		for i, a := range posAlts {
			alts[i] = variant.Allele(a)
		}
		out.Start = pos
		out.End = pos + int64(len(posRef))
	}
	out.AlternateBases = alts
	return out
}

func allelesToStrings(as []variant.Allele) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = string(a)
	}
	return out
}

// transformUnchangedGenome implements Path A: every variant in the unit
// carries straight over, only its coordinates and strand converted.
func transformUnchangedGenome(region genome.Region, variants []*variant.Variant) Result {
	out := make([]*variant.Variant, 0, len(variants))
	for _, v := range variants {
		out = append(out, emit(region, v, v.Start, string(v.ReferenceBases), allelesToStrings(v.AlternateBases)))
	}
	return ok(out...)
}

// transformRefOnly implements Path B: the individual matches the query
// reference exactly, but the target reference itself differs, so a
// homozygous-alt variant must be fabricated to carry the query allele
// forward as an alternate on the target side.
func transformRefOnly(region genome.Region, d refdiff.RefDiff) Result {
	template := &variant.Variant{
		Filters: []string{"PASS"},
		Calls:   []variant.Call{{Genotype: []int{1, 1}}},
	}
	v := emit(region, template, d.QueryPos(), d.TargetBases(), []string{d.QueryBases()})
	return ok(v)
}

// transformDualSnv implements Path C: both the reference and the variant
// change at this position are single bases, so the variant's whole allele
// table is re-indexed against the new target reference. The target
// alternates are every query allele other than the new target reference,
// sorted in ASCII order (not in query allele-index order).
func transformDualSnv(region genome.Region, d refdiff.RefDiff, v *variant.Variant) Result {
	if d.QueryBases() != string(v.ReferenceBases) {
		return invalid(fmt.Sprintf("dualsnv: refdiff query base %q does not match variant reference %q", d.QueryBases(), v.ReferenceBases))
	}

	queryIndexToBase := map[int]string{0: string(v.ReferenceBases)}
	for i, alt := range v.AlternateBases {
		queryIndexToBase[i+1] = string(alt)
	}

	targetReference := d.TargetBases()

	seen := map[string]bool{targetReference: true}
	var targetAlts []string
	for _, base := range queryIndexToBase {
		if seen[base] {
			continue
		}
		seen[base] = true
		targetAlts = append(targetAlts, base)
	}
	sort.Strings(targetAlts)

	targetBaseToIndex := map[string]int{targetReference: 0}
	for i, base := range targetAlts {
		targetBaseToIndex[base] = i + 1
	}

	template := v.Clone()
	template.Calls = make([]variant.Call, len(v.Calls))
	for i, c := range v.Calls {
		nc := c.Clone()
		nc.Genotype = make([]int, len(c.Genotype))
		for j, g := range c.Genotype {
			if g == -1 {
				nc.Genotype[j] = -1
				continue
			}
			nc.Genotype[j] = targetBaseToIndex[queryIndexToBase[g]]
		}
		template.Calls[i] = nc
	}

	out := emit(region, template, v.Start, targetReference, targetAlts)
	return ok(out)
}

// transformMatchingPosIndel implements Path D: the RefDiff and the variant
// describe the same indel, so after lift the query and target alleles
// simply swap roles (0<->1) in every genotype.
func transformMatchingPosIndel(region genome.Region, d refdiff.RefDiff, v *variant.Variant) Result {
	template := v.Clone()
	template.Calls = make([]variant.Call, len(v.Calls))
	for i, c := range v.Calls {
		nc := c.Clone()
		nc.Genotype = make([]int, len(c.Genotype))
		for j, g := range c.Genotype {
			switch g {
			case -1:
				nc.Genotype[j] = -1
			case 0:
				nc.Genotype[j] = 1
			case 1:
				nc.Genotype[j] = 0
			default:
				return invalid(fmt.Sprintf("matchingposindel: genotype index %d is neither 0 nor 1", g))
			}
		}
		template.Calls[i] = nc
	}
	out := emit(region, template, v.Start, d.TargetBases(), []string{d.QueryBases()})
	return ok(out)
}
