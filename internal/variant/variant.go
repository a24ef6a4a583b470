// Package variant defines the Variant/Allele/VariantCall value types used
// by the liftover engine, along with a VCF reader and writer (the
// VariantSource and VariantSink collaborators the core depends on) and a
// BED reader and writer for confident-region intervals.
package variant

import (
	"fmt"

	"github.com/inodb/genomewarp/internal/genome"
)

// Allele is a non-empty string over {A,C,G,T,a,c,g,t}.
type Allele string

// Valid reports whether a is a non-empty run of DNA bases.
func (a Allele) Valid() bool {
	return genome.IsACGT(string(a))
}

// Call holds one sample's genotype for a Variant. Genotype indices refer
// into the owning Variant's allele table: 0 is the reference allele, 1..N
// are AlternateBases[0..N-1], and -1 marks a no-call.
type Call struct {
	CallSetName         string
	Genotype            []int
	Phased              bool
	GenotypeLikelihoods []float64
}

// Clone returns a deep copy of c, safe to mutate independently.
func (c Call) Clone() Call {
	out := Call{CallSetName: c.CallSetName, Phased: c.Phased}
	if c.Genotype != nil {
		out.Genotype = append([]int(nil), c.Genotype...)
	}
	if c.GenotypeLikelihoods != nil {
		out.GenotypeLikelihoods = append([]float64(nil), c.GenotypeLikelihoods...)
	}
	return out
}

// Variant is one VCF-record-shaped call: a reference allele, an ordered
// set of alternates, and per-sample calls against that allele table.
type Variant struct {
	ReferenceName  string
	Start          int64
	End            int64
	ReferenceBases Allele
	AlternateBases []Allele
	Filters        []string
	Quality        *float64
	Info           map[string][]any
	Names          []string
	Calls          []Call
}

// Clone returns a deep copy of v, safe to mutate independently of the
// original (the core never mutates inputs, but path builders construct a
// modified copy of the template variant before emitting it).
func (v *Variant) Clone() *Variant {
	out := *v
	out.AlternateBases = append([]Allele(nil), v.AlternateBases...)
	out.Filters = append([]string(nil), v.Filters...)
	out.Names = append([]string(nil), v.Names...)
	if v.Quality != nil {
		q := *v.Quality
		out.Quality = &q
	}
	if v.Info != nil {
		out.Info = make(map[string][]any, len(v.Info))
		for k, vals := range v.Info {
			out.Info[k] = append([]any(nil), vals...)
		}
	}
	out.Calls = make([]Call, len(v.Calls))
	for i, c := range v.Calls {
		out.Calls[i] = c.Clone()
	}
	return out
}

// maxAlleleLen returns the length of the longest allele among ref and alts.
func (v *Variant) maxAlleleLen() int {
	n := len(v.ReferenceBases)
	for _, a := range v.AlternateBases {
		if len(a) > n {
			n = len(a)
		}
	}
	return n
}

// IsMNV reports whether v is a multi-nucleotide variant: the longest
// allele (reference or any alternate) is more than one base.
func (v *Variant) IsMNV() bool {
	return v.maxAlleleLen() > 1
}

// IsSNV reports whether v is a single-nucleotide variant: ref and every
// alt are exactly one base.
func (v *Variant) IsSNV() bool {
	return len(v.ReferenceBases) == 1 && v.maxAlleleLen() == 1
}

// Validate checks the structural invariants from the data model: End must
// equal Start+len(ReferenceBases), and every genotype index must be -1 or
// in [0, len(AlternateBases)].
func (v *Variant) Validate() error {
	if v.End != v.Start+int64(len(v.ReferenceBases)) {
		return fmt.Errorf("variant %s:%d: end %d does not match start+len(ref) %d",
			v.ReferenceName, v.Start, v.End, v.Start+int64(len(v.ReferenceBases)))
	}
	for _, c := range v.Calls {
		if len(c.Genotype) == 0 {
			return fmt.Errorf("variant %s:%d: call %s has empty genotype", v.ReferenceName, v.Start, c.CallSetName)
		}
		for _, g := range c.Genotype {
			if g != -1 && (g < 0 || g > len(v.AlternateBases)) {
				return fmt.Errorf("variant %s:%d: call %s genotype index %d out of range [-1,%d]",
					v.ReferenceName, v.Start, c.CallSetName, g, len(v.AlternateBases))
			}
		}
	}
	return nil
}
