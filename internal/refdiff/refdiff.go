// Package refdiff implements RefDiff (spec C1): a tagged value describing
// a single base-level difference between the query and target reference
// at a query position, plus the overlap test used to pair differences
// with the variants that touch them.
package refdiff

import (
	"fmt"
	"strings"

	"github.com/inodb/genomewarp/internal/variant"
)

// Kind tags the shape of a RefDiff.
type Kind int

const (
	KindNoDiff Kind = iota
	KindSnv
	KindInsertion
	KindDeletion
)

// RefDiff is a single query-vs-target reference difference, or the NoDiff
// sentinel. The zero value is not a valid non-NoDiff RefDiff; use NoDiff
// or Create to construct one.
type RefDiff struct {
	kind        Kind
	queryPos    int64
	queryBases  string
	targetBases string
	// snvQuery/snvTarget cache the single-byte forms for Snv for cheap access.
	snvQuery  byte
	snvTarget byte
}

// NoDiff is the singleton sentinel meaning "no reference difference here".
// It is equal only to itself and never overlaps a variant.
var NoDiff = RefDiff{kind: KindNoDiff}

// ErrInvalidRefDiff is returned by Create when the inputs cannot form a
// valid RefDiff.
type ErrInvalidRefDiff struct {
	Reason string
}

func (e *ErrInvalidRefDiff) Error() string {
	return fmt.Sprintf("invalid refdiff: %s", e.Reason)
}

// Create builds a RefDiff describing the difference between queryBases and
// targetBases at queryPos. Both must be non-empty, and at least one side
// must have length 1 (a complex change where both sides are longer than
// one base is rejected):
//   - equal lengths -> case-insensitive unequal single bases form an Snv;
//     equal-length multi-base pairs are rejected (not representable).
//   - unequal lengths -> the shorter side must be a single base matching
//     the first base of the longer side (the shared "anchor"), forming an
//     Insertion (target longer) or Deletion (query longer).
func Create(queryPos int64, queryBases, targetBases string) (RefDiff, error) {
	if queryBases == "" || targetBases == "" {
		return RefDiff{}, &ErrInvalidRefDiff{Reason: "empty allele"}
	}

	if len(queryBases) == len(targetBases) {
		if len(queryBases) != 1 {
			return RefDiff{}, &ErrInvalidRefDiff{Reason: "equal-length multi-base refdiff is not representable"}
		}
		if strings.EqualFold(queryBases, targetBases) {
			return RefDiff{}, &ErrInvalidRefDiff{Reason: "snv bases must differ"}
		}
		return RefDiff{
			kind:      KindSnv,
			queryPos:  queryPos,
			snvQuery:  queryBases[0],
			snvTarget: targetBases[0],
		}, nil
	}

	if len(queryBases) == 1 {
		if !strings.EqualFold(queryBases, targetBases[:1]) {
			return RefDiff{}, &ErrInvalidRefDiff{Reason: "insertion anchor base mismatch"}
		}
		return RefDiff{kind: KindInsertion, queryPos: queryPos, queryBases: queryBases, targetBases: targetBases}, nil
	}

	if len(targetBases) == 1 {
		if !strings.EqualFold(queryBases[:1], targetBases) {
			return RefDiff{}, &ErrInvalidRefDiff{Reason: "deletion anchor base mismatch"}
		}
		return RefDiff{kind: KindDeletion, queryPos: queryPos, queryBases: queryBases, targetBases: targetBases}, nil
	}

	return RefDiff{}, &ErrInvalidRefDiff{Reason: "both alleles longer than one base"}
}

// IsNoDiff reports whether d is the NoDiff sentinel.
func (d RefDiff) IsNoDiff() bool { return d.kind == KindNoDiff }

// IsSnv reports whether d is a single-base substitution.
func (d RefDiff) IsSnv() bool { return d.kind == KindSnv }

// IsInsertion reports whether d describes extra bases present in the
// target but not the query.
func (d RefDiff) IsInsertion() bool { return d.kind == KindInsertion }

// IsDeletion reports whether d describes bases present in the query but
// not the target.
func (d RefDiff) IsDeletion() bool { return d.kind == KindDeletion }

// QueryPos returns the query-coordinate position of the difference. Only
// meaningful when !IsNoDiff().
func (d RefDiff) QueryPos() int64 { return d.queryPos }

// QueryBases returns the query-side bases of the difference. For Snv this
// is the single query base; empty for NoDiff.
func (d RefDiff) QueryBases() string {
	if d.kind == KindSnv {
		return string(d.snvQuery)
	}
	return d.queryBases
}

// TargetBases returns the target-side bases of the difference. For Snv
// this is the single target base; empty for NoDiff.
func (d RefDiff) TargetBases() string {
	if d.kind == KindSnv {
		return string(d.snvTarget)
	}
	return d.targetBases
}

// queryLen returns len(QueryBases()), the span the difference occupies in
// query coordinates.
func (d RefDiff) queryLen() int64 {
	if d.kind == KindNoDiff {
		return 0
	}
	return int64(len(d.QueryBases()))
}

// Overlaps reports whether d overlaps v: d.QueryPos() < v.End and
// d.QueryPos()+len(d.QueryBases()) > v.Start. NoDiff never overlaps.
func (d RefDiff) Overlaps(v *variant.Variant) bool {
	if d.kind == KindNoDiff {
		return false
	}
	return d.queryPos < v.End && d.queryPos+d.queryLen() > v.Start
}

func (d RefDiff) String() string {
	switch d.kind {
	case KindNoDiff:
		return "NoDiff"
	case KindSnv:
		return fmt.Sprintf("Snv{pos=%d %s->%s}", d.queryPos, string(d.snvQuery), string(d.snvTarget))
	case KindInsertion:
		return fmt.Sprintf("Insertion{pos=%d %s->%s}", d.queryPos, d.queryBases, d.targetBases)
	case KindDeletion:
		return fmt.Sprintf("Deletion{pos=%d %s->%s}", d.queryPos, d.queryBases, d.targetBases)
	default:
		return "RefDiff(?)"
	}
}

// Equal reports whether d and o describe the same difference (or are both
// NoDiff). RefDiff is a plain comparable struct so == also works for
// callers that don't need the named method, but Equal documents intent.
func (d RefDiff) Equal(o RefDiff) bool { return d == o }
