package unit

import "github.com/inodb/genomewarp/internal/variant"

// ResultKind tags the shape of a Result.
type ResultKind int

const (
	// Ok means the unit transformed cleanly; Variants holds the output
	// (possibly empty, e.g. an UnchangedGenome unit with zero variants).
	Ok ResultKind = iota
	// Unsupported means the unit's shape isn't one of the handled paths;
	// the caller drops the whole region.
	Unsupported
	// Invalid means a supported path's internal consistency check failed
	// (e.g. DualSnv whose RefDiff doesn't match the variant's reference).
	Invalid
)

// Result is the algebraic TransformationResult a single unit produces.
type Result struct {
	Kind     ResultKind
	Variants []*variant.Variant
	Reason   string
}

func ok(vs ...*variant.Variant) Result { return Result{Kind: Ok, Variants: vs} }

func unsupported(reason string) Result { return Result{Kind: Unsupported, Reason: reason} }

func invalid(reason string) Result { return Result{Kind: Invalid, Reason: reason} }
