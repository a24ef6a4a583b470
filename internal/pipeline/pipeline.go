// Package pipeline drives the liftover run end to end: it pulls
// (HomologousRegion, []Variant) work items from a RegionProvider,
// classifies and transforms each on a bounded worker pool, and hands
// Ok results to a VariantSink in submission order (spec §4.12). Grounded
// directly on teacher internal/annotate/parallel.go's
// ParallelAnnotate/OrderedCollect: a worker pool over a channel of
// sequence-numbered work items, with results reordered before being
// handed to a sink callback.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/inodb/genomewarp/internal/fasta"
	"github.com/inodb/genomewarp/internal/genome"
	"github.com/inodb/genomewarp/internal/store"
	"github.com/inodb/genomewarp/internal/transform"
	"github.com/inodb/genomewarp/internal/unit"
	"github.com/inodb/genomewarp/internal/variant"
	"go.uber.org/zap"
)

// reasonUnclassifiable is the Unsupported reason stamped on a region that
// classifies as genome.TypeUnknown (missing chromosome or non-ACGT
// content): spec.md §3 calls Unknown "a filter-out sentinel", so such a
// region is dropped the same way an Unsupported transform result is,
// never reaching transform.Transform.
const reasonUnclassifiable = "region classified Unknown (missing chromosome or non-ACGT content); dropped"

// WorkItem is one unit of pipeline input: a homologous region (type
// unset) paired with the query-side variants that fall inside it.
type WorkItem struct {
	Seq      int
	Region   genome.Region
	Variants []*variant.Variant
}

// WorkResult is one unit of pipeline output: a transform outcome plus
// enough of the originating region to log or count against.
type WorkResult struct {
	Seq    int
	Region genome.Region
	Result unit.Result
	Err    error
}

// Sink receives target-side Variants for Ok regions, in submission
// order. It is the VariantSink role from spec.md §6.
type Sink interface {
	Write(v *variant.Variant) error
}

// Driver wires a query/target FASTA pair and a logger into repeated
// region transforms.
type Driver struct {
	QueryFasta  fasta.Index
	TargetFasta fasta.Index
	Summary     *store.Store
	Logger      *zap.SugaredLogger
}

// Run reads every region the provider yields, transforms it, and writes
// Ok results to sink in the order regions were read (not the order
// workers finish). callSetNames is stamped onto every emitted Variant's
// calls. workers <= 0 defaults to runtime.NumCPU(). A non-nil error
// (InvalidInput or a fatal FASTA error) aborts the run; Unsupported and
// Invalid outcomes are logged and dropped instead, never returned as an
// error, matching the 100%-specificity policy from spec.md §7.
func (d *Driver) Run(ctx context.Context, regions []WorkItem, callSetNames []string, sink Sink, workers int) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	items := make(chan WorkItem, 2*workers)
	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				res, err := d.classifyAndTransform(ctx, item, callSetNames)
				results <- WorkResult{Seq: item.Seq, Region: item.Region, Result: res, Err: err}
			}
		}()
	}

	go func() {
		defer close(items)
		for _, r := range regions {
			select {
			case items <- r:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return d.collect(results, sink)
}

// classifyAndTransform runs classifyRegion (spec §4.2) on item.Region
// before handing it to transform.Transform, since a RegionProvider (e.g.
// internal/chain) yields regions with Type left TypeUnknown. A
// TypeUnknown classification is a filter-out sentinel, not an error: it
// is reported the same way an Unsupported transform result is, so the
// region is dropped without aborting the run.
func (d *Driver) classifyAndTransform(ctx context.Context, item WorkItem, callSetNames []string) (unit.Result, error) {
	classified, err := transform.ClassifyRegion(ctx, item.Region, d.QueryFasta, d.TargetFasta)
	if err != nil {
		return unit.Result{}, err
	}
	if classified == genome.TypeUnknown {
		return unit.Result{Kind: unit.Unsupported, Reason: reasonUnclassifiable}, nil
	}

	region := item.Region
	region.Type = classified
	return transform.Transform(ctx, region, item.Variants, callSetNames, d.QueryFasta, d.TargetFasta)
}

// collect implements OrderedCollect: results arrive in arbitrary worker-
// completion order and are buffered in a pending map until the next
// expected sequence number is available, at which point they are
// released to the sink in order.
func (d *Driver) collect(results <-chan WorkResult, sink Sink) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r
		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := d.handle(rr, sink); err != nil {
				for range results {
				}
				return err
			}
		}
	}
	return nil
}

func (d *Driver) handle(r WorkResult, sink Sink) error {
	if r.Err != nil {
		return fmt.Errorf("region %s: %w", r.Region.Query, r.Err)
	}

	switch r.Result.Kind {
	case unit.Ok:
		if d.Summary != nil {
			if err := d.Summary.RecordRegion(r.Region.Query.ReferenceName, store.OutcomeOk, len(r.Result.Variants)); err != nil {
				return err
			}
		}
		for _, v := range r.Result.Variants {
			if err := sink.Write(v); err != nil {
				return err
			}
		}
	case unit.Unsupported, unit.Invalid:
		if d.Logger != nil {
			d.Logger.Warnw("dropping region", "query", r.Region.Query.String(), "kind", r.Result.Kind, "reason", r.Result.Reason)
		}
		if d.Summary != nil {
			outcome := store.OutcomeUnsupported
			if r.Result.Kind == unit.Invalid {
				outcome = store.OutcomeInvalid
			}
			if err := d.Summary.RecordRegion(r.Region.Query.ReferenceName, outcome, 0); err != nil {
				return err
			}
		}
	}
	return nil
}
