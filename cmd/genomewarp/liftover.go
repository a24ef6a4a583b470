package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/inodb/genomewarp/internal/chain"
	"github.com/inodb/genomewarp/internal/confident"
	"github.com/inodb/genomewarp/internal/fasta"
	"github.com/inodb/genomewarp/internal/genome"
	"github.com/inodb/genomewarp/internal/logging"
	"github.com/inodb/genomewarp/internal/pipeline"
	"github.com/inodb/genomewarp/internal/store"
	"github.com/inodb/genomewarp/internal/variant"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newLiftoverCmd() *cobra.Command {
	var (
		chainPath        string
		queryFastaPath   string
		queryFaiPath     string
		targetFastaPath  string
		targetFaiPath    string
		confidentBedPath string
		confidentPadding int64
		confidentWindow  int64
		inputPath        string
		outputPath       string
		summaryDBPath    string
		workers          int
		printSummary     bool
	)

	cmd := &cobra.Command{
		Use:   "liftover",
		Short: "Lift a VCF's variants from the chain's query assembly to its target assembly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if workers <= 0 {
				workers = viper.GetInt("pipeline.workers")
			}
			return runLiftover(cmd.Context(), liftoverOptions{
				chainPath:        chainPath,
				queryFastaPath:   queryFastaPath,
				queryFaiPath:     queryFaiPath,
				targetFastaPath:  targetFastaPath,
				targetFaiPath:    targetFaiPath,
				confidentBedPath: confidentBedPath,
				confidentPadding: confidentPadding,
				confidentWindow:  confidentWindow,
				inputPath:        inputPath,
				outputPath:       outputPath,
				summaryDBPath:    summaryDBPath,
				workers:          workers,
				printSummary:     printSummary,
			})
		},
	}

	cmd.Flags().StringVar(&chainPath, "chain", "", "UCSC chain file describing the query->target liftover (required)")
	cmd.Flags().StringVar(&queryFastaPath, "query-fasta", "", "query assembly FASTA (required)")
	cmd.Flags().StringVar(&queryFaiPath, "query-fasta-index", "", "query assembly .fai index (default <query-fasta>.fai)")
	cmd.Flags().StringVar(&targetFastaPath, "target-fasta", "", "target assembly FASTA (required)")
	cmd.Flags().StringVar(&targetFaiPath, "target-fasta-index", "", "target assembly .fai index (default <target-fasta>.fai)")
	cmd.Flags().StringVar(&confidentBedPath, "confident-bed", "", "BED of confidently-called query regions to restrict liftover to")
	cmd.Flags().Int64Var(&confidentPadding, "confident-padding", 0, "bases to pad each confident region by on each side, before windowing")
	cmd.Flags().Int64Var(&confidentWindow, "confident-window", 0, "split confident regions longer than this into consecutive sub-regions (0 disables windowing)")
	cmd.Flags().StringVar(&inputPath, "input", "-", "input VCF (use '-' for stdin)")
	cmd.Flags().StringVar(&outputPath, "output", "-", "output VCF (use '-' for stdout)")
	cmd.Flags().StringVar(&summaryDBPath, "summary-db", "", "DuckDB file to persist the run summary to (default in-memory)")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker count (default runtime.NumCPU(), or pipeline.workers from config)")
	cmd.Flags().BoolVar(&printSummary, "summary", false, "print run-wide region and variant totals to stderr after the run (no per-chromosome breakdown)")

	cmd.MarkFlagRequired("chain")
	cmd.MarkFlagRequired("query-fasta")
	cmd.MarkFlagRequired("target-fasta")

	return cmd
}

type liftoverOptions struct {
	chainPath        string
	queryFastaPath   string
	queryFaiPath     string
	targetFastaPath  string
	targetFaiPath    string
	confidentBedPath string
	confidentPadding int64
	confidentWindow  int64
	inputPath        string
	outputPath       string
	summaryDBPath    string
	workers          int
	printSummary     bool
}

func runLiftover(ctx context.Context, opts liftoverOptions) error {
	logger, err := logging.New(viper.GetBool("verbose"))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	queryFasta, err := openFastaIndex(opts.queryFastaPath, opts.queryFaiPath)
	if err != nil {
		return fmt.Errorf("open query fasta: %w", err)
	}
	targetFasta, err := openFastaIndex(opts.targetFastaPath, opts.targetFaiPath)
	if err != nil {
		return fmt.Errorf("open target fasta: %w", err)
	}

	provider, err := chain.LoadCached(opts.chainPath)
	if err != nil {
		return fmt.Errorf("load chain file: %w", err)
	}
	if opts.confidentBedPath != "" {
		bedFile, err := os.Open(opts.confidentBedPath)
		if err != nil {
			return fmt.Errorf("open confident bed: %w", err)
		}
		regions, err := variant.ReadAllBED(bedFile)
		bedFile.Close()
		if err != nil {
			return fmt.Errorf("read confident bed: %w", err)
		}
		preprocessed, err := confident.Preprocess(ctx, regions, queryFasta, opts.confidentPadding, opts.confidentWindow)
		if err != nil {
			return fmt.Errorf("preprocess confident regions: %w", err)
		}
		provider.WithConfidentRegions(preprocessed)
	}

	in, closeIn, err := openInput(opts.inputPath)
	if err != nil {
		return err
	}
	defer closeIn()

	vcfReader, err := variant.NewVCFReader(in)
	if err != nil {
		return fmt.Errorf("open vcf input: %w", err)
	}
	defer vcfReader.Close()

	variants, err := readAllVariants(ctx, vcfReader)
	if err != nil {
		return fmt.Errorf("read vcf: %w", err)
	}

	items := assignVariantsToRegions(provider.Regions(), variants)

	out, closeOut, err := openOutput(opts.outputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	vcfWriter := variant.NewVCFWriter(out, vcfReader.HeaderLines(), vcfReader.SampleNames())
	if err := vcfWriter.WriteHeader(); err != nil {
		return fmt.Errorf("write vcf header: %w", err)
	}

	summaryStore, err := store.Open(opts.summaryDBPath)
	if err != nil {
		return fmt.Errorf("open summary store: %w", err)
	}
	defer summaryStore.Close()

	driver := &pipeline.Driver{
		QueryFasta:  queryFasta,
		TargetFasta: targetFasta,
		Summary:     summaryStore,
		Logger:      logger,
	}
	sink := &vcfSink{w: vcfWriter}
	if err := driver.Run(ctx, items, vcfReader.SampleNames(), sink, opts.workers); err != nil {
		return fmt.Errorf("liftover run: %w", err)
	}
	if err := vcfWriter.Flush(); err != nil {
		return fmt.Errorf("flush vcf output: %w", err)
	}

	if opts.printSummary {
		totals, err := summaryStore.Totals()
		if err != nil {
			return fmt.Errorf("read run summary: %w", err)
		}
		fmt.Fprintf(os.Stderr, "regions: %d ok, %d unsupported, %d invalid; %d variants emitted\n",
			totals.RegionsOk, totals.RegionsUnsupported, totals.RegionsInvalid, totals.VariantsEmitted)
	}
	return nil
}

type vcfSink struct {
	w *variant.VCFWriter
}

func (s *vcfSink) Write(v *variant.Variant) error {
	return s.w.Write(v)
}

func openFastaIndex(fastaPath, faiPath string) (fasta.Index, error) {
	if faiPath == "" {
		faiPath = fastaPath + ".fai"
	}
	f, err := os.Open(fastaPath)
	if err != nil {
		return nil, err
	}
	faiFile, err := os.Open(faiPath)
	if err != nil {
		f.Close()
		return nil, err
	}
	defer faiFile.Close()
	return fasta.NewFileIndex(f, faiFile)
}

func openInput(path string) (*os.File, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input %q: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output %q: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}

func readAllVariants(ctx context.Context, r *variant.VCFReader) ([]*variant.Variant, error) {
	var out []*variant.Variant
	for {
		v, err := r.Next(ctx)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return out, nil
		}
		out = append(out, v)
	}
}

// assignVariantsToRegions builds one pipeline.WorkItem per region,
// carrying the query-side variants that fall inside it, per the
// RegionProvider contract (spec.md §6: "supplies (HomologousRegion,
// [Variant]) pairs"). Variants are grouped by chromosome and sorted by
// start so each region's membership is found by a linear scan of only
// its own chromosome's variants.
func assignVariantsToRegions(regions []genome.Region, variants []*variant.Variant) []pipeline.WorkItem {
	byChrom := make(map[string][]*variant.Variant)
	for _, v := range variants {
		byChrom[v.ReferenceName] = append(byChrom[v.ReferenceName], v)
	}
	for _, vs := range byChrom {
		sort.Slice(vs, func(i, j int) bool { return vs[i].Start < vs[j].Start })
	}

	items := make([]pipeline.WorkItem, 0, len(regions))
	for i, r := range regions {
		var matched []*variant.Variant
		for _, v := range byChrom[r.Query.ReferenceName] {
			if v.Start >= r.Query.Start && v.Start < r.Query.End {
				matched = append(matched, v)
			}
		}
		items = append(items, pipeline.WorkItem{Seq: i, Region: r, Variants: matched})
	}
	return items
}
