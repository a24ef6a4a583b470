package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/inodb/genomewarp/internal/gvcfextract"
	"github.com/klauspost/pgzip"
	"github.com/spf13/cobra"
)

func newExtractGVCFCmd() *cobra.Command {
	var (
		inputPath  string
		vcfOutPath string
		bedOutPath string
	)

	cmd := &cobra.Command{
		Use:   "extract-gvcf",
		Short: "Split a single-sample gVCF into a real-variant VCF and a confident-region BED",
		Long: `extract-gvcf reads a single-sample gVCF and separates its reference
blocks (ALT=<NON_REF>) from its real variant calls, writing the variants
out as a plain VCF and every confidently-called interval (reference
block or variant) out as a BED4 file suitable for --confident-bed on
the liftover command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtractGVCF(inputPath, vcfOutPath, bedOutPath)
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "-", "input gVCF (use '-' for stdin)")
	cmd.Flags().StringVar(&vcfOutPath, "output-vcf", "", "output VCF path (required; .gz suffix writes pgzip-compressed)")
	cmd.Flags().StringVar(&bedOutPath, "output-bed", "", "output confident-region BED path (required)")
	cmd.MarkFlagRequired("output-vcf")
	cmd.MarkFlagRequired("output-bed")

	return cmd
}

func runExtractGVCF(inputPath, vcfOutPath, bedOutPath string) error {
	in, closeIn, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer closeIn()

	vcfFile, err := os.Create(vcfOutPath)
	if err != nil {
		return fmt.Errorf("create output vcf: %w", err)
	}
	defer vcfFile.Close()

	var vcfOut *pgzip.Writer
	if strings.HasSuffix(vcfOutPath, ".gz") {
		vcfOut = pgzip.NewWriter(vcfFile)
		defer vcfOut.Close()
	}

	bedFile, err := os.Create(bedOutPath)
	if err != nil {
		return fmt.Errorf("create output bed: %w", err)
	}
	defer bedFile.Close()

	if vcfOut != nil {
		err = gvcfextract.Extract(in, vcfOut, bedFile)
	} else {
		err = gvcfextract.Extract(in, vcfFile, bedFile)
	}
	if err != nil {
		return fmt.Errorf("extract gvcf: %w", err)
	}
	if vcfOut != nil {
		return vcfOut.Flush()
	}
	return nil
}
