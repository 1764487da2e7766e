package main

import (
	"fmt"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/gvcf-reduce/internal/classify"
	"github.com/inodb/gvcf-reduce/internal/duckdb"
	"github.com/inodb/gvcf-reduce/internal/gvcferr"
	"github.com/inodb/gvcf-reduce/internal/pipeline"
)

func (a *app) newRunCmd() *cobra.Command {
	var out pipeline.Outputs

	cmd := &cobra.Command{
		Use:   "run [options] <input.gvcf>",
		Short: "Reduce a gVCF file",
		Long: `Process a gVCF file to create a coverage mask, a file of variants to
encode with IUPAC ambiguity codes and a file of consensus variants.

Outputs are written only if the whole input is processed without error.
Variant outputs ending in .gz are BGZF-compressed.`,
		Example: `  gvcf-reduce run -m mask.txt -a ambiguous.vcf -c consensus.vcf sample.gvcf
  gvcf-reduce run -d 20 -l 0.15 -u 0.85 -m mask.txt -a amb.vcf.gz -c cons.vcf.gz sample.gvcf.gz
  gvcf-reduce run --db runs.duckdb -m mask.txt -a amb.vcf -c cons.vcf sample.gvcf`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageError{fmt.Errorf("exactly one input file is required, got %d", len(args))}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReduce(args[0], out)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&out.Mask, "mask-output", "m", "", "Output file for the coverage mask")
	flags.StringVarP(&out.Ambiguous, "ambiguous-variant-output", "a", "", "Output file for variants to encode with IUPAC ambiguity codes")
	flags.StringVarP(&out.Consensus, "consensus-output", "c", "", "Output file for consensus variants (including indels)")
	flags.Int64P(keyMinDepth, "d", pipeline.DefaultMinDepth, "Mask reference positions with depth less than this threshold")
	flags.Float64P(keyLowerAF, "l", classify.DefaultLower, "Variants with frequency less than this are discarded")
	flags.Float64P(keyUpperAF, "u", classify.DefaultUpper, "Substitutions with frequency up to this are encoded with IUPAC ambiguity codes")
	flags.String(keyDB, "", "Record the run in this DuckDB database")

	for _, key := range []string{keyMinDepth, keyLowerAF, keyUpperAF, keyDB} {
		a.v.BindPFlag(key, flags.Lookup(key))
	}

	return cmd
}

func (a *app) runReduce(inputPath string, out pipeline.Outputs) error {
	if err := out.Validate(); err != nil {
		return err
	}

	cfg, err := a.reduceConfig()
	if err != nil {
		return err
	}

	reducer, err := pipeline.NewReducer(cfg)
	if err != nil {
		return err
	}
	reducer.SetLogger(a.logger)

	var store *duckdb.Store
	var runInfo duckdb.Run
	if dbPath := a.v.GetString(keyDB); dbPath != "" {
		fp, err := duckdb.StatFile(inputPath)
		if err != nil {
			return fmt.Errorf("stat input: %w", err)
		}
		store, err = duckdb.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		runInfo = duckdb.NewRun(fp, cfg)
	}

	a.logger.Info("reducing gVCF",
		zap.String("input", inputPath),
		zap.Int64("min_depth", cfg.MinDepth),
		zap.Float64("lower_af", cfg.Thresholds.Lower),
		zap.Float64("upper_af", cfg.Thresholds.Upper))

	res, err := reducer.ReduceFile(inputPath, out)
	if err != nil {
		return err
	}

	if store != nil {
		if err := store.WriteRun(runInfo, res); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		a.logger.Info("recorded run", zap.String("run_id", runInfo.ID.String()))
	}
	return nil
}

// reduceConfig reads the thresholds from the layered configuration. Values
// that are not numbers are configuration errors rather than zero.
func (a *app) reduceConfig() (pipeline.Config, error) {
	var cfg pipeline.Config
	var err error
	if cfg.MinDepth, err = cast.ToInt64E(a.v.Get(keyMinDepth)); err != nil {
		return cfg, gvcferr.Configurationf("%s: %v", keyMinDepth, err)
	}
	if cfg.Thresholds.Lower, err = cast.ToFloat64E(a.v.Get(keyLowerAF)); err != nil {
		return cfg, gvcferr.Configurationf("%s: %v", keyLowerAF, err)
	}
	if cfg.Thresholds.Upper, err = cast.ToFloat64E(a.v.Get(keyUpperAF)); err != nil {
		return cfg, gvcferr.Configurationf("%s: %v", keyUpperAF, err)
	}
	return cfg, nil
}
