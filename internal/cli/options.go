// Package cli declares the command-line flags and validates them.
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"mlst/internal/blast"
	"mlst/internal/config"
	"mlst/internal/source"
	"mlst/internal/typing"
	"mlst/internal/writers"
)

// Flag names that are also configurable from the environment.
const (
	FlagMinIdentity   = "min-identity"
	FlagBadIdentity   = "bad-identity"
	FlagMaxBadAlleles = "max-bad-alleles"
	FlagScoreMargin   = "score-margin"
	FlagSelection     = "selection"
	FlagOutput        = "output"
	FlagDB            = "db"
	FlagMetricsFile   = "metrics-file"
)

// Options holds all CLI flags and arguments.
type Options struct {
	// Inputs
	Alignments   string
	LocusSchemes string
	Profiles     string
	EnvFile      string

	// Thresholds
	MinIdentity   float64
	BadIdentity   float64
	MaxBadAlleles int
	ScoreMargin   float64
	Selection     string

	// Output
	Output   string
	NoHeader bool
	Sample   string

	// Side outputs
	DB          string
	MetricsFile string

	NoMatchExitCode int
	Quiet           bool
	Verbose         bool
}

// Register binds the typing flags to opt. Defaults are the built-in ones;
// Merge layers the resolved configuration under any flag left unset.
func Register(fs *pflag.FlagSet, opt *Options) {
	def := config.Defaults()
	fs.SortFlags = false

	fs.Float64Var(&opt.MinIdentity, FlagMinIdentity, def.MinIdentity, "drop a locus whose best hit identity is at or below this")
	fs.Float64Var(&opt.BadIdentity, FlagBadIdentity, def.BadIdentity, "alleles below this identity count as bad")
	fs.IntVar(&opt.MaxBadAlleles, FlagMaxBadAlleles, def.MaxBadAlleles, "reject a scheme with more bad alleles than this")
	fs.Float64Var(&opt.ScoreMargin, FlagScoreMargin, def.ScoreMargin, "withhold schemes scoring more than this below the best (negative = report all)")
	fs.StringVar(&opt.Selection, FlagSelection, def.Selection, "representative hit per locus: quality | first")

	fs.StringVarP(&opt.Output, FlagOutput, "o", def.Output, "output format: "+strings.Join(writers.Formats(), " | "))
	fs.BoolVar(&opt.NoHeader, "no-header", false, "suppress the header line before each scheme block (text)")
	fs.StringVar(&opt.Sample, "sample", "", "sample name recorded in JSON output and history (default: alignment file name)")

	fs.StringVar(&opt.DB, FlagDB, "", "record the run in this history database (sqlite path or postgres:// url)")
	fs.StringVar(&opt.MetricsFile, FlagMetricsFile, "", "write run metrics in Prometheus textfile format")

	fs.IntVar(&opt.NoMatchExitCode, "no-match-exit-code", 0, "exit code when no sequence type is found")
	fs.BoolVarP(&opt.Quiet, "quiet", "q", false, "log errors only")
	fs.BoolVar(&opt.Verbose, "verbose", false, "log debug records")
	fs.StringVar(&opt.EnvFile, "env-file", "", "read defaults from this dotenv file (default: $"+config.EnvFile+" or ./"+config.DefaultEnvFile+")")
}

// Merge fills every configurable flag the user did not set from cfg.
func (o *Options) Merge(fs *pflag.FlagSet, cfg config.Config) {
	set := func(name string, apply func()) {
		if !fs.Changed(name) {
			apply()
		}
	}
	set(FlagMinIdentity, func() { o.MinIdentity = cfg.MinIdentity })
	set(FlagBadIdentity, func() { o.BadIdentity = cfg.BadIdentity })
	set(FlagMaxBadAlleles, func() { o.MaxBadAlleles = cfg.MaxBadAlleles })
	set(FlagScoreMargin, func() { o.ScoreMargin = cfg.ScoreMargin })
	set(FlagSelection, func() { o.Selection = cfg.Selection })
	set(FlagOutput, func() { o.Output = cfg.Output })
	set(FlagDB, func() { o.DB = cfg.DB })
	set(FlagMetricsFile, func() { o.MetricsFile = cfg.MetricsFile })
}

// SetArgs stores the three positional inputs.
func (o *Options) SetArgs(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("want 3 arguments (alignments locus_schemes profiles), got %d", len(args))
	}
	o.Alignments, o.LocusSchemes, o.Profiles = args[0], args[1], args[2]
	return nil
}

// Validate checks values after Merge.
func (o *Options) Validate() error {
	var errs []error
	if o.Alignments == "" || o.LocusSchemes == "" || o.Profiles == "" {
		errs = append(errs, errors.New("alignments, locus_schemes and profiles are required"))
	}
	if err := source.CheckStdin(o.Alignments, o.LocusSchemes, o.Profiles); err != nil {
		errs = append(errs, err)
	}
	if o.MinIdentity < 0 || o.MinIdentity > typing.PerfectScore {
		errs = append(errs, fmt.Errorf("--%s must be within 0..100", FlagMinIdentity))
	}
	if o.BadIdentity < 0 || o.BadIdentity > typing.PerfectScore {
		errs = append(errs, fmt.Errorf("--%s must be within 0..100", FlagBadIdentity))
	}
	if o.MaxBadAlleles < 0 {
		errs = append(errs, fmt.Errorf("--%s must be >= 0", FlagMaxBadAlleles))
	}
	if _, err := blast.ParseSelection(o.Selection); err != nil {
		errs = append(errs, fmt.Errorf("--%s: %w", FlagSelection, err))
	}
	if !validFormat(o.Output) {
		errs = append(errs, fmt.Errorf("invalid --%s %q", FlagOutput, o.Output))
	}
	if o.Quiet && o.Verbose {
		errs = append(errs, errors.New("--quiet conflicts with --verbose"))
	}
	if o.NoMatchExitCode < 0 || o.NoMatchExitCode > 125 {
		errs = append(errs, errors.New("--no-match-exit-code must be within 0..125"))
	}
	return errors.Join(errs...)
}

func validFormat(f string) bool {
	for _, known := range writers.Formats() {
		if f == known {
			return true
		}
	}
	return false
}

// TypingOptions converts the thresholds for the decision step.
func (o *Options) TypingOptions() typing.Options {
	return typing.Options{MaxBadAlleles: o.MaxBadAlleles, BadIdentity: o.BadIdentity, ScoreMargin: o.ScoreMargin}
}

// SelectOptions converts the ingest settings. Validate must have passed.
func (o *Options) SelectOptions() blast.SelectOptions {
	sel, _ := blast.ParseSelection(o.Selection)
	return blast.SelectOptions{MinIdentity: o.MinIdentity, Policy: sel}
}
