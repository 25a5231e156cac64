// Command bisbm fits a bipartite degree-corrected stochastic block model to
// a graph file and prints the best score and the group of every vertex.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/bisbm-service/pkg/bisbm"
	"github.com/gilchrisn/bisbm-service/pkg/graph"
	"github.com/gilchrisn/bisbm-service/pkg/parser"
)

// Exit codes
const (
	exitOK = iota
	exitWrongArgumentCount
	exitUnknownGraphType
	exitBadFile
	exitGraphReadFailed
	exitNotBipartite
	exitInvalidArgument
	exitRunFailed
)

// exitError carries the process exit code of a failed invocation
type exitError struct {
	code  int
	usage bool
	err   error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func fail(code int, err error) error {
	return &exitError{code: code, err: err}
}

func failWithUsage(code int, err error) error {
	return &exitError{code: code, usage: true, err: err}
}

// options are the flags layered over the configuration file
type options struct {
	configFile   string
	outputFormat string
	outputFile   string
	seed         int64
	scoring      string
	logLevel     string
	trackMoves   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if !errors.As(err, &ee) {
		// flag parsing errors
		ee = &exitError{code: exitInvalidArgument, usage: true, err: err}
	}
	fmt.Fprintf(stderr, "Error: %v\n", ee.err)
	if ee.usage {
		fmt.Fprint(stderr, cmd.UsageString())
	}
	return ee.code
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "bisbm <graph type> <path to graph> <K_a> <K_b> <max iterations>",
		Short: "Fit a bipartite degree-corrected stochastic block model",
		Long: fmt.Sprintf(`Partitions the two vertex types of a bipartite graph into K_a and K_b groups
by greedy sweeps that maximize the degree-corrected SBM log-likelihood.

Graph types: %s
Settings are read from the file named by --config or BISBM_CONFIG, then from
BISBM_* environment variables, then from flags.`, strings.Join(parser.Formats(), ", ")),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 5 {
				return failWithUsage(exitWrongArgumentCount, fmt.Errorf("expected 5 arguments, got %d", len(args)))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return optimize(cmd, args, opts, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return failWithUsage(exitInvalidArgument, err)
	})

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", os.Getenv("BISBM_CONFIG"), "configuration file (yaml, json or toml)")
	flags.StringVarP(&opts.outputFormat, "format", "f", "", "output format: text, text-verbose or json")
	flags.StringVarP(&opts.outputFile, "output", "o", "", "write the result to this file instead of stdout")
	flags.Int64Var(&opts.seed, "seed", -1, "random seed for the initial partition; negative uses the clock")
	flags.StringVar(&opts.scoring, "scoring", "", "switch scoring strategy: full or incremental")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	flags.StringVar(&opts.trackMoves, "track-moves", "", "write every committed switch to this JSON-lines file")

	return cmd
}

func optimize(cmd *cobra.Command, args []string, opts *options, stdout, stderr io.Writer) error {
	format, path := args[0], args[1]

	if !parser.Supported(format) {
		return failWithUsage(exitUnknownGraphType, fmt.Errorf("%w %q", parser.ErrUnknownFormat, format))
	}

	a, errA := strconv.Atoi(args[2])
	b, errB := strconv.Atoi(args[3])
	maxIters, errIters := strconv.Atoi(args[4])
	if errA != nil || errB != nil || errIters != nil || a <= 0 || b <= 0 || maxIters < 0 {
		return failWithUsage(exitInvalidArgument,
			fmt.Errorf("invalid numeric argument: K_a=%q K_b=%q max iterations=%q", args[2], args[3], args[4]))
	}

	config, err := buildConfig(cmd, opts)
	if err != nil {
		return fail(exitRunFailed, err)
	}
	config.Set("algorithm.groups_a", a)
	config.Set("algorithm.groups_b", b)
	config.Set("algorithm.max_iterations", maxIters)
	if config.RandomSeed() < 0 {
		config.Set("algorithm.random_seed", time.Now().UnixNano())
	}

	logger := config.CreateLoggerTo(stderr)

	g, err := parser.LoadFile(format, path)
	switch {
	case errors.Is(err, parser.ErrBadFile):
		return fail(exitBadFile, err)
	case err != nil:
		return fail(exitGraphReadFailed, err)
	}

	bg, err := graph.NewBipartite(g)
	if err != nil {
		return fail(exitNotBipartite, fmt.Errorf("%s: %w", path, err))
	}

	zeros, ones := bg.CountTypes()
	logger.Info().
		Str("path", path).
		Int("nodes", bg.NumNodes()).
		Int("edges", bg.NumEdges).
		Int("type_zero", zeros).
		Int("type_one", ones).
		Int64("seed", config.RandomSeed()).
		Msg("Graph loaded")

	writer, err := bisbm.NewOutputWriter(config.OutputFormat())
	if err != nil {
		return fail(exitRunFailed, err)
	}

	result, err := bisbm.Run(cmd.Context(), bg, config)
	if err != nil {
		return fail(exitRunFailed, err)
	}

	if outputFile := config.OutputFile(); outputFile != "" {
		file, err := os.Create(outputFile)
		if err != nil {
			return fail(exitRunFailed, err)
		}
		if err := writer.Write(file, result); err != nil {
			file.Close()
			return fail(exitRunFailed, err)
		}
		if err := file.Close(); err != nil {
			return fail(exitRunFailed, err)
		}
		return nil
	}

	if err := writer.Write(stdout, result); err != nil {
		return fail(exitRunFailed, err)
	}
	return nil
}

// buildConfig layers the config file and the explicitly set flags over the
// defaults and environment
func buildConfig(cmd *cobra.Command, opts *options) (*bisbm.Config, error) {
	config := bisbm.NewConfig()
	if opts.configFile != "" {
		if err := config.LoadFromFile(opts.configFile); err != nil {
			return nil, fmt.Errorf("load config %s: %w", opts.configFile, err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		config.Set("output.format", opts.outputFormat)
	}
	if flags.Changed("output") {
		config.Set("output.file", opts.outputFile)
	}
	if flags.Changed("seed") {
		config.Set("algorithm.random_seed", opts.seed)
	}
	if flags.Changed("scoring") {
		config.Set("algorithm.scoring", opts.scoring)
	}
	if flags.Changed("log-level") {
		config.Set("logging.level", opts.logLevel)
	}
	if flags.Changed("track-moves") {
		config.Set("analysis.track_moves", true)
		config.Set("analysis.output_file", opts.trackMoves)
	}
	return config, nil
}
