// Command golfc compiles programs written in the IR text notation into the
// shortest source it can find for each target language.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opal-lang/golfc/core/engine"
	"github.com/opal-lang/golfc/internal/config"
	"github.com/opal-lang/golfc/internal/irtext"
	"github.com/opal-lang/golfc/internal/languages"
)

const debugEnv = "GOLFC_DEBUG"

type options struct {
	debug   bool
	noColor bool

	config    string
	langs     []string
	scoring   string
	workers   int
	maxSteps  int
	outDir    string
	watch     bool
	telemetry bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		noColor, _ := cmd.PersistentFlags().GetBool("no-color")
		FormatError(os.Stderr, err, ShouldUseColor(noColor))
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:           "golfc",
		Short:         "Compile IR programs to golfed source in several languages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging (also "+debugEnv+"=1)")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	compile := &cobra.Command{
		Use:   "compile FILE",
		Short: "Compile a program for one or more languages",
		Long: "Compile reads a program in the IR text notation (- for stdin) and prints\n" +
			"the shortest rendering found for each selected language.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args[0], &opts)
		},
	}
	f := compile.Flags()
	f.StringVarP(&opts.config, "config", "c", "", "Configuration file (YAML or JSON)")
	f.StringSliceVarP(&opts.langs, "lang", "l", nil, "Target languages by name or extension (default all)")
	f.StringVar(&opts.scoring, "scoring", "", "Search scoring: full or emit-only")
	f.IntVar(&opts.workers, "workers", 0, "Concurrent candidate scorers")
	f.IntVar(&opts.maxSteps, "max-steps", 0, "Search expansion steps per phase")
	f.StringVarP(&opts.outDir, "out", "o", "", "Write each output to DIR/<name>.<ext> instead of stdout")
	f.BoolVarP(&opts.watch, "watch", "w", false, "Recompile whenever FILE changes")
	f.BoolVar(&opts.telemetry, "telemetry", false, "Print per-phase statistics to stderr")

	normalize := &cobra.Command{
		Use:   "normalize FILE",
		Short: "Print a program in canonical IR text form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			out, err := irtext.Normalize(src)
			if err != nil {
				return parseError(args[0], err)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}

	langs := &cobra.Command{
		Use:   "languages",
		Short: "List the supported target languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, l := range languages.All() {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-12s .%s\n", l.Name, l.Extension); err != nil {
					return err
				}
			}
			return nil
		},
	}

	root.AddCommand(compile, normalize, langs)
	return root
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug || os.Getenv(debugEnv) != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// engineConfig layers command-line flags over the configuration file.
func engineConfig(opts *options, log *slog.Logger) (engine.Config, []string, error) {
	cfg := engine.DefaultConfig()
	langs := opts.langs
	if opts.config != "" {
		file, err := config.Load(opts.config)
		if err != nil {
			return cfg, nil, &CLIError{
				Type:    "config",
				Message: "invalid configuration",
				Details: err.Error(),
				Hint:    "see internal/config/schema.json for the accepted keys",
			}
		}
		cfg = file.Engine()
		if len(langs) == 0 {
			langs = file.Languages
		}
	}
	switch opts.scoring {
	case "":
	case "full":
		cfg.Scoring = engine.ScoreFull
	case "emit-only":
		cfg.Scoring = engine.ScoreEmitOnly
	default:
		return cfg, nil, &CLIError{Type: "usage", Message: fmt.Sprintf("unknown scoring mode %q", opts.scoring), Hint: "use full or emit-only"}
	}
	if opts.workers > 0 {
		cfg.Search.Workers = opts.workers
	}
	if opts.maxSteps > 0 {
		cfg.Search.MaxSteps = opts.maxSteps
	}
	if opts.telemetry && cfg.Telemetry == engine.TelemetryOff {
		cfg.Telemetry = engine.TelemetryTiming
	}
	cfg.Logger = log
	return cfg, langs, nil
}

func runCompile(cmd *cobra.Command, file string, opts *options) error {
	log := newLogger(cmd.ErrOrStderr(), opts.debug)
	cfg, names, err := engineConfig(opts, log)
	if err != nil {
		return err
	}
	langs, err := languages.LookupAll(names)
	if err != nil {
		var unknown *languages.UnknownLanguageError
		if errors.As(err, &unknown) {
			return &CLIError{Type: "usage", Message: err.Error(), Details: "available: " + strings.Join(languages.Names(), ", ")}
		}
		return err
	}

	once := func() error {
		src, err := readSource(cmd.InOrStdin(), file)
		if err != nil {
			return err
		}
		return compileOnce(cmd, file, src, langs, cfg, opts)
	}
	if !opts.watch {
		return once()
	}
	if file == "-" {
		return &CLIError{Type: "usage", Message: "--watch needs a file, not stdin"}
	}
	return watch(cmd.Context(), file, log, func() {
		if err := once(); err != nil {
			FormatError(cmd.ErrOrStderr(), err, ShouldUseColor(opts.noColor))
		}
	})
}

func compileOnce(cmd *cobra.Command, file, src string, langs []engine.Language, cfg engine.Config, opts *options) error {
	prog, err := irtext.Parse(src)
	if err != nil {
		return parseError(file, err)
	}

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	useColor := ShouldUseColor(opts.noColor)
	failed := 0
	for _, o := range engine.CompileAll(prog, langs, cfg) {
		if o.Err != nil {
			failed++
			FormatError(stderr, o.Err, useColor)
			continue
		}
		if opts.telemetry {
			printTelemetry(stderr, o.Result)
		}
		if opts.outDir != "" {
			if err := writeOutput(opts.outDir, file, o, langs); err != nil {
				return err
			}
			continue
		}
		if len(langs) == 1 {
			fmt.Fprintln(stdout, o.Result.Output)
			continue
		}
		header := fmt.Sprintf("%s (%d chars)", o.Language, len([]rune(o.Result.Output)))
		fmt.Fprintf(stdout, "%s\n%s\n\n", Colorize(header, ColorCyan, useColor), o.Result.Output)
	}
	if failed > 0 {
		return &CLIError{Type: "compile", Message: fmt.Sprintf("%d of %d languages failed", failed, len(langs))}
	}
	return nil
}

func parseError(file string, err error) error {
	return &CLIError{Type: "parse", Message: "cannot parse " + file, Details: err.Error()}
}

func readSource(stdin io.Reader, file string) (string, error) {
	if file == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("error opening file %s: %w", file, err)
	}
	return string(data), nil
}
