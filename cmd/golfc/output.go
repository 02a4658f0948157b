package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opal-lang/golfc/core/engine"
	"github.com/opal-lang/golfc/core/plugin"
)

// writeOutput stores one language's output as DIR/<base>.<ext>, where base
// is the input file name without its extension.
func writeOutput(dir, file string, o engine.Outcome, langs []engine.Language) error {
	ext := ""
	for _, l := range langs {
		if l.Name == o.Language {
			ext = l.Extension
		}
	}
	base := "main"
	if file != "-" {
		base = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, base+"."+ext)
	if err := os.WriteFile(path, []byte(o.Result.Output), 0o644); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return nil
}

func printTelemetry(w io.Writer, res *engine.Result) {
	fmt.Fprintf(w, "%s: %d chars in %s\n", res.Language, len([]rune(res.Output)), res.CompileTime)
	if res.Telemetry == nil {
		return
	}
	for _, p := range res.Telemetry.Phases {
		fmt.Fprintf(w, "  phase %d %-10s rewrites=%d", p.Index, p.Discipline, p.Rewrites)
		if p.Discipline == plugin.Search {
			fmt.Fprintf(w, " steps=%d candidates=%d evaluations=%d", p.Steps, p.Candidates, p.Evaluations)
			if p.BudgetExceeded {
				fmt.Fprint(w, " budget-exceeded")
			}
		}
		fmt.Fprintf(w, " time=%s\n", p.Time)

		names := make([]string, 0, len(p.PluginHits))
		for name := range p.PluginHits {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "    %-32s %d\n", name, p.PluginHits[name])
		}
	}
}
