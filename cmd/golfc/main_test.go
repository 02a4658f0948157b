package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/golfc/core/engine"
	"github.com/opal-lang/golfc/core/ir"
)

const hello = `(println[Text] "Hello")`

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCompileSingleLanguage(t *testing.T) {
	out, _, err := run(t, hello, "compile", "-l", "nim", "-")
	require.NoError(t, err)
	assert.Equal(t, "echo \"Hello\"\n", out)
}

func TestCompileSeveralLanguages(t *testing.T) {
	out, _, err := run(t, hello, "compile", "-l", "js,gs", "--no-color", "-")
	require.NoError(t, err)
	assert.Equal(t, "JavaScript (14 chars)\nprint(\"Hello\")\n\nGolfScript (7 chars)\n\"Hello\"\n\n", out)
}

func TestCompileUnknownLanguage(t *testing.T) {
	_, _, err := run(t, hello, "compile", "-l", "nimm", "-")
	var cliErr *CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, "usage", cliErr.Type)
	assert.Contains(t, cliErr.Details, "GolfScript, JavaScript, Nim")
}

func TestCompileParseError(t *testing.T) {
	_, _, err := run(t, `(println[Text] "Hello"`, "compile", "-")
	var cliErr *CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, "parse", cliErr.Type)
}

func TestCompileWritesFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "hello.ir")
	require.NoError(t, os.WriteFile(src, []byte(hello), 0o644))
	out := filepath.Join(dir, "out")

	stdout, _, err := run(t, "", "compile", "-l", "nim,js", "-o", out, src)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	got, err := os.ReadFile(filepath.Join(out, "hello.nim"))
	require.NoError(t, err)
	assert.Equal(t, `echo "Hello"`, string(got))
	assert.FileExists(t, filepath.Join(out, "hello.js"))
}

func TestCompileWithConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "golfc.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("version: \"1.0\"\nlanguages: [gs]\n"), 0o644))

	out, _, err := run(t, hello, "compile", "-c", cfg, "-")
	require.NoError(t, err)
	assert.Equal(t, "\"Hello\"\n", out)

	require.NoError(t, os.WriteFile(cfg, []byte("version: \"1.0\"\nscoring: best\n"), 0o644))
	_, _, err = run(t, hello, "compile", "-c", cfg, "-")
	var cliErr *CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, "config", cliErr.Type)
}

func TestCompileTelemetry(t *testing.T) {
	_, stderr, err := run(t, hello, "compile", "-l", "nim", "--telemetry", "-")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Nim: 12 chars")
	assert.Contains(t, stderr, "phase 0 required")
}

func TestNormalize(t *testing.T) {
	out, _, err := run(t, "(println[Text]   \"Hello\")", "normalize", "-")
	require.NoError(t, err)
	assert.Equal(t, hello+";\n", out)
}

func TestLanguages(t *testing.T) {
	out, _, err := run(t, "", "languages")
	require.NoError(t, err)
	assert.Equal(t, "GolfScript   .gs\nJavaScript   .js\nNim          .nim\n", out)
}

func TestFormatError(t *testing.T) {
	var buf bytes.Buffer
	FormatError(&buf, &engine.UnsupportedConstructError{Language: "Nim", Kind: ir.KindOp, Op: "int_to_bin"}, false)
	assert.Equal(t, "Error: Nim: unsupported construct Op \"int_to_bin\"\nHint: Nim has no mapping for this construct; try another target\n", buf.String())

	buf.Reset()
	FormatError(&buf, &engine.UnsupportedConstructError{Language: "Nim", Kind: ir.KindInteger, Reason: "does not fit"}, false)
	assert.Contains(t, buf.String(), "Nim cannot represent this value exactly")

	buf.Reset()
	FormatError(&buf, &CLIError{Message: "bad", Details: "line 1\nline 2"}, false)
	assert.Equal(t, "Error: bad\n  line 1\n  line 2\n", buf.String())
}

func TestWatchRerunsOnWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "prog.ir")
	require.NoError(t, os.WriteFile(file, []byte(hello), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runs := make(chan struct{}, 8)
	done := make(chan error, 1)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	go func() {
		done <- watch(ctx, file, log, func() { runs <- struct{}{} })
	}()

	waitRun := func() {
		t.Helper()
		select {
		case <-runs:
		case <-time.After(5 * time.Second):
			t.Fatal("watch did not run")
		}
	}
	waitRun()
	require.NoError(t, os.WriteFile(file, []byte(hello+"\n"), 0o644))
	waitRun()

	cancel()
	require.NoError(t, <-done)
}
