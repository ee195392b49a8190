// Command minic runs the full MiniC pipeline as a stdin-to-stdout filter:
// read source, lex, parse, collect declarations, analyze, evaluate, and
// write one JSON report (spec.md §6). It always exits 0; every failure the
// pipeline can produce is reported inside the JSON document, not via the
// process exit code.
//
// Grounded on the teacher's main/main_cpq1.go: read input, run the parser,
// run the next stage, report errors, write output — the same five-step
// shape, retargeted from file-in/file-out to stdin/stdout and from ad-hoc
// stderr Fprintln to a zerolog logger on stderr (debug traces and failure
// messages).
package main

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/nof-sh/minic/internal/config"
	"github.com/nof-sh/minic/internal/decl"
	"github.com/nof-sh/minic/internal/diag"
	"github.com/nof-sh/minic/internal/eval"
	"github.com/nof-sh/minic/internal/lexer"
	"github.com/nof-sh/minic/internal/parser"
	"github.com/nof-sh/minic/internal/report"
	"github.com/nof-sh/minic/internal/sema"
	"github.com/nof-sh/minic/internal/token"
)

func main() {
	os.Exit(run())
}

func run() int {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("failed to load config from environment, using defaults")
		cfg = config.Default()
	}

	maxDepth := flag.Int("max-depth", cfg.MaxCallDepth, "maximum evaluator call-stack depth")
	flag.Parse()
	cfg.MaxCallDepth = *maxDepth

	src, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Error().Err(err).Msg("failed to read stdin")
		src = nil
	}

	out := runPipeline(src, cfg, log)
	if _, err := os.Stdout.Write(out); err != nil {
		log.Error().Err(err).Msg("failed to write report")
	}

	return 0
}

// runPipeline drives one MiniC source buffer through every phase in order
// and returns the finished JSON report. Split out from run() so tests can
// exercise the whole pipeline without going through the process's real
// stdin/stdout.
func runPipeline(src []byte, cfg config.Config, log zerolog.Logger) []byte {
	src = lexer.StripBOM(src)

	diags := diag.New()

	toks := lexer.New(src, diags, cfg.MaxTokens).Tokenize()
	program := parser.Parse(toks, diags)

	log.Debug().Int("tokens", len(toks)).Msg("lexed source")

	collected := decl.Collect(program, diags, cfg.MaxCallDepth, log)
	sema.Analyze(program, collected.Globals, collected.Functions, diags)

	if !diags.HasErrors() {
		eval.Run(program, collected.State)
	} else {
		log.Debug().Int("errors", len(diags.Errors)).Msg("evaluation skipped due to earlier errors")
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, reportableTokens(toks), program, collected.Globals, collected.Functions, diags, collected.State.Output.String()); err != nil {
		log.Error().Err(err).Msg("failed to write report")
	}
	return buf.Bytes()
}

// reportableTokens strips Tokenize's trailing synthetic EOF sentinel. EOF is
// not one of spec.md §3's token kinds; it exists only so the parser knows
// where the stream ends and must never appear in the emitted report.
func reportableTokens(toks []token.Token) []token.Token {
	if n := len(toks); n > 0 && toks[n-1].Kind == token.EOF {
		return toks[:n-1]
	}
	return toks
}
