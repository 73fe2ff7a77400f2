// Command tinyjs runs programs written in a small JavaScript subset.
//
// Usage:
//
//	tinyjs help                             Print usage
//	tinyjs run    [flags] <file>            Run a source file
//	tinyjs repl   [flags]                   Start interactive REPL
//	tinyjs tokens [flags] <file> [--json]   Print tokens
//	tinyjs parse  [flags] <file>            Print AST as JSON
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"tinyjs/internal/config"
	"tinyjs/internal/diag"
	"tinyjs/internal/lexer"
	"tinyjs/internal/parser"
	"tinyjs/internal/runtime"

	"fortio.org/log"
)

// Exit codes.
const (
	exitOK     = 0
	exitUsage  = 1
	exitSyntax = 2
	exitEval   = 3
)

func main() {
	log.SetDefaultsForClientTools()
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}

	switch args[0] {
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return exitOK
	case "run":
		return cmdRun(args[1:], stdout, stderr)
	case "repl":
		return cmdRepl(args[1:], stdin, stdout, stderr)
	case "tokens":
		return cmdTokens(args[1:], stdout, stderr)
	case "parse":
		return cmdParse(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "error: unknown command %q\n", args[0])
		usage(stderr)
		return exitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tinyjs help                             Print this help")
	fmt.Fprintln(w, "  tinyjs run    [flags] <file>            Run a source file")
	fmt.Fprintln(w, "  tinyjs repl   [flags]                   Start interactive REPL")
	fmt.Fprintln(w, "  tinyjs tokens [flags] <file> [--json]   Tokenize and print tokens")
	fmt.Fprintln(w, "  tinyjs parse  [flags] <file>            Parse and print AST (JSON)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>       YAML config file (default $"+config.EnvVar+" or ./"+config.DefaultFile+")")
	fmt.Fprintln(w, "  -loglevel <level>    debug, verbose, info, warning or error")
	fmt.Fprintln(w, "  -max-steps <n>       statement budget per evaluation, 0 for unlimited")
	fmt.Fprintln(w, "  -max-loop <n>        iteration cap per loop, 0 for unlimited")
	fmt.Fprintln(w, "  -timeout <duration>  wall-clock limit per evaluation, e.g. 2s")
	fmt.Fprintln(w, "  -strict-division     fail on division by zero instead of Infinity/NaN")
}

// ---- settings ----

// settings is the resolved configuration of one sub-command invocation.
type settings struct {
	cfg  *config.Config
	args []string // positional arguments
	json bool
}

// loadSettings parses the sub-command flags, resolves the config file and
// applies flag overrides and the log level. On failure it returns nil and
// the exit code to use.
func loadSettings(name string, args []string, stderr io.Writer) (*settings, int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file")
	logLevel := fs.String("loglevel", "", "log level")
	maxSteps := fs.Int("max-steps", 0, "statement budget per evaluation")
	maxLoop := fs.Int("max-loop", 0, "iteration cap per loop")
	timeout := fs.Duration("timeout", 0, "wall-clock limit per evaluation")
	strict := fs.Bool("strict-division", false, "fail on division by zero")
	jsonOut := fs.Bool("json", false, "JSON output (tokens)")
	if err := fs.Parse(args); err != nil {
		return nil, exitUsage
	}

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return nil, exitUsage
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "loglevel":
			cfg.LogLevel = *logLevel
		case "max-steps":
			cfg.MaxSteps = *maxSteps
		case "max-loop":
			cfg.MaxLoopIterations = *maxLoop
		case "timeout":
			cfg.Timeout = config.Duration(*timeout)
		case "strict-division":
			cfg.StrictDivision = *strict
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return nil, exitUsage
	}
	if err := log.SetLogLevelStr(cfg.LogLevel); err != nil {
		fmt.Fprintf(stderr, "error: invalid log level %q\n", cfg.LogLevel)
		return nil, exitUsage
	}

	s := &settings{cfg: cfg, json: *jsonOut}
	for _, a := range fs.Args() {
		if a == "--json" || a == "-json" {
			s.json = true
			continue
		}
		s.args = append(s.args, a)
	}
	return s, exitOK
}

// interpreterOptions maps config values onto runtime options.
func interpreterOptions(cfg *config.Config) []runtime.Option {
	return []runtime.Option{
		runtime.WithLoopLimit(cfg.MaxLoopIterations),
		runtime.WithStepBudget(cfg.MaxSteps),
		runtime.WithStrictDivision(cfg.StrictDivision),
		runtime.WithDeclarationMirroring(cfg.MirrorDeclarations),
	}
}

// evalContext bounds one evaluation by the configured timeout.
func evalContext(parent context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	if d := cfg.Timeout.Std(); d > 0 {
		return context.WithTimeout(parent, d)
	}
	return context.WithCancel(parent)
}

// fileArg reads the single file argument of a sub-command.
func fileArg(name string, s *settings, stderr io.Writer) (filename, source string, ok bool) {
	if len(s.args) != 1 {
		fmt.Fprintf(stderr, "error: %s expects exactly one file argument\n", name)
		return "", "", false
	}
	filename = s.args[0]
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(stderr, "error: cannot read file %s: %v\n", filename, err)
		return "", "", false
	}
	if !utf8.Valid(data) {
		fmt.Fprintf(stderr, "error: %s is not valid UTF-8\n", filename)
		return "", "", false
	}
	return filename, string(data), true
}

// ---- run command ----

func cmdRun(args []string, stdout, stderr io.Writer) int {
	s, code := loadSettings("run", args, stderr)
	if s == nil {
		return code
	}
	filename, source, ok := fileArg("run", s, stderr)
	if !ok {
		return exitUsage
	}

	prog, err := parser.Parse(source, filename)
	if err != nil {
		printSyntaxError(stderr, err)
		return exitSyntax
	}

	interp := runtime.NewInterpreter(stdout, interpreterOptions(s.cfg)...)
	ctx, cancel := evalContext(context.Background(), s.cfg)
	defer cancel()

	start := time.Now()
	result, err := interp.RunContext(ctx, prog)
	log.LogVf("ran %s in %v", filename, time.Since(start))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitEval
	}
	printResult(stdout, result, false)
	return exitOK
}

// ---- tokens command ----

func cmdTokens(args []string, stdout, stderr io.Writer) int {
	s, code := loadSettings("tokens", args, stderr)
	if s == nil {
		return code
	}
	filename, source, ok := fileArg("tokens", s, stderr)
	if !ok {
		return exitUsage
	}

	tokens, diags := lexer.New(source, filename).Tokenize()
	if s.json {
		if err := printTokensJSON(stdout, tokens, diags); err != nil {
			log.Errf("JSON encoding failed: %v", err)
			return exitUsage
		}
	} else {
		printTokensText(stdout, tokens)
		printDiagsText(stderr, diags)
	}

	if len(diags) > 0 {
		return exitSyntax
	}
	return exitOK
}

// ---- parse command ----

func cmdParse(args []string, stdout, stderr io.Writer) int {
	s, code := loadSettings("parse", args, stderr)
	if s == nil {
		return code
	}
	filename, source, ok := fileArg("parse", s, stderr)
	if !ok {
		return exitUsage
	}

	tokens, lexDiags := lexer.New(source, filename).Tokenize()
	prog, parseDiags := parser.New(tokens).ParseProgram()
	allDiags := append(lexDiags, parseDiags...)

	output := map[string]interface{}{
		"ast":         astToMap(prog),
		"diagnostics": diagsToSlice(allDiags),
	}
	if err := printJSON(stdout, output); err != nil {
		log.Errf("JSON encoding failed: %v", err)
		return exitUsage
	}

	if len(allDiags) > 0 {
		return exitSyntax
	}
	return exitOK
}

// printSyntaxError prints the one-line summary of a lex or parse failure;
// the full diagnostic list goes to the verbose log.
func printSyntaxError(w io.Writer, err error) {
	fmt.Fprintln(w, err)
	if list, ok := err.(*diag.List); ok && len(list.Diags) > 1 {
		log.LogVf("all diagnostics:\n%s", list.Lines())
	}
}
