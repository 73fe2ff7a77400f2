package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"tinyjs/internal/ast"
	"tinyjs/internal/config"
	"tinyjs/internal/diag"
	"tinyjs/internal/parser"
	"tinyjs/internal/runtime"

	"fortio.org/log"
	"github.com/chzyer/readline"
)

// ---- ANSI colors ----

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// lineReader is the part of *readline.Instance the session uses.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// ---- repl command ----

func cmdRepl(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	s, code := loadSettings("repl", args, stderr)
	if s == nil {
		return code
	}
	if len(s.args) > 0 {
		fmt.Fprintf(stderr, "error: repl takes no file arguments\n")
		return exitUsage
	}

	session := newReplSession(s.cfg, stdout, stderr)
	session.color = readline.IsTerminal(int(os.Stdout.Fd()))

	in, ok := stdin.(io.ReadCloser)
	if !ok {
		in = io.NopCloser(stdin)
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            session.prompt(),
		HistoryFile:       historyFile(s.cfg.HistoryFile),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		AutoComplete:      readline.NewPrefixCompleter(readline.PcItemDynamic(session.globalNames)),
		Stdin:             in,
		Stdout:            stdout,
		Stderr:            stderr,
	})
	if err != nil {
		fmt.Fprintf(stderr, "readline init failed: %v\n", err)
		return exitUsage
	}
	defer rl.Close()

	fmt.Fprintf(stdout, "%s %s\n\n",
		session.paint(colorBold+colorCyan, "tinyjs REPL"),
		session.paint(colorGray, "(type 'exit' or Ctrl+D to quit, '.help' for help)"))
	session.loop(rl)
	return exitOK
}

// historyFile returns path when it can be opened for appending, or "" to
// run without history.
func historyFile(path string) string {
	if path == "" {
		return ""
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		log.Warnf("History disabled, cannot use %s: %v", path, err)
		return ""
	}
	f.Close()
	return path
}

// replSession holds the interpreter state that survives between inputs.
type replSession struct {
	interp *runtime.Interpreter
	cfg    *config.Config
	out    io.Writer
	errOut io.Writer
	color  bool
}

func newReplSession(cfg *config.Config, out, errOut io.Writer) *replSession {
	return &replSession{
		interp: runtime.NewInterpreter(out, interpreterOptions(cfg)...),
		cfg:    cfg,
		out:    out,
		errOut: errOut,
	}
}

func (s *replSession) paint(color, text string) string {
	if !s.color {
		return text
	}
	return color + text + colorReset
}

func (s *replSession) prompt() string {
	return s.paint(colorGreen, s.cfg.Prompt)
}

// globalNames feeds tab completion.
func (s *replSession) globalNames(string) []string {
	names := s.interp.Global().Keys()
	sort.Strings(names)
	return names
}

// loop reads inputs until exit or EOF. Lines are accumulated while the
// parser reports the input as incomplete.
func (s *replSession) loop(r lineReader) {
	var pending strings.Builder

	for {
		if pending.Len() > 0 {
			r.SetPrompt(s.paint(colorGray, s.cfg.ContinuationPrompt))
		} else {
			r.SetPrompt(s.prompt())
		}

		line, err := r.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if pending.Len() > 0 {
					pending.Reset()
					continue
				}
				fmt.Fprintf(s.out, "%s\n", s.paint(colorGray, "(use 'exit' or Ctrl+D to quit)"))
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
			} else {
				log.Errf("read failed: %v", err)
			}
			return
		}

		if pending.Len() == 0 {
			switch strings.TrimSpace(line) {
			case "":
				continue
			case "exit", ".exit":
				return
			case ".help":
				s.help()
				continue
			}
		}

		pending.WriteString(line)
		pending.WriteString("\n")

		prog, err := parser.Parse(pending.String(), "<repl>")
		if err != nil {
			if parser.IsIncomplete(err) {
				continue
			}
			pending.Reset()
			s.printSyntaxError(err)
			continue
		}
		pending.Reset()
		s.eval(prog)
	}
}

// eval runs one input. Ctrl+C while it runs cancels the evaluation and
// leaves the session alive.
func (s *replSession) eval(prog *ast.Program) {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := evalContext(sigCtx, s.cfg)
	defer cancel()

	result, err := s.interp.RunContext(ctx, prog)
	if err != nil {
		fmt.Fprintln(s.errOut, s.paint(colorRed, err.Error()))
		return
	}
	printResult(s.out, result, s.cfg.ShowUndefined)
}

func (s *replSession) printSyntaxError(err error) {
	var list *diag.List
	if !errors.As(err, &list) {
		fmt.Fprintln(s.errOut, s.paint(colorRed, err.Error()))
		return
	}
	for _, d := range list.Diags {
		fmt.Fprintln(s.errOut, s.paint(colorRed, d.String()))
	}
}

func (s *replSession) help() {
	fmt.Fprintln(s.out, "Enter statements to evaluate them. Unfinished input continues on the next line.")
	fmt.Fprintln(s.out, "  .help        show this help")
	fmt.Fprintln(s.out, "  exit, .exit  leave the REPL")
	fmt.Fprintln(s.out, "  Ctrl+C       cancel the current input or evaluation")
}
