package main

import (
	"encoding/json"
	"fmt"
	"io"

	"tinyjs/internal/ast"
	"tinyjs/internal/diag"
	"tinyjs/internal/runtime"
	"tinyjs/internal/token"
)

// ---- output helpers ----

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult echoes a program result the way a prompt shows it. Undefined
// is skipped unless showUndefined is set.
func printResult(w io.Writer, v runtime.Value, showUndefined bool) {
	if _, ok := v.(runtime.UndefinedVal); ok && !showUndefined {
		return
	}
	fmt.Fprintln(w, runtime.Inspect(v))
}

func printDiagsText(w io.Writer, diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String())
	}
}

func diagsToSlice(diags []diag.Diagnostic) []map[string]interface{} {
	result := make([]map[string]interface{}, len(diags))
	for i, d := range diags {
		result[i] = map[string]interface{}{
			"code":     d.Code,
			"severity": d.Severity.String(),
			"message":  d.Message,
			"line":     d.Span.Start.Line,
			"column":   d.Span.Start.Column,
			"offset":   d.Span.Start.Offset,
		}
		if d.Hint != "" {
			result[i]["hint"] = d.Hint
		}
	}
	return result
}

func astToMap(prog *ast.Program) map[string]interface{} {
	if prog == nil {
		return nil
	}
	return ast.NodeToMap(prog)
}

// ---- token output helpers ----

func printTokensText(w io.Writer, tokens []token.Token) {
	for _, tok := range tokens {
		lexeme := tok.Lexeme
		if tok.NewlineBefore {
			lexeme += "  (after newline)"
		}
		fmt.Fprintf(w, "%-12s %-20s %d:%d\n", tok.Kind, lexeme, tok.Span.Start.Line, tok.Span.Start.Column)
	}
}

func printTokensJSON(w io.Writer, tokens []token.Token, diags []diag.Diagnostic) error {
	type tokenJSON struct {
		Kind          string `json:"kind"`
		Lexeme        string `json:"lexeme"`
		Line          int    `json:"line"`
		Column        int    `json:"column"`
		Offset        int    `json:"offset"`
		NewlineBefore bool   `json:"newlineBefore,omitempty"`
	}

	toks := make([]tokenJSON, 0, len(tokens))
	for _, tok := range tokens {
		toks = append(toks, tokenJSON{
			Kind:          tok.Kind.String(),
			Lexeme:        tok.Lexeme,
			Line:          tok.Span.Start.Line,
			Column:        tok.Span.Start.Column,
			Offset:        tok.Span.Start.Offset,
			NewlineBefore: tok.NewlineBefore,
		})
	}

	output := map[string]interface{}{
		"tokens":      toks,
		"diagnostics": diagsToSlice(diags),
	}
	return printJSON(w, output)
}
