package ast

import (
	"tinyjs/internal/span"
)

// NodeToMap converts an AST node to a map suitable for JSON serialization.
// Every node carries a "kind" field naming its Go type.
func NodeToMap(node Node) map[string]interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *Program:
		return m("Program", n.Span, "body", stmtSlice(n.Body))

	// ---- Expressions ----
	case *Literal:
		return m("Literal", n.Span, "type", n.Kind.String(), "raw", n.Raw)
	case *IdentExpr:
		return m("IdentExpr", n.Span, "name", n.Name)
	case *ThisExpr:
		return m("ThisExpr", n.Span)
	case *UnaryExpr:
		return m("UnaryExpr", n.Span, "op", n.Op.String(), "operand", NodeToMap(n.Operand))
	case *BinaryExpr:
		return m("BinaryExpr", n.Span,
			"op", n.Op.String(),
			"left", NodeToMap(n.Left),
			"right", NodeToMap(n.Right))
	case *UpdateExpr:
		return m("UpdateExpr", n.Span,
			"op", n.Op.String(),
			"prefix", n.Prefix,
			"target", NodeToMap(n.Target))
	case *AssignExpr:
		return m("AssignExpr", n.Span,
			"op", n.Op.String(),
			"target", NodeToMap(n.Target),
			"value", NodeToMap(n.Value))
	case *CallExpr:
		return m("CallExpr", n.Span,
			"callee", NodeToMap(n.Callee),
			"args", exprSlice(n.Args))
	case *MemberExpr:
		return m("MemberExpr", n.Span,
			"object", NodeToMap(n.Object),
			"property", n.Property)
	case *IndexExpr:
		return m("IndexExpr", n.Span,
			"object", NodeToMap(n.Object),
			"index", NodeToMap(n.Index))
	case *FuncExpr:
		return m("FuncExpr", n.Span, "name", n.Name, "params", params(n.Params), "body", stmtSlice(n.Body))
	case *TernaryExpr:
		return m("TernaryExpr", n.Span,
			"condition", NodeToMap(n.Condition),
			"then", NodeToMap(n.Then),
			"else", NodeToMap(n.Else))
	case *ArrayLiteral:
		return m("ArrayLiteral", n.Span, "elements", exprSlice(n.Elements))
	case *ObjectLiteral:
		props := make([]interface{}, len(n.Keys))
		for i, k := range n.Keys {
			props[i] = map[string]interface{}{"key": k, "value": NodeToMap(n.Values[i])}
		}
		return m("ObjectLiteral", n.Span, "properties", props)

	// ---- Statements ----
	case *ExprStmt:
		return m("ExprStmt", n.Span, "expr", NodeToMap(n.Expr))
	case *VarDeclStmt:
		decls := make([]interface{}, len(n.Declarators))
		for i, d := range n.Declarators {
			dm := map[string]interface{}{
				"kind": "Declarator",
				"span": spanToMap(d.Span),
				"name": d.Name,
			}
			if d.Init != nil {
				dm["init"] = NodeToMap(d.Init)
			}
			decls[i] = dm
		}
		return m("VarDeclStmt", n.Span, "declKind", n.Kind.String(), "declarators", decls)
	case *BlockStmt:
		return m("BlockStmt", n.Span, "stmts", stmtSlice(n.Stmts))
	case *IfStmt:
		result := m("IfStmt", n.Span,
			"condition", NodeToMap(n.Condition),
			"then", NodeToMap(n.Then))
		if n.Else != nil {
			result["else"] = NodeToMap(n.Else)
		}
		return result
	case *WhileStmt:
		return m("WhileStmt", n.Span,
			"condition", NodeToMap(n.Condition),
			"body", NodeToMap(n.Body))
	case *ForStmt:
		result := m("ForStmt", n.Span, "body", NodeToMap(n.Body))
		if n.Init != nil {
			result["init"] = NodeToMap(n.Init)
		}
		if n.Condition != nil {
			result["condition"] = NodeToMap(n.Condition)
		}
		if n.Update != nil {
			result["update"] = NodeToMap(n.Update)
		}
		return result
	case *FuncDecl:
		return m("FuncDecl", n.Span,
			"name", n.Name,
			"params", params(n.Params),
			"body", stmtSlice(n.Body))
	case *ReturnStmt:
		result := m("ReturnStmt", n.Span)
		if n.Value != nil {
			result["value"] = NodeToMap(n.Value)
		}
		return result
	case *BreakStmt:
		return m("BreakStmt", n.Span)
	case *ContinueStmt:
		return m("ContinueStmt", n.Span)
	case *EmptyStmt:
		return m("EmptyStmt", n.Span)

	default:
		return map[string]interface{}{"kind": "Unknown"}
	}
}

// ---- helpers ----

// m builds a map with kind, span, and extra key-value pairs.
func m(kind string, s span.Span, kvs ...interface{}) map[string]interface{} {
	result := map[string]interface{}{
		"kind": kind,
		"span": spanToMap(s),
	}
	for i := 0; i+1 < len(kvs); i += 2 {
		key := kvs[i].(string)
		result[key] = kvs[i+1]
	}
	return result
}

func spanToMap(s span.Span) map[string]interface{} {
	return map[string]interface{}{
		"start": map[string]interface{}{
			"offset": s.Start.Offset,
			"line":   s.Start.Line,
			"column": s.Start.Column,
		},
		"end": map[string]interface{}{
			"offset": s.End.Offset,
			"line":   s.End.Line,
			"column": s.End.Column,
		},
	}
}

func stmtSlice(stmts []Stmt) []interface{} {
	result := make([]interface{}, len(stmts))
	for i, s := range stmts {
		result[i] = NodeToMap(s)
	}
	return result
}

func exprSlice(exprs []Expr) []interface{} {
	result := make([]interface{}, len(exprs))
	for i, e := range exprs {
		result[i] = NodeToMap(e)
	}
	return result
}

// params keeps an empty parameter list as [] rather than null in JSON.
func params(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
