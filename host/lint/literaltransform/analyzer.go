// Package literaltransform reports object placement written as literals in
// code instead of being read from the transform table.
package literaltransform

import (
	"go/ast"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

var Analyzer = &analysis.Analyzer{
	Name:     "literaltransform",
	Doc:      "report SetPosition, SetRotation and SetScale calls whose argument is a literal",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var setters = map[string]bool{
	"SetPosition": true,
	"SetRotation": true,
	"SetScale":    true,
}

func run(pass *analysis.Pass) (any, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
	}
	inspect.Preorder(nodeFilter, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		if len(call.Args) != 1 {
			return
		}
		selector, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || !setters[selector.Sel.Name] {
			return
		}
		if _, ok := pass.TypesInfo.Selections[selector]; !ok {
			return
		}
		if strings.HasSuffix(pass.Fset.Position(call.Pos()).Filename, "_test.go") {
			return
		}
		if !isLiteral(pass, call.Args[0]) {
			return
		}
		pass.Reportf(call.Pos(), "literal transform passed to %s; move it to the transform table", selector.Sel.Name)
	})
	return nil, nil
}

// isLiteral reports whether expr is built from constants only.
func isLiteral(pass *analysis.Pass, expr ast.Expr) bool {
	if tv, ok := pass.TypesInfo.Types[expr]; ok && tv.Value != nil {
		return true
	}
	switch expr := expr.(type) {
	case *ast.BasicLit:
		return true
	case *ast.ParenExpr:
		return isLiteral(pass, expr.X)
	case *ast.UnaryExpr:
		return isLiteral(pass, expr.X)
	case *ast.CompositeLit:
		if len(expr.Elts) == 0 {
			return false
		}
		for _, element := range expr.Elts {
			if kv, ok := element.(*ast.KeyValueExpr); ok {
				element = kv.Value
			}
			if !isLiteral(pass, element) {
				return false
			}
		}
		return true
	case *ast.CallExpr:
		if len(expr.Args) == 0 {
			return false
		}
		for _, arg := range expr.Args {
			if !isLiteral(pass, arg) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
