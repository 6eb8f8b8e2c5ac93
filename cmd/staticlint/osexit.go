package main

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// exitFuncs функции, завершающие процесс в обход отложенных вызовов
var exitFuncs = map[string]map[string]bool{
	"os":  {"Exit": true},
	"log": {"Fatal": true, "Fatalf": true, "Fatalln": true},
}

// OsExitAnalyzer запрещает прямой вызов os.Exit и log.Fatal* в функции main пакета main.
// Такие вызовы пропускают defer: логгер не синхронизируется, сервер не останавливается.
var OsExitAnalyzer = &analysis.Analyzer{
	Name:     "osexit",
	Doc:      "prohibits direct calls to os.Exit and log.Fatal in main function of main package",
	Run:      runOsExitCheck,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
}

func runOsExitCheck(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}

	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.FuncDecl)(nil),
	}

	insp.Preorder(nodeFilter, func(node ast.Node) {
		funcDecl := node.(*ast.FuncDecl)
		if funcDecl.Name.Name != "main" || funcDecl.Recv != nil || funcDecl.Body == nil {
			return
		}

		ast.Inspect(funcDecl.Body, func(n ast.Node) bool {
			// Вызовы внутри замыканий выполняются не в main
			if _, ok := n.(*ast.FuncLit); ok {
				return false
			}

			callExpr, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			if pkg, name, ok := calledPackageFunc(pass, callExpr); ok && exitFuncs[pkg][name] {
				pass.Reportf(callExpr.Pos(), "avoid direct %s.%s call in main function of main package", pkg, name)
			}
			return true
		})
	})

	return nil, nil
}

// calledPackageFunc возвращает путь пакета и имя функции для вызова вида pkg.Func
func calledPackageFunc(pass *analysis.Pass, call *ast.CallExpr) (string, string, bool) {
	selExpr, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return "", "", false
	}
	ident, ok := selExpr.X.(*ast.Ident)
	if !ok {
		return "", "", false
	}
	pkgName, ok := pass.TypesInfo.Uses[ident].(*types.PkgName)
	if !ok {
		return "", "", false
	}
	return pkgName.Imported().Path(), selExpr.Sel.Name, true
}
