//go:build cgo

package compress

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
)

func init() {
	registerSyntaxValidator(languageNamePython, treeSitterValidator(python.GetLanguage()))
	registerSyntaxValidator(languageNameJavaScript, treeSitterValidator(javascript.GetLanguage()))
}

// treeSitterValidator creates a parser per call; sitter.Parser is not safe for concurrent use.
func treeSitterValidator(grammar *sitter.Language) syntaxValidator {
	return func(ctx context.Context, source []byte) error {
		parser := sitter.NewParser()
		defer parser.Close()
		parser.SetLanguage(grammar)
		tree, parseError := parser.ParseCtx(ctx, nil, source)
		if parseError != nil {
			return parseError
		}
		defer tree.Close()
		if tree.RootNode().HasError() {
			return errSyntaxInvalid
		}
		return nil
	}
}
