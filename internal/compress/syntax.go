package compress

import (
	"context"
	"errors"
	"go/parser"
	"go/token"
)

var errSyntaxInvalid = errors.New("source does not parse")

// syntaxValidator reports whether source parses for a language.
type syntaxValidator func(ctx context.Context, source []byte) error

var syntaxValidators = map[string]syntaxValidator{
	languageNameGo: validateGoSource,
}

func registerSyntaxValidator(languageName string, validator syntaxValidator) {
	syntaxValidators[languageName] = validator
}

// validateSyntax returns nil for languages without a registered validator.
func validateSyntax(ctx context.Context, lang language, source []byte) error {
	validator, known := syntaxValidators[lang.name]
	if !known {
		return nil
	}
	return validator(ctx, source)
}

func validateGoSource(_ context.Context, source []byte) error {
	if _, parseError := parser.ParseFile(token.NewFileSet(), "", source, parser.SkipObjectResolution); parseError != nil {
		return errors.Join(errSyntaxInvalid, parseError)
	}
	return nil
}
