package utility

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Declaration is a single CSS property/value pair.
type Declaration struct {
	Property string
	Value    string
}

// String renders the declaration without a trailing semicolon.
func (d Declaration) String() string {
	return d.Property + ": " + d.Value
}

// ParseDeclarations splits an inline declaration list such as
// "display: flex; gap: 1rem" into its declarations.
func ParseDeclarations(s string) ([]Declaration, error) {
	p := css.NewParser(parse.NewInputString(s), true)

	var decls []Declaration
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			err := p.Err()
			if errors.Is(err, io.EOF) {
				return decls, nil
			}
			return decls, fmt.Errorf("invalid declaration %q: %w", s, err)

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			decls = append(decls, Declaration{
				Property: string(data),
				Value:    joinValues(p.Values()),
			})
		}
	}
}

func joinValues(tokens []css.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			sb.WriteByte(' ')
			continue
		}
		sb.Write(t.Data)
	}
	return strings.TrimSpace(sb.String())
}
