// Package classes splits class attribute values into typed utility tokens.
package classes

import (
	"fmt"
	"slices"
	"strings"
)

// GlobalPrefix marks a token whose base should also be emitted as a
// global-scope rule.
const GlobalPrefix = "global:"

// AmbiguityPolicy decides what happens to a two-segment token whose first
// segment is neither a responsive nor a pseudo modifier.
type AmbiguityPolicy int

const (
	// DropUnknownPrefix discards the unrecognised segment and keeps the
	// second segment as the base.
	DropUnknownPrefix AmbiguityPolicy = iota
	// TreatAsUnknown keeps the whole token as the base so that it fails
	// resolution and is reported as unknown.
	TreatAsUnknown
)

// String returns the configuration name of the policy.
func (p AmbiguityPolicy) String() string {
	switch p {
	case TreatAsUnknown:
		return "unknown"
	default:
		return "drop"
	}
}

// ParseAmbiguityPolicy accepts "drop" (or empty) and "unknown".
func ParseAmbiguityPolicy(s string) (AmbiguityPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return DropUnknownPrefix, nil
	case "unknown":
		return TreatAsUnknown, nil
	default:
		return DropUnknownPrefix, fmt.Errorf("unknown ambiguity policy %q", s)
	}
}

// Modifiers holds the prefixes recognised as responsive breakpoints and as
// pseudo-class states.
type Modifiers struct {
	Responsive []string
	Pseudo     []string
}

// DefaultModifiers returns the breakpoint and state prefixes shared by both
// supported frameworks.
func DefaultModifiers() Modifiers {
	return Modifiers{
		Responsive: []string{"sm", "md", "lg", "xl", "2xl"},
		Pseudo:     []string{"hover", "focus", "active", "disabled", "visited"},
	}
}

// Token is one utility class from a class attribute.
type Token struct {
	// Raw is the token exactly as written, including any global: prefix.
	Raw string
	// Original is Raw without the global: prefix.
	Original   string
	Base       string
	Responsive string
	Pseudo     string
	Global     bool
	// Malformed is set when the token could not be split into a valid
	// modifier/base combination.
	Malformed bool
}

// Split splits an attribute value on whitespace, dropping empty pieces.
func Split(attr string) []string {
	return strings.Fields(attr)
}

// Parse classifies a single raw token.
func Parse(raw string, mods Modifiers, policy AmbiguityPolicy) Token {
	tok := Token{Raw: raw}

	s := raw
	if rest, ok := strings.CutPrefix(s, GlobalPrefix); ok {
		tok.Global = true
		s = rest
	}
	tok.Original = s

	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		tok.Base = parts[0]
	case 2:
		switch {
		case slices.Contains(mods.Responsive, parts[0]):
			tok.Responsive = parts[0]
			tok.Base = parts[1]
		case slices.Contains(mods.Pseudo, parts[0]):
			tok.Pseudo = parts[0]
			tok.Base = parts[1]
		case policy == TreatAsUnknown:
			tok.Base = s
			tok.Malformed = true
		default:
			tok.Base = parts[1]
		}
	case 3:
		tok.Responsive = parts[0]
		tok.Pseudo = parts[1]
		tok.Base = parts[2]
	default:
		tok.Base = s
		tok.Malformed = true
	}

	return tok
}

// ParseAll splits attr and parses every piece in order.
func ParseAll(attr string, mods Modifiers, policy AmbiguityPolicy) []Token {
	fields := Split(attr)
	tokens := make([]Token, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, Parse(f, mods, policy))
	}
	return tokens
}

// HasModifiers reports whether the token carries a responsive or pseudo prefix.
func (t Token) HasModifiers() bool {
	return t.Responsive != "" || t.Pseudo != ""
}
