package toon

import (
	"regexp"
	"strconv"
)

// =========================
// Value Parsing
// =========================

var (
	numberPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)
	keyPattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	lengthPattern = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)
)

// IsNumber reports whether s is a TOON number literal. Text such as "0123"
// or "12px" is not a number and parses as an unquoted string.
func IsNumber(s string) bool { return numberPattern.MatchString(s) }

// IsUnquotedKey reports whether s can be written as a key without quotes.
func IsUnquotedKey(s string) bool { return keyPattern.MatchString(s) }

// parseScalar turns a string or bare-word token into a Value. Bare words are
// tried as null, then booleans, then numbers, and otherwise kept verbatim.
func parseScalar(t token) (*Value, error) {
	ctx := ObjectContext
	if t.Kind == tokArrayWord {
		ctx = ArrayContext
	}
	v := &Value{Raw: t.Text, Context: ctx, Loc: t.Loc}

	switch t.Kind {
	case tokString:
		v.Type = Kinds.String
		v.V = t.Text
		return v, nil
	case tokWord, tokArrayWord:
	default:
		return nil, syntaxErrf(t.Loc.Start, "expected value, found %s", t.Kind)
	}

	switch {
	case t.Text == "null":
		v.Type = Kinds.Null
	case t.Text == "true" || t.Text == "false":
		v.Type = Kinds.Bool
		v.V = t.Text == "true"
	case IsNumber(t.Text):
		// Literals outside the float64 range become ±Inf; Raw keeps the text.
		f, _ := strconv.ParseFloat(t.Text, 64)
		v.Type = Kinds.Number
		v.V = f
	default:
		v.Type = Kinds.UnquotedString
		v.V = t.Text
	}
	return v, nil
}
