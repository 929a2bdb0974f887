package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseNumericLiteral converts the raw lexeme of a numeric literal (as
// captured by the scanner, e.g. "0x10", "0b10", "0o10", "1.1e2") into its
// Go value: int64 for an integer literal in any supported radix, float64
// for anything with a decimal point or exponent. It is the single source
// of truth the compiler consults when deciding between LoadNum,
// LoadLongNum, and LoadFloatNum for a literal.
func ParseNumericLiteral(text string) (any, error) {
	lower := strings.ToLower(text)
	switch {
	case strings.HasPrefix(lower, "0x"):
		v, err := strconv.ParseInt(text[2:], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid hex literal %q: %w", text, err)
		}
		return v, nil
	case strings.HasPrefix(lower, "0o"):
		v, err := strconv.ParseInt(text[2:], 8, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid octal literal %q: %w", text, err)
		}
		return v, nil
	case strings.HasPrefix(lower, "0b"):
		v, err := strconv.ParseInt(text[2:], 2, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid binary literal %q: %w", text, err)
		}
		return v, nil
	}
	if strings.ContainsAny(text, ".eE") {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float literal %q: %w", text, err)
		}
		return v, nil
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer literal %q: %w", text, err)
	}
	return v, nil
}

// FitsShortNum reports whether a numeric value can be encoded directly in
// a single-byte LoadNum operand instead of the 4-byte LoadLongNum form.
func FitsShortNum(v int64) bool {
	return v >= 0 && v <= 255
}
