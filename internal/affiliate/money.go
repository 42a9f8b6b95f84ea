package affiliate

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseFixedPoint converts a fixed-point integer string whose last
// fracDigits digits are sub-units into an exact decimal, e.g.
// "1234567" with 4 fractional digits becomes 123.4567. The split is
// string-based so large inputs never pick up floating-point drift.
func ParseFixedPoint(s string, fracDigits int) (*big.Rat, error) {
	s = strings.TrimSpace(s)
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if s == "" {
		return nil, fmt.Errorf("ParseFixedPoint: empty input")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("ParseFixedPoint: non-digit in %q", s)
		}
	}
	// Shorter inputs than the fractional width are all sub-units.
	if len(s) <= fracDigits {
		s = strings.Repeat("0", fracDigits-len(s)+1) + s
	}
	dec := s[:len(s)-fracDigits] + "." + s[len(s)-fracDigits:]
	if neg {
		dec = "-" + dec
	}
	r, ok := new(big.Rat).SetString(dec)
	if !ok {
		return nil, fmt.Errorf("ParseFixedPoint: cannot parse %q", dec)
	}
	return r, nil
}

// ParseDecimal converts a textual decimal amount into an exact value.
// It tolerates a comma decimal separator and thousands separators, which
// several networks emit depending on account locale.
func ParseDecimal(s string) (*big.Rat, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return big.NewRat(0, 1), nil
	}
	// "1.234,56" -> "1234.56"; "1234,56" -> "1234.56"
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("ParseDecimal: cannot parse %q", s)
	}
	return r, nil
}

// FormatAmount renders an exact decimal with the given number of
// fractional digits, for logs and exports.
func FormatAmount(r *big.Rat, fracDigits int) string {
	if r == nil {
		return ""
	}
	return r.FloatString(fracDigits)
}
