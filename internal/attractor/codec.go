package attractor

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/attractor/internal/kernel"
)

// FieldWidth is the width of one encoded coefficient, "% 1.3f ".
const FieldWidth = 7

// MaxCoef bounds the magnitude a field can hold.
const MaxCoef = 10.0

// Format encodes the used coefficients of cfg, all x-axis values first.
func Format(cfg Config) string {
	rows := cfg.Rows()
	var sb strings.Builder
	sb.Grow(2 * rows * FieldWidth)
	for i := 0; i < 2; i++ {
		for j := 0; j < rows; j++ {
			fmt.Fprintf(&sb, "% 1.3f ", cfg.Coef[j][i])
		}
	}
	return sb.String()
}

// ParseCoef decodes one line of the text encoding. A trailing "# ..."
// comment is ignored. Fields are split on white space rather than read at
// fixed offsets, so hand-aligned lines and shorter decimals such as "0.9"
// are accepted; each field must still be a plain decimal with an optional
// leading minus.
func ParseCoef(s string, f kernel.Family) (kernel.Coef, error) {
	var coef kernel.Coef

	body := s
	if i := strings.IndexByte(body, '#'); i >= 0 {
		body = body[:i]
	}
	fields := strings.Fields(body)

	rows := f.Rows()
	if len(fields) != 2*rows {
		return coef, &ParseError{
			Text:    strings.TrimSpace(s),
			Wrapped: fmt.Errorf("%w: %d fields, %s expects %d", ErrMalformed, len(fields), f, 2*rows),
		}
	}

	for k, field := range fields {
		if !plainDecimal(field) {
			return coef, &ParseError{Field: k + 1, Text: field, Wrapped: ErrMalformed}
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return coef, &ParseError{Field: k + 1, Text: field, Wrapped: ErrMalformed}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= MaxCoef {
			return coef, &ParseError{Field: k + 1, Text: field, Wrapped: ErrOutOfRange}
		}
		coef[k%rows][k/rows] = v
	}
	return coef, nil
}

// plainDecimal matches what "% 1.3f" can print: -?digits[.digits]
func plainDecimal(s string) bool {
	s = strings.TrimPrefix(s, "-")
	digits, dot := 0, false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}

// ReadParams reads one coefficient set per non-blank line. The whole batch is
// rejected on the first bad line.
func ReadParams(r io.Reader, f kernel.Family) ([]kernel.Coef, error) {
	var out []kernel.Coef
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		coef, err := ParseCoef(text, f)
		if err != nil {
			if pe, ok := err.(*ParseError); ok {
				pe.Line = line
			}
			return nil, err
		}
		out = append(out, coef)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
