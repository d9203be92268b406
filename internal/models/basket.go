package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidBasket is returned when a basket detail is not a flat
	// object of category -> number.
	ErrInvalidBasket = errors.New("invalid basket detail")
	// ErrNegativeAmount is returned when a basket holds a negative amount.
	ErrNegativeAmount = errors.New("negative basket amount")
)

// BasketLine is the amount spent on one category.
type BasketLine struct {
	Category string
	Amount   decimal.Decimal
	// number text as it was stored, kept so exports render it unchanged
	literal string
}

// NewBasketLine builds a line from a decimal amount.
func NewBasketLine(category string, amount decimal.Decimal) BasketLine {
	return BasketLine{Category: category, Amount: amount, literal: amount.String()}
}

// Literal returns the stored number text of the amount.
func (l BasketLine) Literal() string {
	if l.literal == "" {
		return l.Amount.String()
	}
	return l.literal
}

// Basket is the detail of a purchase: spending categories in insertion order.
type Basket []BasketLine

// ParseBasket decodes a JSON object keeping the order of its keys.
// A repeated key keeps its first position and its last value.
func ParseBasket(raw []byte) (Basket, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Basket{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasket, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: expected an object", ErrInvalidBasket)
	}
	b := Basket{}
	index := map[string]int{}
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBasket, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected a key", ErrInvalidBasket)
		}
		tok, err = dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBasket, err)
		}
		num, ok := tok.(json.Number)
		if !ok {
			return nil, fmt.Errorf("%w: amount of %q is not a number", ErrInvalidBasket, key)
		}
		amount, err := decimal.NewFromString(num.String())
		if err != nil {
			return nil, fmt.Errorf("%w: amount of %q: %v", ErrInvalidBasket, key, err)
		}
		line := BasketLine{Category: key, Amount: amount, literal: num.String()}
		if i, seen := index[key]; seen {
			b[i] = line
			continue
		}
		index[key] = len(b)
		b = append(b, line)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasket, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidBasket)
	}
	return b, nil
}

// Validate rejects negative amounts.
func (b Basket) Validate() error {
	for _, l := range b {
		if l.Amount.IsNegative() {
			return fmt.Errorf("%w: %s", ErrNegativeAmount, l.Category)
		}
	}
	return nil
}

// Categories returns the category names in stored order.
func (b Basket) Categories() []string {
	out := make([]string, len(b))
	for i, l := range b {
		out[i] = l.Category
	}
	return out
}

// Total is the sum of all amounts.
func (b Basket) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range b {
		sum = sum.Add(l.Amount)
	}
	return sum
}

// MarshalJSON writes the object with keys in stored order.
func (b Basket) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(l.Category)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(l.Literal())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Basket) UnmarshalJSON(data []byte) error {
	parsed, err := ParseBasket(data)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Literal renders the basket as a mapping literal, e.g.
// {'categorie1': 10, 'categorie2': 20.5}. This is the text found in CSV
// exports.
func (b Basket) Literal() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, l := range b {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quoteKey(l.Category))
		sb.WriteString(": ")
		sb.WriteString(formatNumber(l.Literal()))
	}
	sb.WriteByte('}')
	return sb.String()
}

// formatNumber renders a JSON number: integers verbatim, floats in shortest
// round-trip form (exponent notation outside 1e-4 <= |x| < 1e16).
func formatNumber(lit string) string {
	if !strings.ContainsAny(lit, ".eE") {
		if lit == "-0" {
			return "0"
		}
		return lit
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return lit
	}
	// out of range values come back as ±Inf
	return formatFloat(f)
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	if f == 0 {
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// quoteKey quotes a string with single quotes, or double quotes when it
// holds a single quote and no double quote.
func quoteKey(s string) string {
	quote := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	var sb strings.Builder
	sb.WriteRune(quote)
	for _, r := range s {
		switch {
		case r == quote || r == '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\t':
			sb.WriteString(`\t`)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r < ' ' || r == 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, r)
		case r < utf8.RuneSelf || unicode.IsPrint(r):
			sb.WriteRune(r)
		case r <= 0xff:
			fmt.Fprintf(&sb, `\x%02x`, r)
		case r <= 0xffff:
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			fmt.Fprintf(&sb, `\U%08x`, r)
		}
	}
	sb.WriteRune(quote)
	return sb.String()
}
