package dice

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrMalformed is matched (via errors.Is) by every parse failure.
var ErrMalformed = errors.New("malformed dice expression")

// ErrAmbiguousValue is returned when a Value has both or neither arm populated.
var ErrAmbiguousValue = errors.New("dice value must be exactly one of number or dice")

// Die is a single "<amount>d<sides>" term.
type Die struct {
	Amount    int      `json:"amount"`
	Sides     int      `json:"sides"`
	Modifiers []string `json:"modifiers"`
}

// Expression is an ordered list of dice terms plus a flat bonus.
type Expression struct {
	Dice  []Die `json:"dice"`
	Bonus int   `json:"bonus"`
}

// Value is the tagged union used for user values: a plain number or a dice expression.
type Value struct {
	Number *int64      `json:"number,omitempty"`
	Dice   *Expression `json:"dice,omitempty"`
}

// Number returns a number-valued Value.
func Number(n int64) Value {
	return Value{Number: &n}
}

// FromExpression returns a dice-valued Value.
func FromExpression(e Expression) Value {
	return Value{Dice: &e}
}

// IsNumber reports whether the number arm is populated.
func (v Value) IsNumber() bool {
	return v.Number != nil
}

// Validate checks that exactly one arm is populated.
func (v Value) Validate() error {
	if (v.Number == nil) == (v.Dice == nil) {
		return ErrAmbiguousValue
	}
	return nil
}

// String renders the value in dice notation.
func (v Value) String() string {
	switch {
	case v.Number != nil:
		return strconv.FormatInt(*v.Number, 10)
	case v.Dice != nil:
		return v.Dice.String()
	default:
		return ""
	}
}

// UnmarshalJSON decodes a Value and rejects payloads carrying both arms or none.
func (v *Value) UnmarshalJSON(data []byte) error {
	type plain Value
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	decoded := Value(p)
	if err := decoded.Validate(); err != nil {
		return err
	}
	*v = decoded
	return nil
}

// Render is the whole-value helper: nil renders as the empty string.
func Render(v *Value) string {
	if v == nil {
		return ""
	}
	return v.String()
}

// String renders the expression. Terms are joined by "+" unless their amount is
// negative; a non-zero bonus is appended with an explicit sign.
func (e Expression) String() string {
	var b strings.Builder
	for _, d := range e.Dice {
		if b.Len() > 0 && d.Amount >= 0 {
			b.WriteByte('+')
		}
		b.WriteString(strconv.Itoa(d.Amount))
		b.WriteByte('d')
		b.WriteString(strconv.Itoa(d.Sides))
		for _, m := range d.Modifiers {
			b.WriteString(m)
		}
	}
	if e.Bonus > 0 {
		b.WriteByte('+')
	}
	if e.Bonus != 0 {
		b.WriteString(strconv.Itoa(e.Bonus))
	}
	return b.String()
}

// MalformedError carries the residual text that could not be parsed and the
// part of the expression parsed before the failure.
type MalformedError struct {
	Text    string
	Partial Expression
	Reason  string
}

func (e *MalformedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("malformed dice expression at %q", e.Text)
	}
	return fmt.Sprintf("malformed dice expression at %q: %s", e.Text, e.Reason)
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

// Parse converts user text into a Value. Blank text yields nil (unset), a plain
// integer yields the number arm, anything else is parsed as an expression.
func Parse(text string) (*Value, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		v := Number(n)
		return &v, nil
	}
	expr, err := ParseExpression(text)
	if err != nil {
		return nil, err
	}
	v := FromExpression(expr)
	return &v, nil
}

// ParseExpression parses a sign-separated sequence of dice and bonus terms.
// A leading sign belongs to the first term.
func ParseExpression(text string) (Expression, error) {
	expr := Expression{Dice: []Die{}}
	text = stripSpace(text)

	for len(text) > 0 {
		end := strings.IndexAny(text[1:], "+-")
		if end == -1 {
			end = len(text)
		} else {
			end++
		}
		term, rest := text[:end], text[end:]
		if len(rest) == len(text) {
			return expr, &MalformedError{Text: text, Partial: expr, Reason: "no progress"}
		}
		if err := expr.addTerm(term); err != nil {
			return expr, &MalformedError{Text: text, Partial: expr, Reason: err.Error()}
		}
		text = rest
	}
	return expr, nil
}

func (e *Expression) addTerm(term string) error {
	if term == "+" || term == "-" {
		return errors.New("empty term")
	}
	amount, sides, isDie := strings.Cut(term, "d")
	if !isDie {
		n, err := strconv.Atoi(term)
		if err != nil {
			return fmt.Errorf("invalid bonus %q", term)
		}
		e.Bonus += n
		return nil
	}

	a, err := strconv.Atoi(amount)
	if err != nil {
		return fmt.Errorf("invalid dice amount %q", amount)
	}
	if sides == "" || strings.ContainsAny(sides[:1], "+-") {
		return fmt.Errorf("invalid dice sides %q", sides)
	}
	s, err := strconv.Atoi(sides)
	if err != nil {
		return fmt.Errorf("invalid dice sides %q", sides)
	}
	e.Dice = append(e.Dice, Die{Amount: a, Sides: s, Modifiers: []string{}})
	return nil
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
