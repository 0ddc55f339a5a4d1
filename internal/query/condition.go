package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MinValue and MaxValue bound every tag value
const (
	MinValue = 0
	MaxValue = 9
)

// Parse failure kinds. ParseError wraps exactly one of them.
var (
	ErrEmptyTagName    = errors.New("empty tag name")
	ErrValueOutOfRange = errors.New("tag value must be between 0 and 9")
	ErrNonNumericValue = errors.New("invalid numeric value")
	ErrNoOperatorFound = errors.New("no valid operator found (use =, >, <, >=, <=, !=)")

	// ErrNotAssignment is returned by ParseAssignment for anything but "="
	ErrNotAssignment = errors.New("tagging only supports the '=' operator")
)

// ParseError reports a malformed condition string
type ParseError struct {
	Condition string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v in condition: %s", e.Err, e.Condition)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Condition is a single tag comparison, e.g. energy >= 7
type Condition struct {
	Tag   string   `json:"tag" yaml:"tag"`
	Op    Operator `json:"op" yaml:"op"`
	Value int      `json:"value" yaml:"value"`
}

func (c Condition) String() string {
	return c.Tag + c.Op.String() + strconv.Itoa(c.Value)
}

// Validate checks a condition built without the parser
func (c Condition) Validate() error {
	if c.Tag == "" {
		return &ParseError{Condition: c.String(), Err: ErrEmptyTagName}
	}
	if c.Value < MinValue || c.Value > MaxValue {
		return &ParseError{Condition: c.String(), Err: ErrValueOutOfRange}
	}
	if _, err := c.Op.SQL(); err != nil {
		return err
	}
	return nil
}

// NormalizeTagName trims surrounding space and applies Unicode NFC so that
// visually identical names map to one tag
func NormalizeTagName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// ParseCondition parses "<tag><op><0-9>". The operators are tried in the
// order >=, <=, !=, >, <, = and the first one present anywhere in the string
// splits it; the left side is the tag name and the right side the value.
func ParseCondition(s string) (Condition, error) {
	for _, op := range scanOrder {
		tok := op.String()
		pos := strings.Index(s, tok)
		if pos < 0 {
			continue
		}

		name := NormalizeTagName(s[:pos])
		if name == "" {
			return Condition{}, &ParseError{Condition: s, Err: ErrEmptyTagName}
		}

		raw := strings.TrimSpace(s[pos+len(tok):])
		value, err := strconv.Atoi(raw)
		if err != nil {
			var numErr *strconv.NumError
			if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
				return Condition{}, &ParseError{Condition: s, Err: ErrValueOutOfRange}
			}
			return Condition{}, &ParseError{Condition: s, Err: ErrNonNumericValue}
		}
		if value < MinValue || value > MaxValue {
			return Condition{}, &ParseError{Condition: s, Err: ErrValueOutOfRange}
		}

		return Condition{Tag: name, Op: op, Value: value}, nil
	}

	return Condition{}, &ParseError{Condition: s, Err: ErrNoOperatorFound}
}

// ParseConditions parses every string, stopping at the first failure
func ParseConditions(ss []string) ([]Condition, error) {
	conds := make([]Condition, 0, len(ss))
	for _, s := range ss {
		c, err := ParseCondition(s)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return conds, nil
}

// ParseAssignment parses "<tag>=<0-9>" as used when tagging a song
func ParseAssignment(s string) (Condition, error) {
	c, err := ParseCondition(s)
	if err != nil {
		return Condition{}, err
	}
	if c.Op != OpEqual {
		return Condition{}, fmt.Errorf("%w, got: %s", ErrNotAssignment, s)
	}
	return c, nil
}
