package query

import (
	"fmt"

	"github.com/graevy/mag/internal/util"
)

// Operator is a comparison between a stored tag value and a condition value.
// The zero value is not a valid operator.
type Operator int

const (
	OpEqual Operator = iota + 1
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual
)

// scanOrder lists operator tokens in the order a condition string is searched.
// Two-character operators come first so ">=" is never read as ">".
var scanOrder = []Operator{OpGreaterEqual, OpLessEqual, OpNotEqual, OpGreater, OpLess, OpEqual}

// String returns the textual form of the operator, or "" if it is invalid
func (o Operator) String() string {
	switch o {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	case OpGreater:
		return ">"
	case OpGreaterEqual:
		return ">="
	case OpLess:
		return "<"
	case OpLessEqual:
		return "<="
	}
	return ""
}

// Valid reports whether o is one of the defined operators
func (o Operator) Valid() bool {
	return o.String() != ""
}

// SQL returns the operator literal to place in a WHERE clause.
// It is the only path by which condition data reaches SQL text, so it
// rejects anything outside the defined set.
func (o Operator) SQL() (string, error) {
	switch o {
	case OpEqual, OpNotEqual, OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
		return o.String(), nil
	}
	return "", fmt.Errorf("%w: %d", util.ErrInvalidOperator, int(o))
}

// Matches applies the comparison to a stored value
func (o Operator) Matches(stored, want int) bool {
	switch o {
	case OpEqual:
		return stored == want
	case OpNotEqual:
		return stored != want
	case OpGreater:
		return stored > want
	case OpGreaterEqual:
		return stored >= want
	case OpLess:
		return stored < want
	case OpLessEqual:
		return stored <= want
	}
	return false
}

// ParseOperator converts "=", "!=", ">", ">=", "<" or "<=" to an Operator
func ParseOperator(s string) (Operator, error) {
	for _, op := range scanOrder {
		if op.String() == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", util.ErrInvalidOperator, s)
}

// MarshalText implements encoding.TextMarshaler
func (o Operator) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: %d", util.ErrInvalidOperator, int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (o *Operator) UnmarshalText(b []byte) error {
	op, err := ParseOperator(string(b))
	if err != nil {
		return err
	}
	*o = op
	return nil
}
