package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		input string
		want  Condition
	}{
		{"energy>=7", Condition{"energy", OpGreaterEqual, 7}},
		{"mood<5", Condition{"mood", OpLess, 5}},
		{"background=3", Condition{"background", OpEqual, 3}},
		{"x>=5", Condition{"x", OpGreaterEqual, 5}},
		{"x<=0", Condition{"x", OpLessEqual, 0}},
		{"x!=9", Condition{"x", OpNotEqual, 9}},
		{"x>1", Condition{"x", OpGreater, 1}},
		{"  dance floor  >=  4 ", Condition{"dance floor", OpGreaterEqual, 4}},
		// decomposed e + combining acute normalizes to the precomposed form
		{"cafe\u0301=2", Condition{"caf\u00e9", OpEqual, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCondition(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseConditionTwoCharOperatorsWin(t *testing.T) {
	c, err := ParseCondition("x>=5")
	require.NoError(t, err)
	assert.Equal(t, "x", c.Tag, "must not parse as tag \"x>\"")
	assert.Equal(t, OpGreaterEqual, c.Op, "must not parse as \">\" or \"=\"")
	assert.Equal(t, 5, c.Value)
}

func TestParseConditionErrors(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{">=5", ErrEmptyTagName},
		{"   =3", ErrEmptyTagName},
		{"energy=10", ErrValueOutOfRange},
		{"energy>=-1", ErrValueOutOfRange},
		{"energy=99999999999999999999", ErrValueOutOfRange},
		{"energy=high", ErrNonNumericValue},
		{"energy=", ErrNonNumericValue},
		{"energy==5", ErrNonNumericValue},
		{"energy=5.5", ErrNonNumericValue},
		{"energy", ErrNoOperatorFound},
		{"", ErrNoOperatorFound},
		{"energy~5", ErrNoOperatorFound},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseCondition(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.input, pe.Condition)
		})
	}
}

func TestParseConditionsStopsAtFirstError(t *testing.T) {
	conds, err := ParseConditions([]string{"energy>=7", "mood<5"})
	require.NoError(t, err)
	assert.Len(t, conds, 2)

	_, err = ParseConditions([]string{"energy>=7", "mood", "tempo=11"})
	assert.ErrorIs(t, err, ErrNoOperatorFound)
}

func TestParseAssignment(t *testing.T) {
	c, err := ParseAssignment("energy=8")
	require.NoError(t, err)
	assert.Equal(t, Condition{"energy", OpEqual, 8}, c)

	_, err = ParseAssignment("energy>=8")
	assert.ErrorIs(t, err, ErrNotAssignment)

	_, err = ParseAssignment("energy=12")
	assert.ErrorIs(t, err, ErrValueOutOfRange)
}

func TestConditionValidate(t *testing.T) {
	assert.NoError(t, Condition{"energy", OpGreater, 3}.Validate())
	assert.ErrorIs(t, Condition{"", OpGreater, 3}.Validate(), ErrEmptyTagName)
	assert.ErrorIs(t, Condition{"energy", OpGreater, 10}.Validate(), ErrValueOutOfRange)
	assert.Error(t, Condition{"energy", Operator(42), 3}.Validate())
}

func TestConditionString(t *testing.T) {
	assert.Equal(t, "energy>=7", Condition{"energy", OpGreaterEqual, 7}.String())
}
