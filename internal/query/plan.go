package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyPlan is returned when compiling zero conditions. A query without a
// WHERE clause would match the whole library, so it is never built.
var ErrEmptyPlan = errors.New("no conditions to compile")

// JoinSpec is the join pair contributed by one condition. Every condition
// gets its own song_tags/tags aliases, even when two conditions name the same
// tag, which is what lets "energy>=3 energy<=7" select a range.
type JoinSpec struct {
	Index     int
	Condition Condition
}

// SongTagAlias is the song_tags alias for this join
func (j JoinSpec) SongTagAlias() string {
	return fmt.Sprintf("st%d", j.Index)
}

// TagAlias is the tags alias for this join
func (j JoinSpec) TagAlias() string {
	return fmt.Sprintf("t%d", j.Index)
}

func (j JoinSpec) joinSQL() string {
	st, t := j.SongTagAlias(), j.TagAlias()
	return fmt.Sprintf("JOIN song_tags %s ON s.id = %s.song_id JOIN tags %s ON %s.tag_id = %s.id", st, st, t, st, t)
}

func (j JoinSpec) whereSQL() (string, []any, error) {
	op, err := j.Condition.Op.SQL()
	if err != nil {
		return "", nil, fmt.Errorf("condition %d: %w", j.Index, err)
	}
	clause := fmt.Sprintf("(%s.name = ? AND %s.value %s ?)", j.TagAlias(), j.SongTagAlias(), op)
	return clause, []any{j.Condition.Tag, j.Condition.Value}, nil
}

// Plan is the conjunction of all conditions, one JoinSpec each, in input order
type Plan struct {
	Joins []JoinSpec
}

// NewPlan normalizes and validates conditions and assigns each its join aliases
func NewPlan(conds []Condition) (*Plan, error) {
	if len(conds) == 0 {
		return nil, ErrEmptyPlan
	}

	plan := &Plan{Joins: make([]JoinSpec, 0, len(conds))}
	for i, c := range conds {
		c.Tag = NormalizeTagName(c.Tag)
		if err := c.Validate(); err != nil {
			return nil, err
		}
		plan.Joins = append(plan.Joins, JoinSpec{Index: i, Condition: c})
	}
	return plan, nil
}

// Compile renders the plan as one SELECT with its positional arguments.
// Arguments are appended in the same loop that emits their placeholders.
func (p *Plan) Compile() (string, []any, error) {
	if p == nil || len(p.Joins) == 0 {
		return "", nil, ErrEmptyPlan
	}

	var b strings.Builder
	b.WriteString("SELECT DISTINCT s.id, s.path FROM songs s")

	where := make([]string, 0, len(p.Joins))
	args := make([]any, 0, 2*len(p.Joins))
	for _, j := range p.Joins {
		clause, clauseArgs, err := j.whereSQL()
		if err != nil {
			return "", nil, err
		}
		b.WriteString("\n")
		b.WriteString(j.joinSQL())
		where = append(where, clause)
		args = append(args, clauseArgs...)
	}

	b.WriteString("\nWHERE ")
	b.WriteString(strings.Join(where, "\n  AND "))
	b.WriteString("\nORDER BY s.path")

	return b.String(), args, nil
}

// Compile is shorthand for NewPlan followed by Plan.Compile
func Compile(conds []Condition) (string, []any, error) {
	plan, err := NewPlan(conds)
	if err != nil {
		return "", nil, err
	}
	return plan.Compile()
}
