// Package query turns tag conditions such as "energy>=7" into a single
// parameterized SQL statement over the library schema.
//
// Parsing produces Conditions. NewPlan folds an ordered list of Conditions
// into a Plan with one join pair per condition, and Plan.Compile emits the
// statement and its bound arguments in lockstep. Tag names and values are
// always bound; only operators from the fixed Operator set reach the SQL text.
package query
