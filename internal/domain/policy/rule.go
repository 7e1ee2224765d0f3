package policy

import (
	"errors"
	"strings"

	"github.com/Knetic/govaluate"
)

// Rule is an optional operator-provided deny expression evaluated against the
// policy context, e.g. `distance > 32 && !requester_whitelisted`. A rule that
// evaluates to true denies the request.
type Rule struct {
	src  string
	expr *govaluate.EvaluableExpression
}

// CompileRule parses a rule expression. An empty expression returns nil, nil.
func CompileRule(src string) (*Rule, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, nil
	}
	expr, err := govaluate.NewEvaluableExpression(src)
	if err != nil {
		return nil, err
	}
	return &Rule{src: src, expr: expr}, nil
}

// Denies evaluates the rule. Non-boolean results are an error.
func (r *Rule) Denies(params map[string]interface{}) (bool, error) {
	result, err := r.expr.Evaluate(params)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, errors.New("policy rule did not evaluate to boolean")
	}
	return b, nil
}

// Source returns the original expression text.
func (r *Rule) Source() string {
	return r.src
}
