// Package condition implements the small comparison language used by logic
// nodes. It is not a general expression parser: an expression
// is split at the first operator found, searched in a fixed priority order.
package condition

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// Operators in search priority order. "===" must precede "==".
var operators = []string{"===", "==", "!=", ">", "<"}

var errUnresolvable = errors.New("unresolvable operand")

// undefined marks a property that does not exist on an otherwise valid object.
type undefined struct{}

type Evaluator struct {
	logger *slog.Logger
}

func NewEvaluator(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		logger: logger.With("component", "condition"),
	}
}

// Evaluate reports whether expression holds against context. Any failure to
// resolve an operand degrades to false.
func (e *Evaluator) Evaluate(expression string, context interface{}) bool {
	result, err := Eval(expression, context)
	if err != nil {
		e.logger.Debug("condition evaluated to false",
			"expression", expression,
			"error", err.Error(),
		)
		return false
	}
	return result
}

// Eval is Evaluate without the logging; it exposes why an expression could
// not be evaluated.
func Eval(expression string, context interface{}) (bool, error) {
	expr := strings.TrimSpace(expression)
	if expr == "" {
		return false, errors.New("empty expression")
	}

	op, left, right, ok := split(expr)
	if !ok {
		return false, fmt.Errorf("no supported operator in %q", expr)
	}

	lv, err := resolve(left, context)
	if err != nil {
		return false, err
	}
	rv, err := resolve(right, context)
	if err != nil {
		return false, err
	}

	switch op {
	case "===":
		return strictEqual(lv, rv), nil
	case "==":
		return looseEqual(lv, rv), nil
	case "!=":
		return !looseEqual(lv, rv), nil
	case ">":
		return compare(lv, rv, func(c int) bool { return c > 0 }), nil
	case "<":
		return compare(lv, rv, func(c int) bool { return c < 0 }), nil
	}
	return false, fmt.Errorf("unsupported operator %q", op)
}

func split(expr string) (op, left, right string, ok bool) {
	for _, candidate := range operators {
		if idx := strings.Index(expr, candidate); idx >= 0 {
			return candidate,
				strings.TrimSpace(expr[:idx]),
				strings.TrimSpace(expr[idx+len(candidate):]),
				true
		}
	}
	return "", "", "", false
}

func resolve(token string, context interface{}) (interface{}, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty operand", errUnresolvable)
	}

	if len(token) >= 2 {
		first, last := token[0], token[len(token)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return token[1 : len(token)-1], nil
		}
	}

	if n, err := strconv.ParseFloat(token, 64); err == nil {
		return n, nil
	}

	if strings.Contains(token, ".") {
		return lookupPath(context, strings.Split(token, "."))
	}

	obj, ok := context.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: cannot read %q from %T", errUnresolvable, token, context)
	}
	if v, exists := obj[token]; exists {
		return v, nil
	}
	return token, nil
}

func lookupPath(context interface{}, path []string) (interface{}, error) {
	current := context
	for i, segment := range path {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: cannot read %q of %s", errUnresolvable, segment, strings.Join(path[:i], "."))
		}
		v, exists := obj[segment]
		if !exists {
			if i == len(path)-1 {
				return undefined{}, nil
			}
			return nil, fmt.Errorf("%w: %s is undefined", errUnresolvable, strings.Join(path[:i+1], "."))
		}
		current = v
	}
	return current, nil
}

func strictEqual(a, b interface{}) bool {
	if an, ok := toNumber(a); ok && isNumeric(a) {
		if bn, ok := toNumber(b); ok && isNumeric(b) {
			return an == bn
		}
		return false
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	case undefined:
		_, ok := b.(undefined)
		return ok
	}
	return false
}

func looseEqual(a, b interface{}) bool {
	if isNullish(a) || isNullish(b) {
		return isNullish(a) && isNullish(b)
	}
	if strictEqual(a, b) {
		return true
	}
	_, aStr := a.(string)
	_, bStr := b.(string)
	if aStr && bStr {
		return false
	}
	if !isScalar(a) || !isScalar(b) {
		return false
	}
	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	return aok && bok && an == bn
}

func compare(a, b interface{}, pred func(int) bool) bool {
	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		return pred(strings.Compare(as, bs))
	}
	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if !aok || !bok || math.IsNaN(an) || math.IsNaN(bn) {
		return false
	}
	switch {
	case an > bn:
		return pred(1)
	case an < bn:
		return pred(-1)
	}
	return pred(0)
}

func isNullish(v interface{}) bool {
	if v == nil {
		return true
	}
	_, ok := v.(undefined)
	return ok
}

func isScalar(v interface{}) bool {
	switch v.(type) {
	case string, bool, nil:
		return true
	}
	return isNumeric(v)
}

func isNumeric(v interface{}) bool {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// toNumber mirrors scripting-language numeric coercion. The boolean result is
// false when v has no numeric interpretation.
func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case nil:
		return 0, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN(), false
		}
		return f, true
	}
	return math.NaN(), false
}
