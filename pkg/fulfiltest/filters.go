package fulfiltest

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"
)

// Static errors for err113 compliance.
var (
	ErrInvalidCondition    = errors.New("condition must be a [field, operator, value] list")
	ErrUnsupportedOperator = errors.New("unsupported operator")
	ErrListExpected        = errors.New("operator expects a list")
)

// matchAll reports whether row satisfies every [field, operator, value]
// condition.
func matchAll(row map[string]interface{}, filters []interface{}) (bool, error) {
	for _, raw := range filters {
		condition, ok := raw.([]interface{})
		if !ok || len(condition) != 3 {
			return false, fmt.Errorf("%w: %v", ErrInvalidCondition, raw)
		}

		field, ok := condition[0].(string)
		if !ok {
			return false, fmt.Errorf("%w: field %v", ErrInvalidCondition, condition[0])
		}

		operator := strings.ToLower(cast.ToString(condition[1]))

		matched, err := match(row[field], operator, condition[2])
		if err != nil {
			return false, err
		}

		if !matched {
			return false, nil
		}
	}

	return true, nil
}

func match(actual interface{}, operator string, expected interface{}) (bool, error) {
	switch operator {
	case "=":
		return equal(actual, expected), nil
	case "!=":
		return !equal(actual, expected), nil
	case "in", "not in":
		values, ok := expected.([]interface{})
		if !ok {
			return false, fmt.Errorf("%w: %q", ErrListExpected, operator)
		}

		found := false

		for _, value := range values {
			if equal(actual, value) {
				found = true

				break
			}
		}

		return found == (operator == "in"), nil
	case "<", "<=", ">", ">=":
		order, ok := compare(actual, expected)
		if !ok {
			return false, nil
		}

		switch operator {
		case "<":
			return order < 0, nil
		case "<=":
			return order <= 0, nil
		case ">":
			return order > 0, nil
		default:
			return order >= 0, nil
		}
	case "like", "ilike":
		return like(cast.ToString(actual), cast.ToString(expected), operator == "ilike"), nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnsupportedOperator, operator)
	}
}

func equal(actual, expected interface{}) bool {
	if actual == nil || expected == nil {
		return actual == expected
	}

	if order, ok := compare(actual, expected); ok {
		return order == 0
	}

	return reflect.DeepEqual(actual, expected)
}

// compare orders numbers numerically and everything else as strings.
func compare(actual, expected interface{}) (int, bool) {
	if actual == nil || expected == nil {
		return 0, false
	}

	left, leftErr := cast.ToFloat64E(actual)
	right, rightErr := cast.ToFloat64E(expected)

	_, leftIsString := actual.(string)
	_, rightIsString := expected.(string)

	if leftErr == nil && rightErr == nil && !leftIsString && !rightIsString {
		switch {
		case left < right:
			return -1, true
		case left > right:
			return 1, true
		default:
			return 0, true
		}
	}

	leftText, leftErr := cast.ToStringE(actual)
	rightText, rightErr := cast.ToStringE(expected)

	if leftErr != nil || rightErr != nil {
		return 0, false
	}

	return strings.Compare(leftText, rightText), true
}

// like supports % wildcards at either end of pattern.
func like(value, pattern string, fold bool) bool {
	if fold {
		value = strings.ToLower(value)
		pattern = strings.ToLower(pattern)
	}

	prefix := strings.HasPrefix(pattern, "%")
	suffix := strings.HasSuffix(pattern, "%")
	core := strings.Trim(pattern, "%")

	switch {
	case prefix && suffix:
		return strings.Contains(value, core)
	case prefix:
		return strings.HasSuffix(value, core)
	case suffix:
		return strings.HasPrefix(value, core)
	default:
		return value == core
	}
}
