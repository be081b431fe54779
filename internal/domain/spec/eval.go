package spec

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Lookup resolves a field name to its current in-memory value. Returning nil
// marks the field as absent; absent fields fail every comparison except Ne.
type Lookup func(field string) (any, error)

// Eval interprets the predicate tree against in-memory state.
func Eval(node Node, lookup Lookup) (bool, error) {
	switch n := node.(type) {
	case Compare:
		return evalCompare(n, lookup)
	case And:
		for _, child := range n.Children {
			ok, err := Eval(child, lookup)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case Or:
		for _, child := range n.Children {
			ok, err := Eval(child, lookup)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case Not:
		ok, err := Eval(n.Child, lookup)
		if err != nil {
			return false, err
		}
		return !ok, nil
	default:
		return false, fmt.Errorf("spec: unsupported node %T", node)
	}
}

func evalCompare(cmp Compare, lookup Lookup) (bool, error) {
	actual, err := lookup(cmp.Field)
	if err != nil {
		return false, fmt.Errorf("spec: field %q: %w", cmp.Field, err)
	}
	if actual == nil {
		// Absent fields only satisfy "not equal".
		return cmp.Op == OpNe, nil
	}

	if cmp.Op == OpIn {
		candidates, ok := cmp.Value.([]any)
		if !ok {
			return false, fmt.Errorf("spec: field %q: in-comparison needs a value slice", cmp.Field)
		}
		for _, candidate := range candidates {
			order, err := compare(actual, candidate)
			if err != nil {
				return false, fmt.Errorf("spec: field %q: %w", cmp.Field, err)
			}
			if order == 0 {
				return true, nil
			}
		}
		return false, nil
	}

	order, err := compare(actual, cmp.Value)
	if err != nil {
		return false, fmt.Errorf("spec: field %q: %w", cmp.Field, err)
	}
	switch cmp.Op {
	case OpEq:
		return order == 0, nil
	case OpNe:
		return order != 0, nil
	case OpGt:
		return order > 0, nil
	case OpGte:
		return order >= 0, nil
	case OpLt:
		return order < 0, nil
	case OpLte:
		return order <= 0, nil
	default:
		return false, fmt.Errorf("spec: unsupported operator %q", cmp.Op)
	}
}

// compare orders two values of the same comparable kind: -1, 0 or +1.
func compare(a, b any) (int, error) {
	switch left := a.(type) {
	case string:
		right, ok := b.(string)
		if !ok {
			return 0, typeMismatch(a, b)
		}
		switch {
		case left < right:
			return -1, nil
		case left > right:
			return 1, nil
		default:
			return 0, nil
		}
	case bool:
		right, ok := b.(bool)
		if !ok {
			return 0, typeMismatch(a, b)
		}
		if left == right {
			return 0, nil
		}
		if !left {
			return -1, nil
		}
		return 1, nil
	case int:
		return compareInt64(int64(left), b)
	case int64:
		return compareInt64(left, b)
	case time.Time:
		right, ok := b.(time.Time)
		if !ok {
			return 0, typeMismatch(a, b)
		}
		switch {
		case left.Before(right):
			return -1, nil
		case left.After(right):
			return 1, nil
		default:
			return 0, nil
		}
	case decimal.Decimal:
		right, ok := b.(decimal.Decimal)
		if !ok {
			return 0, typeMismatch(a, b)
		}
		return left.Cmp(right), nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", a)
	}
}

func compareInt64(left int64, b any) (int, error) {
	var right int64
	switch v := b.(type) {
	case int:
		right = int64(v)
	case int64:
		right = v
	default:
		return 0, typeMismatch(left, b)
	}
	switch {
	case left < right:
		return -1, nil
	case left > right:
		return 1, nil
	default:
		return 0, nil
	}
}

func typeMismatch(a, b any) error {
	return fmt.Errorf("cannot compare %T with %T", a, b)
}
