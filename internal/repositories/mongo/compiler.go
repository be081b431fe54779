// Package mongo implements the repository contracts on MongoDB. Specification
// trees are lowered to native filter documents so the store evaluates the same
// predicate the domain evaluates in memory.
package mongo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fluxcart/api/internal/domain/order"
	"github.com/fluxcart/api/internal/domain/payment"
	"github.com/fluxcart/api/internal/domain/spec"
)

// CompileFilter lowers a specification tree into a MongoDB filter document.
func CompileFilter(node spec.Node) (bson.M, error) {
	switch n := node.(type) {
	case spec.Compare:
		return compileCompare(n)
	case spec.And:
		if len(n.Children) == 0 {
			return bson.M{}, nil
		}
		children, err := compileChildren(n.Children)
		if err != nil {
			return nil, err
		}
		return bson.M{"$and": children}, nil
	case spec.Or:
		if len(n.Children) == 0 {
			return nil, fmt.Errorf("mongo: disjunction requires at least one child")
		}
		children, err := compileChildren(n.Children)
		if err != nil {
			return nil, err
		}
		return bson.M{"$or": children}, nil
	case spec.Not:
		child, err := CompileFilter(n.Child)
		if err != nil {
			return nil, err
		}
		return bson.M{"$nor": bson.A{child}}, nil
	case nil:
		return nil, fmt.Errorf("mongo: specification is required")
	default:
		return nil, fmt.Errorf("mongo: unsupported specification node %T", node)
	}
}

func compileChildren(nodes []spec.Node) (bson.A, error) {
	children := make(bson.A, 0, len(nodes))
	for _, child := range nodes {
		compiled, err := CompileFilter(child)
		if err != nil {
			return nil, err
		}
		children = append(children, compiled)
	}
	return children, nil
}

func compileCompare(c spec.Compare) (bson.M, error) {
	if c.Field == "" {
		return nil, fmt.Errorf("mongo: comparison field is required")
	}

	if c.Op == spec.OpIn {
		values, ok := c.Value.([]any)
		if !ok {
			return nil, fmt.Errorf("mongo: membership comparison on %q requires a value slice", c.Field)
		}
		candidates := make(bson.A, 0, len(values))
		for _, value := range values {
			encoded, err := encodeValue(value)
			if err != nil {
				return nil, fmt.Errorf("mongo: field %q: %w", c.Field, err)
			}
			candidates = append(candidates, encoded)
		}
		return bson.M{c.Field: bson.M{"$in": candidates}}, nil
	}

	operator, ok := operators[c.Op]
	if !ok {
		return nil, fmt.Errorf("mongo: unsupported operator %q on field %q", c.Op, c.Field)
	}
	encoded, err := encodeValue(c.Value)
	if err != nil {
		return nil, fmt.Errorf("mongo: field %q: %w", c.Field, err)
	}
	return bson.M{c.Field: bson.M{operator: encoded}}, nil
}

var operators = map[spec.Op]string{
	spec.OpEq:  "$eq",
	spec.OpNe:  "$ne",
	spec.OpGt:  "$gt",
	spec.OpGte: "$gte",
	spec.OpLt:  "$lt",
	spec.OpLte: "$lte",
}

// encodeValue converts domain comparison values to their persisted BSON
// representation. Decimals become Decimal128 so numeric comparisons run
// store-side instead of lexically.
func encodeValue(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case decimal.Decimal:
		return encodeDecimal(v)
	case order.Status:
		return string(v), nil
	case payment.Status:
		return string(v), nil
	case payment.Method:
		return string(v), nil
	case time.Time:
		return v.UTC(), nil
	case string, bool, int, int32, int64, float64:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported comparison value %T", value)
	}
}

// encodeDecimal keeps the decimal's scale: "1000.00" stays 100000E-2 as the
// document codec writes it, not the normalized 1E3.
func encodeDecimal(d decimal.Decimal) (primitive.Decimal128, error) {
	text := d.String()
	if exp := d.Exponent(); exp < 0 {
		text = d.StringFixed(-exp)
	}
	encoded, err := primitive.ParseDecimal128(text)
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode decimal %s: %w", d, err)
	}
	return encoded, nil
}
