package domain

import (
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// CustomerID references a customer owned by another bounded context. Only the
// identifier crosses the boundary.
type CustomerID struct {
	value string
}

// CustomerIDFromRaw validates and wraps a raw customer identifier.
func CustomerIDFromRaw(raw string) (CustomerID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CustomerID{}, &RuleError{Code: CodeIdentifierRequired, Message: "customer id is required"}
	}
	return CustomerID{value: raw}, nil
}

// Raw returns the underlying identifier.
func (id CustomerID) Raw() string { return id.value }

// IsZero reports whether the reference is unset.
func (id CustomerID) IsZero() bool { return id.value == "" }

// ProductID references a product in the catalog context.
type ProductID struct {
	value string
}

// ProductIDFromRaw validates and wraps a raw product identifier.
func ProductIDFromRaw(raw string) (ProductID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ProductID{}, &RuleError{Code: CodeIdentifierRequired, Message: "product id is required"}
	}
	return ProductID{value: raw}, nil
}

// Raw returns the underlying identifier.
func (id ProductID) Raw() string { return id.value }

// IsZero reports whether the reference is unset.
func (id ProductID) IsZero() bool { return id.value == "" }

// NewPrefixedID mints a ULID carrying the given entity prefix, e.g. "ord_".
func NewPrefixedID(prefix string) string {
	return fmt.Sprintf("%s%s", prefix, ulid.Make().String())
}
