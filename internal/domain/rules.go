package domain

import (
	"errors"
	"fmt"
)

// Stable machine-readable codes attached to rule violations. Callers branch on
// these, never on message text.
const (
	CodeMoneyNegative         = "MONEY_NEGATIVE"
	CodeMoneyCurrencyRequired = "MONEY_CURRENCY_REQUIRED"
	CodeMoneyCurrencyMismatch = "MONEY_CURRENCY_MISMATCH"
	CodeAddressIncomplete     = "ADDRESS_INCOMPLETE"
	CodeIdentifierRequired    = "IDENTIFIER_REQUIRED"
)

// RuleError is a domain rule violation: an aggregate invariant or guard
// failed. It is always recoverable by the caller, who rejects the command
// and surfaces code + message.
type RuleError struct {
	Code    string
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsRuleError unwraps err into a RuleError when it is one.
func AsRuleError(err error) (*RuleError, bool) {
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		return ruleErr, true
	}
	return nil, false
}

// Rule is a binary guard evaluated inside aggregate behaviour methods.
type Rule interface {
	Broken() bool
	Code() string
	Message() string
}

// CheckRules evaluates guards in order and returns the first violation.
func CheckRules(rules ...Rule) error {
	for _, rule := range rules {
		if rule == nil {
			continue
		}
		if rule.Broken() {
			return &RuleError{Code: rule.Code(), Message: rule.Message()}
		}
	}
	return nil
}
