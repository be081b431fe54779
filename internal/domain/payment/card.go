package payment

import (
	"strings"
	"time"

	domain "github.com/fluxcart/api/internal/domain"
)

// CardDetails is the card snapshot kept for card payments: the last four
// digits only, never a full PAN. Expiry is validated against the clock at
// construction and re-checked when processing begins, since time passes
// between the two.
type CardDetails struct {
	last4    string
	cardType string
	expMonth int
	expYear  int
	holder   string
}

// NewCardDetails validates and constructs the card snapshot.
func NewCardDetails(last4, cardType string, expMonth, expYear int, holder string, now time.Time) (CardDetails, error) {
	last4 = strings.TrimSpace(last4)
	cardType = strings.TrimSpace(cardType)
	holder = strings.TrimSpace(holder)

	if len(last4) != 4 {
		return CardDetails{}, &domain.RuleError{Code: CodeCardLast4, Message: "last 4 digits must be exactly 4 characters"}
	}
	for _, r := range last4 {
		if r < '0' || r > '9' {
			return CardDetails{}, &domain.RuleError{Code: CodeCardLast4, Message: "last 4 digits must be numeric"}
		}
	}
	if cardType == "" {
		return CardDetails{}, &domain.RuleError{Code: CodeCardType, Message: "card type is required"}
	}
	if expMonth < 1 || expMonth > 12 {
		return CardDetails{}, &domain.RuleError{Code: CodeCardExpiry, Message: "expiry month must be between 1 and 12"}
	}
	if holder == "" {
		return CardDetails{}, &domain.RuleError{Code: CodeCardHolder, Message: "card holder name is required"}
	}

	card := CardDetails{
		last4:    last4,
		cardType: cardType,
		expMonth: expMonth,
		expYear:  expYear,
		holder:   holder,
	}
	if card.ExpiredAt(now) {
		return CardDetails{}, &domain.RuleError{Code: CodeCardExpired, Message: "card has expired"}
	}
	return card, nil
}

// ExpiredAt reports whether the card is expired at the given instant. A card
// remains valid through the last day of its expiry month.
func (c CardDetails) ExpiredAt(now time.Time) bool {
	now = now.UTC()
	if c.expYear != now.Year() {
		return c.expYear < now.Year()
	}
	return c.expMonth < int(now.Month())
}

// Last4 returns the stored last four digits.
func (c CardDetails) Last4() string { return c.last4 }

// CardType returns the card network name, e.g. "Visa".
func (c CardDetails) CardType() string { return c.cardType }

// ExpiryMonth returns the expiry month (1-12).
func (c CardDetails) ExpiryMonth() int { return c.expMonth }

// ExpiryYear returns the four-digit expiry year.
func (c CardDetails) ExpiryYear() int { return c.expYear }

// Holder returns the card holder name.
func (c CardDetails) Holder() string { return c.holder }

// String renders the masked form, e.g. "Visa ****4242".
func (c CardDetails) String() string {
	return c.cardType + " ****" + c.last4
}
