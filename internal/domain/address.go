package domain

import "strings"

// Address is the postal address value object shared by both contexts.
// State/province, the second line and phone are the only optional fields.
type Address struct {
	Recipient  string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

// NewAddress validates the required fields and normalises whitespace.
func NewAddress(addr Address) (Address, error) {
	addr.Recipient = strings.TrimSpace(addr.Recipient)
	addr.Line1 = strings.TrimSpace(addr.Line1)
	addr.Line2 = strings.TrimSpace(addr.Line2)
	addr.City = strings.TrimSpace(addr.City)
	addr.State = strings.TrimSpace(addr.State)
	addr.PostalCode = strings.TrimSpace(addr.PostalCode)
	addr.Country = strings.TrimSpace(addr.Country)
	addr.Phone = strings.TrimSpace(addr.Phone)

	missing := ""
	switch {
	case addr.Recipient == "":
		missing = "recipient"
	case addr.Line1 == "":
		missing = "line1"
	case addr.City == "":
		missing = "city"
	case addr.PostalCode == "":
		missing = "postal code"
	case addr.Country == "":
		missing = "country"
	}
	if missing != "" {
		return Address{}, &RuleError{Code: CodeAddressIncomplete, Message: "address " + missing + " is required"}
	}
	return addr, nil
}

// IsZero reports whether the address carries no data at all.
func (a Address) IsZero() bool {
	return a == Address{}
}
