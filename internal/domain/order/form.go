package order

import (
	"regexp"
	"strings"
)

type PaymentMethod string

const (
	PaymentMpesa PaymentMethod = "mpesa"
	PaymentCard  PaymentMethod = "card"
	PaymentBank  PaymentMethod = "bank"
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern  = regexp.MustCompile(`^254\d{9}$`)
	cardPattern   = regexp.MustCompile(`^\d{16}$`)
	expiryPattern = regexp.MustCompile(`^\d{2}/\d{2}$`)
	cvvPattern    = regexp.MustCompile(`^\d{3}$`)
)

// CheckoutForm is the billing, shipping and payment input of a checkout
type CheckoutForm struct {
	FirstName     string        `json:"firstName"`
	LastName      string        `json:"lastName"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	Address       string        `json:"address"`
	City          string        `json:"city"`
	PostalCode    string        `json:"postalCode"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	MpesaPhone    string        `json:"mpesaPhone,omitempty"`
	CardNumber    string        `json:"cardNumber,omitempty"`
	Expiry        string        `json:"expiry,omitempty"`
	CVV           string        `json:"cvv,omitempty"`
}

// ValidationError names the first form field that failed and the message shown for it
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"error"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Validate checks the form top to bottom and returns the first failure
func (f CheckoutForm) Validate() error {
	if strings.TrimSpace(f.FirstName) == "" || strings.TrimSpace(f.LastName) == "" {
		return invalid("name", "Please enter your full name")
	}
	if !emailPattern.MatchString(f.Email) {
		return invalid("email", "Please enter a valid email address")
	}
	if !phonePattern.MatchString(f.Phone) {
		return invalid("phone", "Please enter a valid Kenyan phone number (254XXXXXXXXX)")
	}
	if f.Address == "" || f.City == "" || f.PostalCode == "" {
		return invalid("address", "Please complete all shipping address fields")
	}

	switch f.PaymentMethod {
	case PaymentMpesa:
		if !phonePattern.MatchString(f.MpesaPhone) {
			return invalid("mpesaPhone", "Please enter a valid M-Pesa phone number (254XXXXXXXXX)")
		}
	case PaymentCard:
		if !cardPattern.MatchString(f.CardNumber) {
			return invalid("cardNumber", "Please enter a valid 16-digit card number")
		}
		if !expiryPattern.MatchString(f.Expiry) {
			return invalid("expiry", "Please enter a valid expiry date (MM/YY)")
		}
		if !cvvPattern.MatchString(f.CVV) {
			return invalid("cvv", "Please enter a valid 3-digit CVV")
		}
	case PaymentBank:
	default:
		return invalid("paymentMethod", "Please choose a payment method")
	}
	return nil
}

// FullName joins the first and last name
func (f CheckoutForm) FullName() string {
	return strings.TrimSpace(f.FirstName) + " " + strings.TrimSpace(f.LastName)
}

// CardLast4 is the only part of a card number that is kept
func (f CheckoutForm) CardLast4() string {
	if f.PaymentMethod != PaymentCard || len(f.CardNumber) < 4 {
		return ""
	}
	return f.CardNumber[len(f.CardNumber)-4:]
}
