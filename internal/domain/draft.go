package domain

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// OrderDraft is the mutable checkout form state. It is created empty when
// checkout starts, edited across the steps, consumed exactly once on
// submission and then reset.
type OrderDraft struct {
	CustomerName       string
	CustomerPhone      string
	Pickup             PickupTime
	SpecialInstruction string
	PaymentMethod      PaymentMethod
	CustomerAddress    string
}

// DetailsComplete is the guard for leaving the details step: trimmed name
// non-empty and a 10-digit phone. Pure predicate, recomputed on every edit.
func (d *OrderDraft) DetailsComplete() bool {
	return strings.TrimSpace(d.CustomerName) != "" && phonePattern.MatchString(d.CustomerPhone)
}

// FieldErrors returns per-field validation messages for inline display.
// An empty map means the draft is submittable.
func (d *OrderDraft) FieldErrors() map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(d.CustomerName) == "" {
		errs["customerName"] = "name is required"
	}
	if !phonePattern.MatchString(d.CustomerPhone) {
		errs["customerPhone"] = "phone must be 10 digits"
	}
	if d.PaymentMethod != PaymentMethodCard && d.PaymentMethod != PaymentMethodCash {
		errs["paymentMethod"] = "select card or cash"
	}
	return errs
}

// Reset clears the draft back to its initial state.
func (d *OrderDraft) Reset() {
	*d = OrderDraft{Pickup: PickupTime{ASAP: true}}
}
