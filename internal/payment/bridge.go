package payment

import (
	"context"
	"errors"
	"log"

	"github.com/Anilparajuli4/eatery-go/internal/checkout"
	"github.com/Anilparajuli4/eatery-go/internal/domain"
	"github.com/Anilparajuli4/eatery-go/internal/notify"
)

// Outcome is the terminal result reported by the external payment flow.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeCanceled  Outcome = "canceled"
)

// ErrVerification means the external flow reported success but the backend
// could not confirm the order. The client cannot determine true payment
// state on its own, so the user is told to contact support.
var ErrVerification = errors.New("payment went through but the order could not be verified, please contact support")

// Confirmer is the external payment confirmation widget. Message carries
// the provider's failure text, surfaced verbatim.
type Confirmer interface {
	Confirm(ctx context.Context, clientSecret, orderID string) (Outcome, string, error)
}

// Verifier re-fetches the order after a successful confirmation.
type Verifier interface {
	ListOrders(ctx context.Context, ids []string) ([]domain.Order, error)
}

// Bridge hands a pending card payment to the external flow and reconciles
// the result back into the checkout machine. No retry logic lives here:
// on failure the shopper re-initiates.
type Bridge struct {
	confirmer Confirmer
	verifier  Verifier
	machine   *checkout.Machine
	notifier  notify.Notifier
}

func NewBridge(confirmer Confirmer, verifier Verifier, machine *checkout.Machine, notifier notify.Notifier) *Bridge {
	return &Bridge{
		confirmer: confirmer,
		verifier:  verifier,
		machine:   machine,
		notifier:  notifier,
	}
}

// Run drives one confirmation round-trip for the machine's pending payment.
func (b *Bridge) Run(ctx context.Context) (Outcome, error) {
	orderID, secret, err := b.machine.PendingPayment()
	if err != nil {
		return "", err
	}

	outcome, message, err := b.confirmer.Confirm(ctx, secret, orderID)
	if err != nil {
		b.notifier.Error("payment could not be started, please try again")
		return "", err
	}

	switch outcome {
	case OutcomeSucceeded:
		if err := b.verify(ctx, orderID); err != nil {
			b.notifier.Error(ErrVerification.Error())
			return OutcomeSucceeded, err
		}
		if err := b.machine.ConfirmExternalPayment(); err != nil {
			return OutcomeSucceeded, err
		}
		return OutcomeSucceeded, nil

	case OutcomeCanceled:
		// Order stays pending-payment server-side; abandoned payments are
		// reconciled by the backend, not here.
		b.machine.CancelExternalPayment()
		return OutcomeCanceled, nil

	default:
		b.notifier.Error(message)
		return OutcomeFailed, nil
	}
}

func (b *Bridge) verify(ctx context.Context, orderID string) error {
	orders, err := b.verifier.ListOrders(ctx, []string{orderID})
	if err != nil {
		log.Printf("payment verification fetch error: %v", err)
		return ErrVerification
	}
	for _, o := range orders {
		if o.ID == orderID {
			return nil
		}
	}
	return ErrVerification
}
