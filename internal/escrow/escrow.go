// Package escrow is the accounting layer between the task engine and the
// ledger. It owns the rule that a live record's reservation always equals
// its budget field: budget changes resolve the balance delta before the
// record is touched, and each record's funds are resolved exactly once —
// released back to the initiator or paid out to the volunteer, never both.
package escrow

import "github.com/taskmarket/taskmarket/internal/ledger"

type Accountant struct {
	ledger ledger.Ledger
}

func New(l ledger.Ledger) *Accountant {
	return &Accountant{ledger: l}
}

// CanFund reports whether account's free balance covers amount.
func (a *Accountant) CanFund(account string, amount uint64) bool {
	return a.ledger.CanReserve(account, amount)
}

// Fund reserves the full budget of a new record against the initiator.
func (a *Accountant) Fund(account string, amount uint64) error {
	if !a.ledger.CanReserve(account, amount) {
		return ledger.ErrInsufficientBalance
	}
	return a.ledger.Reserve(account, amount)
}

// Adjust resolves a budget change: the positive difference is reserved on
// top of the existing reservation, a negative difference is released. A
// failed reservation leaves the ledger unchanged.
func (a *Accountant) Adjust(account string, oldBudget, newBudget uint64) error {
	switch {
	case newBudget > oldBudget:
		diff := newBudget - oldBudget
		if !a.ledger.CanReserve(account, diff) {
			return ledger.ErrInsufficientBalance
		}
		return a.ledger.Reserve(account, diff)
	case newBudget < oldBudget:
		a.ledger.Unreserve(account, oldBudget-newBudget)
	}
	return nil
}

// Release returns a record's full reservation to the initiator (remove,
// sweep).
func (a *Accountant) Release(account string, amount uint64) {
	a.ledger.Unreserve(account, amount)
}

// Payout resolves the reservation forward: unreserve from the initiator,
// transfer to the volunteer. If the transfer fails the reservation is
// restored, so the ledger is unchanged on error.
func (a *Accountant) Payout(initiator, volunteer string, amount uint64) error {
	a.ledger.Unreserve(initiator, amount)
	if err := a.ledger.Transfer(initiator, volunteer, amount, ledger.AllowDeath); err != nil {
		// The unreserve above just freed this amount, so re-reserving
		// cannot fail.
		_ = a.ledger.Reserve(initiator, amount)
		return err
	}
	return nil
}

// RevertPayout compensates a completed Payout when a later step of the
// accept operation fails: the funds move back and are reserved again.
func (a *Accountant) RevertPayout(initiator, volunteer string, amount uint64) error {
	if err := a.ledger.Transfer(volunteer, initiator, amount, ledger.AllowDeath); err != nil {
		return err
	}
	return a.ledger.Reserve(initiator, amount)
}
