// Package ledger models the balance primitives the task engine escrows
// against. Reserved funds stay attached to the account but cannot be spent
// until unreserved or transferred away.
package ledger

import "errors"

var (
	// ErrInsufficientBalance is returned when an account's free balance
	// cannot cover a reserve or transfer.
	ErrInsufficientBalance = errors.New("insufficient free balance")

	// ErrKeepAlive is returned when a KeepAlive transfer would drop the
	// sender below the existential minimum.
	ErrKeepAlive = errors.New("transfer would kill sender account")
)

// TransferMode controls whether a transfer may empty the sender.
type TransferMode int

const (
	// AllowDeath lets the sender's balance drop to zero.
	AllowDeath TransferMode = iota
	// KeepAlive requires the sender to retain the existential minimum.
	KeepAlive
)

// Ledger is the narrow interface the engine calls. All operations are
// assumed atomic; the engine never observes a half-applied primitive.
type Ledger interface {
	FreeBalance(account string) uint64
	ReservedBalance(account string) uint64
	CanReserve(account string, amount uint64) bool
	Reserve(account string, amount uint64) error
	Unreserve(account string, amount uint64)
	Transfer(from, to string, amount uint64, mode TransferMode) error
}
