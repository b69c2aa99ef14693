package task

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Status is the lifecycle state of a task record.
//
// Valid transitions: Created -> InProgress -> Completed -> Accepted, with
// Completed -> InProgress on rejection. Created records can also be removed
// outright. Accepted is terminal and never stored: the record is deleted in
// the same operation that sets it.
type Status string

const (
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAccepted   Status = "accepted"
)

// Task is an escrowed work record. Budget is reserved against the initiator
// from creation until the record is removed (released) or accepted
// (transferred to the volunteer).
type Task struct {
	ID            string `yaml:"id" json:"id"`
	Title         string `yaml:"title" json:"title"`
	Specification string `yaml:"specification" json:"specification"`
	Initiator     string `yaml:"initiator" json:"initiator"`
	Volunteer     string `yaml:"volunteer" json:"volunteer"`
	CurrentOwner  string `yaml:"current_owner" json:"current_owner"`
	Status        Status `yaml:"status" json:"status"`
	Budget        uint64 `yaml:"budget" json:"budget"`
	Deadline      int64  `yaml:"deadline" json:"deadline"`         // unix milliseconds
	Attachments   string `yaml:"attachments,omitempty" json:"attachments,omitempty"`
	Keywords      string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Feedback      string `yaml:"feedback,omitempty" json:"feedback,omitempty"`
	Organization  string `yaml:"organization,omitempty" json:"organization,omitempty"`
	CreatedAt     uint64 `yaml:"created_at" json:"created_at"`     // round number
	UpdatedAt     uint64 `yaml:"updated_at" json:"updated_at"`     // round number, 0 = never
	CompletedAt   uint64 `yaml:"completed_at" json:"completed_at"` // round number, 0 = never
}

// computeID derives the record's primary key: a SHA-256 digest over the
// canonical encoding of the creation-time fields. Including the creation
// stamp keeps structurally identical tasks created in different rounds
// distinct; an identical task in the same round derives the same id and is
// rejected at creation.
func computeID(t *Task) string {
	h := sha256.New()
	writeField := func(s string) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	writeUint := func(v uint64) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], v)
		h.Write(n[:])
	}
	writeField(t.Title)
	writeField(t.Specification)
	writeField(t.Initiator)
	writeField(t.Attachments)
	writeField(t.Keywords)
	writeField(t.Organization)
	writeUint(t.Budget)
	writeUint(uint64(t.Deadline))
	writeUint(t.CreatedAt)
	return hex.EncodeToString(h.Sum(nil))
}

func (t *Task) clone() *Task {
	copied := *t
	return &copied
}
