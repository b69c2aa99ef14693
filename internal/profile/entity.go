package profile

import "time"

// Profile is an account's marketplace identity. Holding one gates task
// creation; accepted tasks credit reputation and append to the volunteer's
// completed-task history.
type Profile struct {
	Account        string    `yaml:"account" json:"account"`
	Name           string    `yaml:"name" json:"name"`
	Interests      []string  `yaml:"interests,omitempty" json:"interests,omitempty"`
	Reputation     uint32    `yaml:"reputation" json:"reputation"`
	CompletedTasks []string  `yaml:"completed_tasks,omitempty" json:"completed_tasks,omitempty"`
	CreatedAt      time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt      time.Time `yaml:"updated_at" json:"updated_at"`
}
