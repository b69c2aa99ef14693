package organization

import "time"

// Organization is a group that tasks may be attached to. The engine only
// ever checks existence; the rest is bookkeeping for the API.
type Organization struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
}
