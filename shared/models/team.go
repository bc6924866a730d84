// shared/models/team.go
package models

import "time"

// Team is a registered team. ID is the record key and is never written as a field.
type Team struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Name         string    `bson:"name,omitempty" json:"name,omitempty"`
	RegisteredAt time.Time `bson:"registeredAt" json:"registeredAt"`
	Group        string    `bson:"group" json:"group"`
}

// Validate checks the shape rules that hold for every stored team.
func (t Team) Validate() error {
	if t.Group == "" && t.ID == "" {
		return Validationf("group is required")
	}
	if t.Group == "" {
		return Validationf("team %s has an empty group", t.ID)
	}
	return nil
}

// Group is the denormalized team count for one group label.
// A group record only exists while Count > 0.
type Group struct {
	ID    string `bson:"_id,omitempty" json:"id"`
	Count int64  `bson:"count" json:"count"`
}
