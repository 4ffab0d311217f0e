// internal/domain/models/team.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxTeamSize is the hard cap on team membership. Joins that would
// exceed it are rejected atomically in the store layer.
const MaxTeamSize = 4

// Team is a group of users identified by a short join code.
//
// Members reference the team by Team.Code on their user record, not by
// ID. A deactivated team keeps its member list for the record, but the
// members' team codes are cleared and the code can no longer be joined.
type Team struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string               `bson:"name" json:"name"`
	NameCI    string               `bson:"name_ci" json:"-"` // case-folded for the unique name index
	Code      string               `bson:"code" json:"code"` // short join code, unique
	MemberIDs []primitive.ObjectID `bson:"member_ids" json:"member_ids"`

	Active        bool       `bson:"active" json:"active"`
	DeactivatedAt *time.Time `bson:"deactivated_at,omitempty" json:"deactivated_at,omitempty"`

	PointsHistory []PointsEntry `bson:"points_history,omitempty" json:"points_history,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Size returns the current member count.
func (t *Team) Size() int { return len(t.MemberIDs) }

// HasMember reports whether id is in the member list.
func (t *Team) HasMember(id primitive.ObjectID) bool {
	for _, m := range t.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

// PointsTotal sums the team's points ledger.
func (t *Team) PointsTotal() int {
	var total int
	for _, e := range t.PointsHistory {
		total += e.Amount
	}
	return total
}
