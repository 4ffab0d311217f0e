// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Permission levels derived from the capability flags on Permissions.
// An inactive or password-suspended account is always LevelUnverified,
// regardless of flags.
const (
	LevelUnverified = 0
	LevelHacker     = 1
	LevelCheckIn    = 2
	LevelAdmin      = 3
	LevelReviewer   = 4
	LevelOwner      = 5
	LevelDeveloper  = 6
)

// Permissions holds the independent capability flags for a user.
type Permissions struct {
	Verified  bool `bson:"verified" json:"verified"`
	CheckIn   bool `bson:"checkin" json:"checkin"`
	Admin     bool `bson:"admin" json:"admin"`
	Reviewer  bool `bson:"reviewer" json:"reviewer"`
	Owner     bool `bson:"owner" json:"owner"`
	Developer bool `bson:"developer" json:"developer"`
}

// Status holds the admission/application sub-state of a user.
//
// Admitted, Rejected, and Waitlisted are stored independently but are
// mutually exclusive in practice: every transition into one of them clears
// the other two in the same update. StatusReleased gates whether the user
// can see the decision; it is independent of the decision itself.
type Status struct {
	Active             bool   `bson:"active" json:"active"`
	PasswordSuspension bool   `bson:"password_suspension" json:"password_suspension"`

	SubmittedApplication bool `bson:"submitted_application" json:"submitted_application"`

	Admitted   bool   `bson:"admitted" json:"admitted"`
	AdmittedBy string `bson:"admitted_by,omitempty" json:"admitted_by,omitempty"`
	Rejected   bool   `bson:"rejected" json:"rejected"`
	Waitlisted bool   `bson:"waitlisted" json:"waitlisted"`

	StatusReleased bool `bson:"status_released" json:"status_released"`

	Confirmed bool       `bson:"confirmed" json:"confirmed"`
	Declined  bool       `bson:"declined" json:"declined"`
	ConfirmBy *time.Time `bson:"confirm_by,omitempty" json:"confirm_by,omitempty"`

	CheckedIn bool `bson:"checked_in" json:"checked_in"`
	Waiver    bool `bson:"waiver" json:"waiver"`
}

// PointsEntry is one signed entry in a user's points ledger.
type PointsEntry struct {
	Amount    int                `bson:"amount" json:"amount"`
	AwardedBy primitive.ObjectID `bson:"awarded_by" json:"awarded_by"`
	Notes     string             `bson:"notes" json:"notes"`
	AwardedAt time.Time          `bson:"awarded_at" json:"awarded_at"`
}

// User represents a registrant (hacker) or organizer account.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"` // lowercased, unique
	FirstName string             `bson:"first_name" json:"first_name"`
	LastName  string             `bson:"last_name" json:"last_name"`
	Password  string             `bson:"password,omitempty" json:"-"` // bcrypt hash

	Permissions Permissions `bson:"permissions" json:"permissions"`
	Status      Status      `bson:"status" json:"status"`

	// Voting ledger. ApplicationVotes is the union/audit trail of the other
	// two, and NumVotes tracks its length.
	ApplicationAdmit  []string `bson:"application_admit" json:"application_admit"`
	ApplicationReject []string `bson:"application_reject" json:"application_reject"`
	ApplicationVotes  []string `bson:"application_votes" json:"application_votes"`
	NumVotes          int      `bson:"num_votes" json:"num_votes"`

	// TeamCode is empty when the user is unaffiliated; otherwise it refers
	// to Team.Code (not Team.ID).
	TeamCode string `bson:"team_code" json:"team_code"`

	PointsHistory []PointsEntry `bson:"points_history,omitempty" json:"points_history,omitempty"`

	CheckInTime *time.Time `bson:"check_in_time,omitempty" json:"check_in_time,omitempty"`

	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	LastUpdated time.Time `bson:"last_updated" json:"last_updated"`
}

// FullName returns the display name for the user.
func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return ""
	}
	return u.FirstName + " " + u.LastName
}

// Level derives the numeric permission level from the capability flags.
// Inactive and password-suspended accounts are forced to LevelUnverified.
func (u *User) Level() int {
	if !u.Status.Active || u.Status.PasswordSuspension {
		return LevelUnverified
	}
	switch {
	case u.Permissions.Developer:
		return LevelDeveloper
	case u.Permissions.Owner:
		return LevelOwner
	case u.Permissions.Reviewer:
		return LevelReviewer
	case u.Permissions.Admin:
		return LevelAdmin
	case u.Permissions.CheckIn:
		return LevelCheckIn
	case u.Permissions.Verified:
		return LevelHacker
	}
	return LevelUnverified
}

// IsStaff reports whether the user holds any elevated permission flag.
// Staff accounts are never hidden by bulk status operations.
func (u *User) IsStaff() bool {
	return u.Permissions.CheckIn || u.Permissions.Admin ||
		u.Permissions.Reviewer || u.Permissions.Owner || u.Permissions.Developer
}

// Decided reports whether an admission decision has been recorded.
func (u *User) Decided() bool {
	return u.Status.Admitted || u.Status.Rejected || u.Status.Waitlisted
}

// PointsTotal sums the points ledger. The total is never stored.
func (u *User) PointsTotal() int {
	var total int
	for _, e := range u.PointsHistory {
		total += e.Amount
	}
	return total
}
