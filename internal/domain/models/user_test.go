package models

import "testing"

func activeUser() User {
	return User{Status: Status{Active: true}}
}

func TestLevel_DerivedFromFlags(t *testing.T) {
	tests := []struct {
		name string
		set  func(*User)
		want int
	}{
		{"unverified", func(u *User) {}, LevelUnverified},
		{"verified hacker", func(u *User) { u.Permissions.Verified = true }, LevelHacker},
		{"checkin", func(u *User) { u.Permissions.CheckIn = true }, LevelCheckIn},
		{"admin", func(u *User) { u.Permissions.Admin = true }, LevelAdmin},
		{"reviewer outranks admin", func(u *User) {
			u.Permissions.Admin = true
			u.Permissions.Reviewer = true
		}, LevelReviewer},
		{"owner", func(u *User) { u.Permissions.Owner = true }, LevelOwner},
		{"developer", func(u *User) { u.Permissions.Developer = true }, LevelDeveloper},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := activeUser()
			tt.set(&u)
			if got := u.Level(); got != tt.want {
				t.Errorf("Level() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLevel_InactiveOverridesFlags(t *testing.T) {
	u := activeUser()
	u.Permissions.Developer = true
	u.Status.Active = false
	if got := u.Level(); got != LevelUnverified {
		t.Errorf("inactive developer Level() = %d, want %d", got, LevelUnverified)
	}

	u = activeUser()
	u.Permissions.Admin = true
	u.Status.PasswordSuspension = true
	if got := u.Level(); got != LevelUnverified {
		t.Errorf("suspended admin Level() = %d, want %d", got, LevelUnverified)
	}
}

func TestIsStaff(t *testing.T) {
	u := activeUser()
	if u.IsStaff() {
		t.Error("plain user should not be staff")
	}
	u.Permissions.CheckIn = true
	if !u.IsStaff() {
		t.Error("checkin user should be staff")
	}
}

func TestDecided(t *testing.T) {
	u := activeUser()
	if u.Decided() {
		t.Error("fresh user should be undecided")
	}
	for _, set := range []func(*User){
		func(u *User) { u.Status.Admitted = true },
		func(u *User) { u.Status.Rejected = true },
		func(u *User) { u.Status.Waitlisted = true },
	} {
		v := activeUser()
		set(&v)
		if !v.Decided() {
			t.Error("expected Decided()=true")
		}
	}
}

func TestFullName(t *testing.T) {
	u := User{FirstName: "Grace", LastName: "Hopper"}
	if got := u.FullName(); got != "Grace Hopper" {
		t.Errorf("FullName() = %q", got)
	}
	empty := User{}
	if got := empty.FullName(); got != "" {
		t.Errorf("FullName() = %q, want empty", got)
	}
}

func TestPointsTotal(t *testing.T) {
	u := User{PointsHistory: []PointsEntry{{Amount: 10}, {Amount: -3}, {Amount: 5}}}
	if got := u.PointsTotal(); got != 12 {
		t.Errorf("PointsTotal() = %d, want 12", got)
	}
	if got := (&User{}).PointsTotal(); got != 0 {
		t.Errorf("empty PointsTotal() = %d, want 0", got)
	}
}
