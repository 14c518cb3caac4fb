package model

import "time"

// Gender values accepted for a user profile.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// User represents a registered account and its breathing-test profile.
type User struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	FirstName string    `gorm:"size:50;not null" json:"firstName"`
	LastName  string    `gorm:"size:50;not null" json:"lastName"`
	Username  string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	DOB       string    `gorm:"column:date_of_birth;size:10;not null" json:"dob"`
	Weight    float64   `gorm:"not null" json:"weight"`
	Height    float64   `gorm:"not null" json:"height"`
	Gender    string    `gorm:"size:10;not null" json:"gender"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	// Associations
	Machines []Machine `gorm:"foreignKey:OwnerID" json:"-"`
}

// OwnerSummary is the owner projection embedded in machine responses.
type OwnerSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Summary returns the projection of the user exposed on owned resources.
func (u *User) Summary(includeEmail bool) OwnerSummary {
	s := OwnerSummary{ID: u.ID, Username: u.Username}
	if includeEmail {
		s.Email = u.Email
	}
	return s
}
