package models

import (
	"time"
)

// Specialization is a medical specialty doctors can be filed under.
type Specialization struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Doctor is the bookable profile of an account with the doctor role.
type Doctor struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	UserID           string          `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	DisplayName      string          `gorm:"size:200;not null" json:"displayName"`
	SpecializationID *uint           `gorm:"index" json:"specializationId"`
	Bio              string          `gorm:"type:text" json:"bio,omitempty"`
	ConsultationFee  float64         `gorm:"default:0" json:"consultationFee"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	Specialization   *Specialization `gorm:"foreignKey:SpecializationID" json:"specialization,omitempty"`
	User             *User           `gorm:"foreignKey:UserID" json:"-"`
}

// DisplayNameFor builds the default directory name of a doctor account.
func DisplayNameFor(u *User) string {
	name := u.FullName()
	if name == "" {
		name = u.Email
	}
	return "Dr. " + name
}
