// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"
)

type User struct {
	BaseModel
	Username     string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	LastLoginAt  *time.Time `json:"last_login_at"`

	// Every user has exactly one profile, created in the same transaction
	// as the user itself.
	Profile *Profile `json:"profile,omitempty" gorm:"foreignKey:UserID"`

	Requests []LicenseRequest `json:"requests,omitempty" gorm:"foreignKey:UserID"`
	Issues   []IssueReport    `json:"issues,omitempty" gorm:"foreignKey:ReportedByID"`
}

type Profile struct {
	BaseModel
	UserID     uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	Role       Role      `json:"role" gorm:"type:varchar(10);default:'USER';not null"`
	Department string    `json:"department" gorm:"size:100"`
	// DepartmentKey is the lower-cased, trimmed form of Department; every
	// department comparison goes through it.
	DepartmentKey string `json:"-" gorm:"size:100;index"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// SetDepartment keeps the display casing and the normalized key in sync.
func (p *Profile) SetDepartment(name string) {
	p.Department = name
	p.DepartmentKey = NormalizeDepartment(name)
}
