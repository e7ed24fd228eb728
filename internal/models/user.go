// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Name                string     `json:"name" gorm:"size:100;not null"`
	Email               string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash        string     `json:"-" gorm:"size:255;not null"`
	Role                UserRole   `json:"role" gorm:"type:varchar(30);default:'customer';index"`
	Status              UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	EmailVerifiedAt     *time.Time `json:"email_verified_at,omitempty"`
	VerificationToken   string     `json:"-" gorm:"size:64;index"`
	FailedLoginAttempts int        `json:"-" gorm:"not null;default:0"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`

	Reviews []Review `json:"reviews,omitempty" gorm:"foreignKey:UserID"`
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

// Locked reports whether the account is under a login lockout at time t.
func (u *User) Locked(t time.Time) bool {
	return u.LockedUntil != nil && t.Before(*u.LockedUntil)
}
