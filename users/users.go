package users

import (
	"fmt"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// User is an app-side account: someone who signed up through the portal and
// may have a physical card bound to their account. The card UUID is what the
// member directory resolves during card verification.
type User struct {
	ID           string    `json:"id,omitempty"`          // Unique identifier for the user
	Username     string    `json:"username,omitempty"`    // Unique login id
	PasswordHash string    `json:"-"`                     // Hashed password - never serialize
	Phone        string    `json:"phone,omitempty"`       // Phone number for push notifications
	CardUUID     string    `json:"card_uuid,omitempty"`   // UUID of the bound physical card, if any
	DateJoined   time.Time `json:"date_joined,omitempty"` // When the account was created
	LastLogin    time.Time `json:"last_login,omitempty"`  // Last successful login
}

// HasCard reports whether a physical card is bound to the account.
func (u *User) HasCard() bool {
	return u.CardUUID != ""
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		}
		if unicode.IsLower(char) {
			hasLower = true
		}
		if unicode.IsNumber(char) {
			hasNumber = true
		}
	}

	if !hasUpper || !hasLower {
		return fmt.Errorf("password must contain uppercase and lowercase letters")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
