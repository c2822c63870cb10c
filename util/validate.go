// Package util holds the stateless helpers the command layer applies before
// handing input to the vault: validation, password generation and website
// name normalization.
package util

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"
)

// SpecialChars is the symbol set accepted by the password rule and used by
// the generator.
const SpecialChars = "!@#$%^&*()-_+."

var emailRegex = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// Email validates the address format.
var Email = validation.NewStringRuleWithError(
	emailRegex.MatchString,
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// PasswordStrength requires minimum counts of each character class.
type PasswordStrength struct {
	MinLength  int
	MinLower   int
	MinUpper   int
	MinDigits  int
	MinSpecial int
}

// DefaultStrength is the policy for both stored and master passwords.
var DefaultStrength = PasswordStrength{MinLength: 8, MinLower: 3, MinUpper: 2, MinDigits: 2, MinSpecial: 1}

func (p PasswordStrength) Validate(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_password_type", "password must be a string")
	}
	var lower, upper, digits, special int
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower++
		case r >= 'A' && r <= 'Z':
			upper++
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune(SpecialChars, r):
			special++
		}
	}
	switch {
	case len([]rune(s)) < p.MinLength:
		return validation.NewError("validation_password_length", fmt.Sprintf("password must be at least %d characters", p.MinLength))
	case lower < p.MinLower:
		return validation.NewError("validation_password_lowercase", "password needs more lowercase letters")
	case upper < p.MinUpper:
		return validation.NewError("validation_password_uppercase", "password needs more uppercase letters")
	case digits < p.MinDigits:
		return validation.NewError("validation_password_digits", "password needs more digits")
	case special < p.MinSpecial:
		return validation.NewError("validation_password_special", "password needs a special character ("+SpecialChars+")")
	}
	return nil
}

// CheckEmail returns a descriptive error for an unusable address.
func CheckEmail(email string) error {
	return validation.Validate(email, validation.Required, Email)
}

func ValidateEmail(email string) bool {
	return CheckEmail(email) == nil
}

// CheckPassword returns the first strength rule password fails.
func CheckPassword(password string) error {
	return validation.Validate(password, validation.Required, DefaultStrength)
}

func ValidatePassword(password string) bool {
	return CheckPassword(password) == nil
}
