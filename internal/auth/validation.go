package auth

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/gdg-garage/badminton-api/internal/apperr"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	MinSkillLevel = 1
	MaxSkillLevel = 10

	// bcrypt refuses anything longer.
	maxPasswordBytes = 72
)

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return apperr.New(apperr.InvalidInput, "Invalid email format")
	}
	return nil
}

// ValidatePassword requires at least 8 characters with a lowercase letter,
// an uppercase letter and a digit, and at most 72 bytes.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return apperr.New(apperr.InvalidInput, "Password must be at least 8 characters")
	}
	if len(password) > maxPasswordBytes {
		return apperr.New(apperr.InvalidInput, "Password must be at most 72 bytes")
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	switch {
	case !lower:
		return apperr.New(apperr.InvalidInput, "Password must contain at least one lowercase letter")
	case !upper:
		return apperr.New(apperr.InvalidInput, "Password must contain at least one uppercase letter")
	case !digit:
		return apperr.New(apperr.InvalidInput, "Password must contain at least one number")
	}
	return nil
}

func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperr.New(apperr.InvalidInput, "Name is required")
	}
	if len([]rune(name)) > 100 {
		return apperr.New(apperr.InvalidInput, "Name must be at most 100 characters")
	}
	return nil
}

func ValidatePhone(phone string) error {
	if len(phone) > 20 {
		return apperr.New(apperr.InvalidInput, "Phone must be at most 20 characters")
	}
	return nil
}

func ValidateSkillLevel(level int) error {
	if level < MinSkillLevel || level > MaxSkillLevel {
		return apperr.New(apperr.InvalidSkillLevel, "Skill level must be an integer between 1 and 10")
	}
	return nil
}
