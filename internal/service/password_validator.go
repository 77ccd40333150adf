package service

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	"ideasplace/internal/errors"
	"ideasplace/internal/model"
)

const (
	minPasswordLength   = 8
	maxSimilarity       = 0.7
	passwordField       = "password"
	minAttributeCompare = 3
)

//go:embed common_passwords.txt
var commonPasswordList string

var nonWord = regexp.MustCompile(`\W+`)

// PasswordValidator enforces the account password policy.
type PasswordValidator struct {
	common map[string]struct{}
}

// NewPasswordValidator creates a validator with the built-in common password list.
func NewPasswordValidator() *PasswordValidator {
	common := make(map[string]struct{})
	for _, line := range strings.Split(commonPasswordList, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			common[strings.ToLower(line)] = struct{}{}
		}
	}
	return &PasswordValidator{common: common}
}

// Validate checks password against user's attributes. Every failed rule adds
// one message under the password field.
func (v *PasswordValidator) Validate(password string, user *model.User) error {
	verr := &errors.ValidationError{}

	if msg := v.similarity(password, user); msg != "" {
		verr.Add(passwordField, msg)
	}
	if len([]rune(password)) < minPasswordLength {
		verr.Add(passwordField, fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLength))
	}
	if _, ok := v.common[strings.ToLower(strings.TrimSpace(password))]; ok {
		verr.Add(passwordField, "This password is too common.")
	}
	if isNumeric(password) {
		verr.Add(passwordField, "This password is entirely numeric.")
	}

	return verr.OrNil()
}

func (v *PasswordValidator) similarity(password string, user *model.User) string {
	if user == nil {
		return ""
	}
	attributes := []struct {
		value string
		name  string
	}{
		{user.Username, "username"},
		{user.FirstName, "first name"},
		{user.LastName, "last name"},
		{user.Email, "email address"},
	}

	pw := strings.ToLower(password)
	for _, attr := range attributes {
		if attr.value == "" {
			continue
		}
		value := strings.ToLower(attr.value)
		parts := append(nonWord.Split(value, -1), value)
		for _, part := range parts {
			if len(part) < minAttributeCompare {
				continue
			}
			if matchRatio(pw, part) >= maxSimilarity {
				return fmt.Sprintf("The password is too similar to the %s.", attr.name)
			}
		}
	}
	return ""
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// matchRatio is the SequenceMatcher similarity of a and b, compared
// character by character.
func matchRatio(a, b string) float64 {
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
