package utils

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// ValidationError represents a validation error on a single field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects field errors for one request.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Add records a field error.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, &ValidationError{Field: field, Message: message})
}

// Required records an error when value is blank.
func (v *ValidationErrors) Required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "field required")
		return false
	}
	return true
}

// MaxLength records an error when value is longer than max runes.
func (v *ValidationErrors) MaxLength(field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		v.Add(field, "must be at most "+strconv.Itoa(max)+" characters")
	}
}

// Email records an error when value is not a single bare address.
func (v *ValidationErrors) Email(field, value string) {
	if !v.Required(field, value) {
		return
	}
	if !IsValidEmail(value) {
		v.Add(field, "value is not a valid email address")
	}
}

// Err returns nil when no errors were recorded.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// IsValidEmail accepts plain addresses like "a@b.com" and rejects display
// names, missing domains and anything net/mail would rewrite.
func IsValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t\r\n")
}

// ValidateUsername validates admin username format.
// Rules: 3-32 characters, letters, numbers, underscore, dot or hyphen,
// starting with a letter or number.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)

	if len(username) < MinUsernameLength {
		return &ValidationError{Field: "username", Message: "must be at least 3 characters"}
	}
	if len(username) > MaxUsernameLength {
		return &ValidationError{Field: "username", Message: "must be at most 32 characters"}
	}
	if !usernameRegex.MatchString(username) {
		return &ValidationError{Field: "username", Message: "may only contain letters, numbers, underscores, dots and hyphens, and must start with a letter or number"}
	}
	return nil
}
