package authcore

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

const (
	minNameLength = 3
	maxNameLength = 255
)

var domainExtRe = regexp.MustCompile(`(\.[a-zA-Z]{2,})$`)

func validateCreateAccount(req CreateAccountRequest, minPassword int) error {
	fields := map[string]string{}

	if n := len(strings.TrimSpace(req.FirstName)); n < minNameLength || n > maxNameLength {
		fields["first_name"] = fmt.Sprintf("must be between %d and %d characters", minNameLength, maxNameLength)
	}
	if n := len(strings.TrimSpace(req.LastName)); n < minNameLength || n > maxNameLength {
		fields["last_name"] = fmt.Sprintf("must be between %d and %d characters", minNameLength, maxNameLength)
	}
	if !validEmail(req.Email) {
		fields["email"] = "must be a valid email address"
	}
	if len(req.Password) < minPassword {
		fields["password"] = fmt.Sprintf("must be at least %d characters", minPassword)
	}
	if req.Password != req.ConfirmPassword {
		fields["password_confirm"] = "must match password"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validateNewPassword(password, confirm string, minPassword int) error {
	fields := map[string]string{}

	if len(password) < minPassword {
		fields["password"] = fmt.Sprintf("must be at least %d characters", minPassword)
	}
	if password != confirm {
		fields["password_confirm"] = "must match password"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > maxNameLength {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// Reject display-name forms like "Ada <ada@example.com>".
	return addr.Address == email && strings.Contains(email, "@")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// maskEmail hides everything but the first character of the local part and
// the domain extension: ada@example.com becomes a**@.......com.
func maskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return email
	}
	local, domain := email[:at], email[at+1:]

	ext := domainExtRe.FindString(domain)
	stars := len(local) - 1
	if stars < 1 {
		stars = 1
	}
	dots := len(domain) - len(ext)
	if dots < 1 {
		dots = 1
	}

	return string(local[0]) + strings.Repeat("*", stars) + "@" + strings.Repeat(".", dots) + ext
}
