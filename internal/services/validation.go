package services

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/isdelr/tasktrack-be/internal/apperr"
	"github.com/isdelr/tasktrack-be/internal/auth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// MinPasswordLength is the shortest accepted password, in characters.
	MinPasswordLength = 6
	maxEmailLength    = 254
)

// NormalizeEmail trims and lower-cases an address so lookups and the unique
// index agree on one spelling.
func NormalizeEmail(email string) string {
	// Casers hold state and must not be shared between goroutines.
	return cases.Lower(language.Und).String(strings.TrimSpace(email))
}

// ValidEmail reports whether email is a bare addr-spec with a dotted domain.
func ValidEmail(email string) bool {
	if email == "" || len(email) > maxEmailLength {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

type fieldErrors []apperr.FieldError

func (f *fieldErrors) add(field, msg string) {
	*f = append(*f, apperr.FieldError{Field: field, Message: msg})
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperr.Validation("Validation failed", f...)
}

func validatePassword(errs *fieldErrors, password string) {
	switch {
	case utf8.RuneCountInString(password) < MinPasswordLength:
		errs.add("password", "must be at least 6 characters")
	case len(password) > auth.MaxPasswordBytes:
		errs.add("password", "must be at most 72 bytes")
	}
}
