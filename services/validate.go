package services

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/lborres/realty/core"
)

const (
	maxNameLength     = 255
	maxEmailLength    = 255
	minPasswordLength = 8
	maxPasswordLength = 1024
)

func msgRequired(field string) string {
	return fmt.Sprintf("The %s field is required.", field)
}

func msgTooLong(field string, n int) string {
	return fmt.Sprintf("The %s field must not be greater than %d characters.", field, n)
}

func msgTooShort(field string, n int) string {
	return fmt.Sprintf("The %s field must be at least %d characters.", field, n)
}

func msgEmail(field string) string {
	return fmt.Sprintf("The %s field must be a valid email address.", field)
}

// normalizeEmail is the canonical form used for storage and lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail accepts a bare addr-spec with a non-empty domain.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	return at > 0 && at < len(email)-1
}

func validateEmail(v *core.ValidationError, email string) {
	switch {
	case email == "":
		v.Add("email", msgRequired("email"))
	case utf8.RuneCountInString(email) > maxEmailLength:
		v.Add("email", msgTooLong("email", maxEmailLength))
	case !validEmail(email):
		v.Add("email", msgEmail("email"))
	}
}

func validateRegister(in core.RegisterInput) *core.ValidationError {
	v := core.NewValidationError()

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		v.Add("name", msgRequired("name"))
	case utf8.RuneCountInString(name) > maxNameLength:
		v.Add("name", msgTooLong("name", maxNameLength))
	}

	validateEmail(v, in.Email)

	// Length is counted in characters, not bytes.
	n := utf8.RuneCountInString(in.Password)
	switch {
	case in.Password == "":
		v.Add("password", msgRequired("password"))
	case n < minPasswordLength:
		v.Add("password", msgTooShort("password", minPasswordLength))
	case n > maxPasswordLength:
		v.Add("password", msgTooLong("password", maxPasswordLength))
	}

	return v
}

func validateLogin(in core.LoginInput) *core.ValidationError {
	v := core.NewValidationError()
	validateEmail(v, in.Email)
	if in.Password == "" {
		v.Add("password", msgRequired("password"))
	}
	return v
}

func validateListing(in core.ListingInput) (*core.ValidationError, string, string) {
	v := core.NewValidationError()

	title := strings.TrimSpace(in.Title)
	if title == "" {
		v.Add("title", msgRequired("title"))
	} else if utf8.RuneCountInString(title) > maxNameLength {
		v.Add("title", msgTooLong("title", maxNameLength))
	}

	location := strings.TrimSpace(in.Location)
	if location == "" {
		v.Add("location", msgRequired("location"))
	}

	switch {
	case in.PriceInvalid:
		v.Add("price", "The price field must be a number.")
	case in.Price == nil:
		v.Add("price", msgRequired("price"))
	case *in.Price < 0:
		v.Add("price", "The price field must be at least 0.")
	}

	return v, title, location
}
