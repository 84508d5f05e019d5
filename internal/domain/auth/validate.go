package auth

import (
	"strings"
	"unicode/utf8"

	apperrors "github.com/sunstone-mind/sunstone-web/internal/errors"
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 6

// Local validation messages shown inline on the auth page.
const (
	MsgFillAllFields    = "Please fill in all fields"
	MsgPasswordMismatch = "Passwords do not match"
	MsgPasswordTooShort = "Password must be at least 6 characters long"
)

// SignUpForm is the sign-up form as submitted.
type SignUpForm struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// SignInForm is the sign-in form as submitted.
type SignInForm struct {
	Email    string
	Password string
}

// ValidateSignUp checks a sign-up form before anything is sent to the backend.
func ValidateSignUp(f SignUpForm) error {
	switch {
	case strings.TrimSpace(f.Name) == "":
		return apperrors.ValidationField("name", MsgFillAllFields)
	case strings.TrimSpace(f.Email) == "":
		return apperrors.ValidationField("email", MsgFillAllFields)
	case f.Password == "":
		return apperrors.ValidationField("password", MsgFillAllFields)
	case f.ConfirmPassword == "":
		return apperrors.ValidationField("confirm_password", MsgFillAllFields)
	case f.Password != f.ConfirmPassword:
		return apperrors.ValidationField("confirm_password", MsgPasswordMismatch)
	case utf8.RuneCountInString(f.Password) < MinPasswordLength:
		return apperrors.ValidationField("password", MsgPasswordTooShort)
	}
	return nil
}

// ValidateSignIn checks a sign-in form before anything is sent to the backend.
func ValidateSignIn(f SignInForm) error {
	if strings.TrimSpace(f.Email) == "" {
		return apperrors.ValidationField("email", MsgFillAllFields)
	}
	if f.Password == "" {
		return apperrors.ValidationField("password", MsgFillAllFields)
	}
	return nil
}
