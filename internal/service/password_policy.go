package service

import "unicode/utf8"

const (
	MinPasswordLength = 8
	// bcrypt ignores input past 72 bytes and x/crypto rejects it outright.
	MaxPasswordBytes = 72
)

// ValidatePassword applies the password policy to a new password.
func ValidatePassword(pw string) error {
	if utf8.RuneCountInString(pw) < MinPasswordLength {
		return ErrPasswordTooWeak
	}
	if len(pw) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}
