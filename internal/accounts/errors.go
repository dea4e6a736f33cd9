package accounts

import "errors"

var (
	ErrInvalidAadhaar    = errors.New("please enter a valid 12-digit Aadhaar number")
	ErrInvalidName       = errors.New("name is required")
	ErrInvalidEmail      = errors.New("please enter a valid email address")
	ErrInvalidMobile     = errors.New("please enter a valid 10-digit mobile number")
	ErrInvalidDOB        = errors.New("date of birth must be a past date in YYYY-MM-DD format")
	ErrWeakPassword      = errors.New("password must be at least 8 characters")
	ErrInvalidLanguage   = errors.New("language must be one of en, hi, te")
	ErrInvalidDescriptor = errors.New("face descriptor must have 128 values")

	// ErrAadhaarTaken is returned when registering an Aadhaar number twice.
	ErrAadhaarTaken = errors.New("accounts: aadhaar number already registered")

	// ErrInvalidCredentials covers both unknown Aadhaar and wrong password.
	ErrInvalidCredentials = errors.New("accounts: invalid aadhaar number or password")

	// ErrNotFound is returned when a user does not exist.
	ErrNotFound = errors.New("accounts: user not found")
)

// IsValidation reports whether err came from request validation.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidAadhaar, ErrInvalidName, ErrInvalidEmail, ErrInvalidMobile,
		ErrInvalidDOB, ErrWeakPassword, ErrInvalidLanguage, ErrInvalidDescriptor,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
