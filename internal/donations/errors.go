package donations

import "errors"

// Donation request errors.
var (
	ErrDonationRequestNotFound = errors.New("donation request not found")
	ErrEmailRequired           = errors.New("email is required")
)
