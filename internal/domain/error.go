package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrOperationFailed = errors.New("operation failed")
	ErrUnsupported     = errors.New("operation not supported by this provider")

	// Reconciliation errors
	ErrUnknownProvider    = errors.New("no known payment provider matches the redirect parameters")
	ErrUnauthenticated    = errors.New("buyer must be signed in to complete this purchase")
	ErrPackageNotResolved = errors.New("package identifier could not be resolved")
	ErrProvisioningFailed = errors.New("provisioning failed")
	ErrReconcileInFlight  = errors.New("this payment is already being processed")

	// Referral errors
	ErrReferralExpired = errors.New("referral code has expired")
	ErrReferralOwn     = errors.New("referral code cannot be used by its owner")
)
