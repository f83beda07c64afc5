package domain

import "fmt"

var (
	ErrorInvalidAddress = fmt.Errorf("invalid account address")
	ErrorZeroAmount     = fmt.Errorf("amount must be greater than zero")

	ErrorUnauthorized     = fmt.Errorf("caller is not the operator")
	ErrorNothingToCollect = fmt.Errorf("no earnings to collect")

	ErrorInsufficientBalance   = fmt.Errorf("insufficient balance")
	ErrorInsufficientAllowance = fmt.Errorf("insufficient allowance")

	ErrorInsufficientPrincipal = fmt.Errorf("amount exceeds account principal")
	ErrorDepositTooSmall       = fmt.Errorf("deposit is too small to mint a share")
	ErrorPoolInsolvent         = fmt.Errorf("pool has shares but no underlying in the venue")

	ErrorVenueInsufficientCash   = fmt.Errorf("venue has not enough cash")
	ErrorVenueInsufficientShares = fmt.Errorf("venue shares of supplier are not enough")

	ErrorOperatorMismatch = fmt.Errorf("stored operator differs from the configured one")
	ErrorRollbackFailed   = fmt.Errorf("rollback failed")
)
