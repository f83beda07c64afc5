package domain

import sdkmath "cosmossdk.io/math"

type StatisticResult struct {
	TotalShares    sdkmath.Uint
	TotalLocked    sdkmath.Uint
	TotalEarnings  sdkmath.Uint
	CurrentEarning sdkmath.Uint
	VenueBalance   sdkmath.Uint
	Accounts       int
	Epoch          uint64
}
