package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Campaign processing constants
const (
	// RecipientBatchSize is the insert batch size for recipient materialization
	RecipientBatchSize = 100

	// VariantDrawUpperBound is the exclusive upper bound for A/B draws
	VariantDrawUpperBound = 100.0

	// AnalyticsCacheTTL is how long aggregated campaign analytics stay cached
	AnalyticsCacheTTL = 2 * time.Minute
)
