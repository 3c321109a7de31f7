package clientdata

import "time"

// Added to the current time when storing to compute expires_at.
const (
	TTLCurrentPrice = 30 * time.Minute
	TTLSecurityName = 30 * 24 * time.Hour // names rarely change
)
