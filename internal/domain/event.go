package domain

import "time"

// Event is the wedding's configured event metadata.
// It is passed explicitly to the services that need it.
type Event struct {
	MaxCapacity int

	CoupleNames  string
	Date         time.Time
	VenueName    string
	VenueAddress string

	// AppBaseURL is the public web front-end origin used to build pass links and QR payloads.
	AppBaseURL string

	MessageWallEnabled bool
}
