package domain

// SubjectID is the authenticated subject (admin user id or dev subject).
// We model it as an opaque identifier.
type SubjectID string

// ReservationID is the internal identifier for a reservation record.
type ReservationID string

// MessageID is the internal identifier for a guest message record.
type MessageID string
