package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/weddingpass/pass-api/internal/app/auth"
	"github.com/weddingpass/pass-api/internal/app/messages"
	"github.com/weddingpass/pass-api/internal/app/reservations"
	"github.com/weddingpass/pass-api/internal/domain"
)

type reservationDTO struct {
	ID                 string               `json:"id"`
	Code               string               `json:"code"`
	GuestName          string               `json:"guestName"`
	NumberOfGuests     int                  `json:"numberOfGuests"`
	AccompanistNames   []string             `json:"accompanistNames"`
	Accompanists       []domain.Accompanist `json:"accompanists"`
	MainGuestAttending bool                 `json:"mainGuestAttending"`
	Status             string               `json:"status"`
	Table              *string              `json:"table"`
	Group              *string              `json:"group"`
	Notes              *string              `json:"notes"`
	CreatedAt          time.Time            `json:"createdAt"`
	UpdatedAt          time.Time            `json:"updatedAt"`
	CheckedInAt        *time.Time           `json:"checkedInAt"`
	PassURL            string               `json:"passUrl"`
}

func (s *Server) reservationFromDomain(r domain.Reservation) reservationDTO {
	names := r.AccompanistNames
	if names == nil {
		names = []string{}
	}
	return reservationDTO{
		ID:                 string(r.ID),
		Code:               r.Code,
		GuestName:          r.GuestName,
		NumberOfGuests:     r.NumberOfGuests,
		AccompanistNames:   names,
		Accompanists:       r.Accompanists,
		MainGuestAttending: r.MainGuestAttending,
		Status:             string(r.Status),
		Table:              r.Table,
		Group:              r.Group,
		Notes:              r.Notes,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		CheckedInAt:        r.CheckedInAt,
		PassURL:            s.Reservations.PassURL(r.Code),
	}
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type reservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

func (s *Server) reservationsFromDomain(rs []domain.Reservation) reservationsResponse {
	out := make([]reservationDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, s.reservationFromDomain(r))
	}
	return reservationsResponse{Reservations: out}
}

// passReservationDTO is what the pass owner sees: no admin notes or internal ids.
type passReservationDTO struct {
	Code               string               `json:"code"`
	GuestName          string               `json:"guestName"`
	NumberOfGuests     int                  `json:"numberOfGuests"`
	AccompanistNames   []string             `json:"accompanistNames"`
	Accompanists       []domain.Accompanist `json:"accompanists"`
	MainGuestAttending bool                 `json:"mainGuestAttending"`
	Status             string               `json:"status"`
	Table              *string              `json:"table"`
	CheckedInAt        *time.Time           `json:"checkedInAt"`
}

type eventDTO struct {
	CoupleNames        string    `json:"coupleNames"`
	Date               time.Time `json:"date"`
	VenueName          string    `json:"venueName"`
	VenueAddress       string    `json:"venueAddress"`
	MessageWallEnabled bool      `json:"messageWallEnabled"`
}

func eventFromDomain(e domain.Event) eventDTO {
	return eventDTO{
		CoupleNames:        e.CoupleNames,
		Date:               e.Date,
		VenueName:          e.VenueName,
		VenueAddress:       e.VenueAddress,
		MessageWallEnabled: e.MessageWallEnabled,
	}
}

type passResponse struct {
	Reservation passReservationDTO `json:"reservation"`
	Event       eventDTO           `json:"event"`
	PassURL     string             `json:"passUrl"`
}

func (s *Server) passFromDomain(r domain.Reservation) passResponse {
	names := r.AccompanistNames
	if names == nil {
		names = []string{}
	}
	return passResponse{
		Reservation: passReservationDTO{
			Code:               r.Code,
			GuestName:          r.GuestName,
			NumberOfGuests:     r.NumberOfGuests,
			AccompanistNames:   names,
			Accompanists:       r.Accompanists,
			MainGuestAttending: r.MainGuestAttending,
			Status:             string(r.Status),
			Table:              r.Table,
			CheckedInAt:        r.CheckedInAt,
		},
		Event:   eventFromDomain(s.Reservations.Event()),
		PassURL: s.Reservations.PassURL(r.Code),
	}
}

type reservationStatsDTO struct {
	TotalReservations     int `json:"totalReservations"`
	TotalGuests           int `json:"totalGuests"`
	ConfirmedAttendees    int `json:"confirmedAttendees"`
	AvailableSpots        int `json:"availableSpots"`
	MaxCapacity           int `json:"maxCapacity"`
	PendingReservations   int `json:"pendingReservations"`
	ConfirmedReservations int `json:"confirmedReservations"`
	CheckedInReservations int `json:"checkedInReservations"`
	CheckedInGuests       int `json:"checkedInGuests"`
}

type createReservationRequest struct {
	GuestName          string   `json:"guestName"`
	NumberOfGuests     int      `json:"numberOfGuests"`
	AccompanistNames   []string `json:"accompanistNames,omitempty"`
	MainGuestAttending *bool    `json:"mainGuestAttending,omitempty"`
	Table              *string  `json:"table,omitempty"`
	Group              *string  `json:"group,omitempty"`
	Notes              *string  `json:"notes,omitempty"`
}

func (b createReservationRequest) toInput() reservations.CreateInput {
	return reservations.CreateInput{
		GuestName:          b.GuestName,
		NumberOfGuests:     b.NumberOfGuests,
		AccompanistNames:   b.AccompanistNames,
		MainGuestAttending: b.MainGuestAttending,
		Table:              b.Table,
		Group:              b.Group,
		Notes:              b.Notes,
	}
}

type updateReservationRequest struct {
	GuestName          nullable.Nullable[string]               `json:"guestName,omitempty"`
	NumberOfGuests     nullable.Nullable[int]                  `json:"numberOfGuests,omitempty"`
	AccompanistNames   nullable.Nullable[[]string]             `json:"accompanistNames,omitempty"`
	Accompanists       nullable.Nullable[[]domain.Accompanist] `json:"accompanists,omitempty"`
	MainGuestAttending nullable.Nullable[bool]                 `json:"mainGuestAttending,omitempty"`
	Status             nullable.Nullable[string]               `json:"status,omitempty"`
	Table              nullable.Nullable[string]               `json:"table,omitempty"`
	Group              nullable.Nullable[string]               `json:"group,omitempty"`
	Notes              nullable.Nullable[string]               `json:"notes,omitempty"`
}

func (b updateReservationRequest) toInput() reservations.UpdateInput {
	in := reservations.UpdateInput{
		GuestName:          optionalFromNullable(b.GuestName),
		NumberOfGuests:     optionalFromNullable(b.NumberOfGuests),
		AccompanistNames:   optionalFromNullable(b.AccompanistNames),
		Accompanists:       optionalFromNullable(b.Accompanists),
		MainGuestAttending: optionalFromNullable(b.MainGuestAttending),
		Table:              optionalFromNullable(b.Table),
		Group:              optionalFromNullable(b.Group),
		Notes:              optionalFromNullable(b.Notes),
	}
	status := optionalFromNullable(b.Status)
	switch {
	case !status.IsSpecified():
	case status.IsNull():
		in.Status = reservations.Null[domain.ReservationStatus]()
	default:
		in.Status = reservations.Some(domain.ReservationStatus(status.Value()))
	}
	return in
}

func optionalFromNullable[T any](n nullable.Nullable[T]) reservations.Optional[T] {
	if !n.IsSpecified() {
		return reservations.Unspecified[T]()
	}
	if n.IsNull() {
		return reservations.Null[T]()
	}
	v, err := n.Get()
	if err != nil {
		return reservations.Unspecified[T]()
	}
	return reservations.Some(v)
}

type confirmRequest struct {
	MainGuestAttending bool                 `json:"mainGuestAttending"`
	Accompanists       []domain.Accompanist `json:"accompanists"`
}

type checkInByScanRequest struct {
	// Scanned is the raw QR payload or a typed invitation code.
	Scanned string `json:"scanned"`
}

type messageDTO struct {
	ID            string    `json:"id"`
	ReservationID string    `json:"reservationId"`
	GuestName     string    `json:"guestName"`
	Message       string    `json:"message"`
	MessageType   string    `json:"messageType"`
	IsPublic      bool      `json:"isPublic"`
	IsBlocked     bool      `json:"isBlocked"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func messageFromDomain(m domain.GuestMessage) messageDTO {
	return messageDTO{
		ID:            string(m.ID),
		ReservationID: string(m.ReservationID),
		GuestName:     m.GuestName,
		Message:       m.Message,
		MessageType:   string(m.MessageType),
		IsPublic:      m.IsPublic,
		IsBlocked:     m.IsBlocked,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

type messageResponse struct {
	Message messageDTO `json:"message"`
}

type messagesResponse struct {
	Messages []messageDTO `json:"messages"`
}

func messagesFromDomain(ms []domain.GuestMessage) messagesResponse {
	out := make([]messageDTO, 0, len(ms))
	for _, m := range ms {
		out = append(out, messageFromDomain(m))
	}
	return messagesResponse{Messages: out}
}

type publicMessageDTO struct {
	ID          string    `json:"id"`
	GuestName   string    `json:"guestName"`
	Message     string    `json:"message"`
	MessageType string    `json:"messageType"`
	CreatedAt   time.Time `json:"createdAt"`
}

type publicMessagesResponse struct {
	Messages []publicMessageDTO `json:"messages"`
}

type messageStatsDTO struct {
	Total   int `json:"total"`
	Public  int `json:"public"`
	Private int `json:"private"`
	Blocked int `json:"blocked"`
	Active  int `json:"active"`
}

type createPassMessageRequest struct {
	Message     string  `json:"message"`
	MessageType string  `json:"messageType,omitempty"`
	IsPublic    *bool   `json:"isPublic,omitempty"`
	GuestName   *string `json:"guestName,omitempty"`
}

type updateMessageRequest struct {
	Message     nullable.Nullable[string] `json:"message,omitempty"`
	MessageType nullable.Nullable[string] `json:"messageType,omitempty"`
	IsPublic    nullable.Nullable[bool]   `json:"isPublic,omitempty"`
}

// toInput rejects explicit nulls; none of the message fields are nullable.
func (b updateMessageRequest) toInput() (messages.UpdateInput, map[string]any) {
	var in messages.UpdateInput
	bad := map[string]any{}
	if b.Message.IsSpecified() {
		if v, err := b.Message.Get(); err == nil {
			in.Message = &v
		} else {
			bad["message"] = "cannot be null"
		}
	}
	if b.MessageType.IsSpecified() {
		if v, err := b.MessageType.Get(); err == nil {
			t := domain.MessageType(v)
			in.MessageType = &t
		} else {
			bad["messageType"] = "cannot be null"
		}
	}
	if b.IsPublic.IsSpecified() {
		if v, err := b.IsPublic.Get(); err == nil {
			in.IsPublic = &v
		} else {
			bad["isPublic"] = "cannot be null"
		}
	}
	if len(bad) > 0 {
		return messages.UpdateInput{}, bad
	}
	return in, nil
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionDTO struct {
	UserID    string     `json:"userId"`
	Email     string     `json:"email"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type signInResponse struct {
	Token   string     `json:"token"`
	Session sessionDTO `json:"session"`
}

func sessionFromApp(sess auth.Session) sessionDTO {
	exp := sess.ExpiresAt
	return sessionDTO{UserID: string(sess.UserID), Email: sess.Email, ExpiresAt: &exp}
}
