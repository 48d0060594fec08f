package reservations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weddingpass/pass-api/internal/domain"
	clockport "github.com/weddingpass/pass-api/internal/ports/out/clock"
	"github.com/weddingpass/pass-api/internal/ports/out/events"
	"github.com/weddingpass/pass-api/internal/ports/out/reservationrepo"
)

// DefaultMaxCodeAttempts bounds code regeneration on collision.
const DefaultMaxCodeAttempts = 10

type Service struct {
	repo      reservationrepo.Repository
	clk       clockport.Clock
	event     domain.Event
	publisher events.Publisher
	log       *zap.Logger

	newID   func() domain.ReservationID
	newCode func() (string, error)

	// MaxCodeAttempts bounds how many codes Create tries before giving up.
	MaxCodeAttempts int
}

// NewService wires the reservation service. publisher and log may be nil.
func NewService(repo reservationrepo.Repository, clk clockport.Clock, event domain.Event, publisher events.Publisher, log *zap.Logger) *Service {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		clk:       clk,
		event:     event,
		publisher: publisher,
		log:       log,
		newID: func() domain.ReservationID {
			return domain.ReservationID(uuid.NewString())
		},
		newCode:         GenerateCode,
		MaxCodeAttempts: DefaultMaxCodeAttempts,
	}
}

// SetNewReservationIDForTest overrides reservation ID generation for deterministic tests.
func (s *Service) SetNewReservationIDForTest(fn func() domain.ReservationID) {
	s.newID = fn
}

// SetCodeGeneratorForTest overrides invitation code generation for deterministic tests.
func (s *Service) SetCodeGeneratorForTest(fn func() (string, error)) {
	s.newCode = fn
}

// Event returns the configured wedding metadata.
func (s *Service) Event() domain.Event { return s.event }

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Reservation, error) {
	name := domain.NormalizeHumanName(in.GuestName)
	if name == "" {
		return domain.Reservation{}, validationError("invalid guestName", map[string]any{"guestName": "must be non-empty"})
	}
	if err := validateGuests(in.NumberOfGuests); err != nil {
		return domain.Reservation{}, err
	}

	mainAttending := true
	if in.MainGuestAttending != nil {
		mainAttending = *in.MainGuestAttending
	}
	now := s.clk.Now()
	rec := reservationrepo.Reservation{
		ID:                 s.newID(),
		GuestName:          name,
		NumberOfGuests:     in.NumberOfGuests,
		AccompanistNames:   normalizeNames(in.AccompanistNames),
		MainGuestAttending: mainAttending,
		Status:             domain.ReservationStatusPending,
		Table:              normalizeOptionalText(in.Table),
		Group:              normalizeOptionalText(in.Group),
		Notes:              normalizeOptionalText(in.Notes),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	attempts := s.MaxCodeAttempts
	if attempts <= 0 {
		attempts = DefaultMaxCodeAttempts
	}
	for i := 0; i < attempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return domain.Reservation{}, gatewayError(fmt.Errorf("generate code: %w", err))
		}
		rec.Code = code

		err = s.repo.Create(ctx, rec, s.event.MaxCapacity)
		switch {
		case err == nil:
			r := toDomain(rec)
			s.publish(ctx, events.ReservationCreated, newReservationEvent(r))
			return r, nil
		case errors.Is(err, reservationrepo.ErrCodeTaken):
			continue
		case errors.Is(err, reservationrepo.ErrAlreadyExists):
			rec.ID = s.newID()
			continue
		case errors.Is(err, reservationrepo.ErrCapacityExceeded):
			return domain.Reservation{}, s.capacityError(ctx, rec.NumberOfGuests, "")
		default:
			return domain.Reservation{}, gatewayError(err)
		}
	}
	return domain.Reservation{}, duplicateCodeError(attempts)
}

func (s *Service) GetAll(ctx context.Context) ([]domain.Reservation, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, gatewayError(err)
	}
	return toDomainList(recs), nil
}

// GetByID returns found=false when no reservation has the id.
func (s *Service) GetByID(ctx context.Context, id domain.ReservationID) (domain.Reservation, bool, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationrepo.ErrNotFound) {
			return domain.Reservation{}, false, nil
		}
		return domain.Reservation{}, false, gatewayError(err)
	}
	return toDomain(rec), true, nil
}

// GetByCode matches case-insensitively; found=false when no reservation has the code.
func (s *Service) GetByCode(ctx context.Context, code string) (domain.Reservation, bool, error) {
	rec, ok, err := s.getRecordByCode(ctx, code)
	if err != nil || !ok {
		return domain.Reservation{}, ok, err
	}
	return toDomain(rec), true, nil
}

func (s *Service) getRecordByCode(ctx context.Context, code string) (reservationrepo.Reservation, bool, error) {
	normalized := domain.NormalizeCode(code)
	if !domain.ValidCode(normalized) {
		return reservationrepo.Reservation{}, false, nil
	}
	rec, err := s.repo.GetByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, reservationrepo.ErrNotFound) {
			return reservationrepo.Reservation{}, false, nil
		}
		return reservationrepo.Reservation{}, false, gatewayError(err)
	}
	return rec, true, nil
}

func (s *Service) Update(ctx context.Context, id domain.ReservationID, in UpdateInput) (domain.Reservation, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationrepo.ErrNotFound) {
			return domain.Reservation{}, notFoundError("id", string(id))
		}
		return domain.Reservation{}, gatewayError(err)
	}

	next := existing
	if in.GuestName.IsSpecified() {
		name := ""
		if !in.GuestName.IsNull() {
			name = domain.NormalizeHumanName(in.GuestName.Value())
		}
		if name == "" {
			return domain.Reservation{}, validationError("invalid guestName", map[string]any{"guestName": "must be non-empty"})
		}
		next.GuestName = name
	}
	if in.NumberOfGuests.IsSpecified() {
		if in.NumberOfGuests.IsNull() {
			return domain.Reservation{}, validationError("invalid numberOfGuests", map[string]any{"numberOfGuests": "cannot be null"})
		}
		if err := validateGuests(in.NumberOfGuests.Value()); err != nil {
			return domain.Reservation{}, err
		}
		next.NumberOfGuests = in.NumberOfGuests.Value()
	}
	if in.AccompanistNames.IsSpecified() {
		next.AccompanistNames = nil
		if !in.AccompanistNames.IsNull() {
			next.AccompanistNames = normalizeNames(in.AccompanistNames.Value())
		}
	}
	if in.Accompanists.IsSpecified() {
		next.Accompanists = nil
		if !in.Accompanists.IsNull() {
			accs, err := normalizeAccompanists(in.Accompanists.Value(), next.NumberOfGuests)
			if err != nil {
				return domain.Reservation{}, err
			}
			if next.Accompanists, err = json.Marshal(accs); err != nil {
				return domain.Reservation{}, fmt.Errorf("encode accompanists: %w", err)
			}
		}
	}
	if in.MainGuestAttending.IsSpecified() {
		if in.MainGuestAttending.IsNull() {
			return domain.Reservation{}, validationError("invalid mainGuestAttending", map[string]any{"mainGuestAttending": "cannot be null"})
		}
		next.MainGuestAttending = in.MainGuestAttending.Value()
	}
	now := s.clk.Now()
	if in.Status.IsSpecified() {
		status, ok := domain.ParseReservationStatus(string(in.Status.Value()))
		if in.Status.IsNull() || !ok {
			return domain.Reservation{}, validationError("invalid status", map[string]any{"status": "must be one of pending, confirmed, checked-in"})
		}
		if existing.Status == domain.ReservationStatusCheckedIn && status != domain.ReservationStatusCheckedIn {
			return domain.Reservation{}, invalidTransitionError(string(existing.Status), string(status))
		}
		if status == domain.ReservationStatusCheckedIn && existing.Status != domain.ReservationStatusCheckedIn {
			at := now
			next.CheckedInAt = &at
		}
		next.Status = status
	}
	next.Table = applyOptionalText(next.Table, in.Table)
	next.Group = applyOptionalText(next.Group, in.Group)
	next.Notes = applyOptionalText(next.Notes, in.Notes)
	next.UpdatedAt = now

	var guard *int
	if next.NumberOfGuests != existing.NumberOfGuests {
		limit := s.event.MaxCapacity
		guard = &limit
	}
	if err := s.repo.Update(ctx, next, guard); err != nil {
		switch {
		case errors.Is(err, reservationrepo.ErrNotFound):
			return domain.Reservation{}, notFoundError("id", string(id))
		case errors.Is(err, reservationrepo.ErrCapacityExceeded):
			return domain.Reservation{}, s.capacityError(ctx, next.NumberOfGuests, id)
		case errors.Is(err, reservationrepo.ErrAlreadyCheckedIn):
			return domain.Reservation{}, alreadyCheckedInError(next.Code)
		default:
			return domain.Reservation{}, gatewayError(err)
		}
	}

	r := toDomain(next)
	s.publish(ctx, events.ReservationUpdated, newReservationEvent(r))
	return r, nil
}

// CheckIn marks the reservation as arrived. It succeeds at most once per reservation.
func (s *Service) CheckIn(ctx context.Context, id domain.ReservationID) (domain.Reservation, error) {
	rec, err := s.repo.MarkCheckedIn(ctx, id, s.clk.Now())
	if err != nil {
		switch {
		case errors.Is(err, reservationrepo.ErrNotFound):
			return domain.Reservation{}, notFoundError("id", string(id))
		case errors.Is(err, reservationrepo.ErrAlreadyCheckedIn):
			code := ""
			if existing, getErr := s.repo.GetByID(ctx, id); getErr == nil {
				code = existing.Code
			}
			return domain.Reservation{}, alreadyCheckedInError(code)
		default:
			return domain.Reservation{}, gatewayError(err)
		}
	}
	r := toDomain(rec)
	s.publish(ctx, events.ReservationCheckedIn, newReservationEvent(r))
	return r, nil
}

// CheckInByScan checks in the reservation named by a scanned QR payload.
func (s *Service) CheckInByScan(ctx context.Context, scanned string) (domain.Reservation, error) {
	code := ParseScannedCode(scanned)
	if code == "" {
		return domain.Reservation{}, validationError("invalid scan", map[string]any{"code": "must be non-empty"})
	}
	rec, ok, err := s.getRecordByCode(ctx, code)
	if err != nil {
		return domain.Reservation{}, err
	}
	if !ok {
		return domain.Reservation{}, notFoundError("code", code)
	}
	return s.CheckIn(ctx, rec.ID)
}

// Confirm records the pass owner's answer and moves a pending reservation to confirmed.
func (s *Service) Confirm(ctx context.Context, code string, in ConfirmInput) (domain.Reservation, error) {
	rec, ok, err := s.getRecordByCode(ctx, code)
	if err != nil {
		return domain.Reservation{}, err
	}
	if !ok {
		return domain.Reservation{}, notFoundError("code", domain.NormalizeCode(code))
	}
	if rec.Status == domain.ReservationStatusCheckedIn {
		return domain.Reservation{}, alreadyCheckedInError(rec.Code)
	}

	accs, err := normalizeAccompanists(in.Accompanists, rec.NumberOfGuests)
	if err != nil {
		return domain.Reservation{}, err
	}
	raw, err := json.Marshal(accs)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("encode accompanists: %w", err)
	}
	rec.Accompanists = raw
	rec.MainGuestAttending = in.MainGuestAttending
	rec.Status = domain.ReservationStatusConfirmed
	rec.UpdatedAt = s.clk.Now()

	if err := s.repo.Update(ctx, rec, nil); err != nil {
		switch {
		case errors.Is(err, reservationrepo.ErrNotFound):
			return domain.Reservation{}, notFoundError("code", rec.Code)
		case errors.Is(err, reservationrepo.ErrAlreadyCheckedIn):
			return domain.Reservation{}, alreadyCheckedInError(rec.Code)
		default:
			return domain.Reservation{}, gatewayError(err)
		}
	}
	r := toDomain(rec)
	s.publish(ctx, events.ReservationConfirmed, newReservationEvent(r))
	return r, nil
}

// Delete removes the reservation permanently. Deleting an unknown id succeeds.
func (s *Service) Delete(ctx context.Context, id domain.ReservationID) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationrepo.ErrNotFound) {
			return nil
		}
		return gatewayError(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return gatewayError(err)
	}
	s.publish(ctx, events.ReservationDeleted, newReservationEvent(toDomain(existing)))
	return nil
}

// Search matches guest name, code or group case-insensitively. An empty query returns everything.
func (s *Service) Search(ctx context.Context, query string) ([]domain.Reservation, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return s.GetAll(ctx)
	}
	recs, err := s.repo.Search(ctx, q)
	if err != nil {
		return nil, gatewayError(err)
	}
	return toDomainList(recs), nil
}

func (s *Service) FilterByStatus(ctx context.Context, status string) ([]domain.Reservation, error) {
	st, ok := domain.ParseReservationStatus(strings.TrimSpace(status))
	if !ok {
		return nil, validationError("invalid status", map[string]any{"status": "must be one of pending, confirmed, checked-in"})
	}
	recs, err := s.repo.ListByStatus(ctx, st)
	if err != nil {
		return nil, gatewayError(err)
	}
	return toDomainList(recs), nil
}

// PassURL is the link encoded in the invitation QR code.
func (s *Service) PassURL(code string) string {
	return strings.TrimRight(s.event.AppBaseURL, "/") + "/check-in?code=" + url.QueryEscape(code)
}

func (s *Service) capacityError(ctx context.Context, requested int, exclude domain.ReservationID) error {
	available := s.event.MaxCapacity
	if recs, err := s.repo.List(ctx); err == nil {
		for _, r := range recs {
			if r.ID != exclude {
				available -= r.NumberOfGuests
			}
		}
	} else {
		s.log.Warn("capacity details unavailable", zap.Error(err))
	}
	return capacityExceededError(requested, available, s.event.MaxCapacity)
}

func validateGuests(n int) error {
	if n < domain.MinGuestsPerReservation || n > domain.MaxGuestsPerReservation {
		return validationError("invalid numberOfGuests", map[string]any{
			"numberOfGuests": fmt.Sprintf("must be between %d and %d", domain.MinGuestsPerReservation, domain.MaxGuestsPerReservation),
		})
	}
	return nil
}

func normalizeNames(names []string) []string {
	var out []string
	for _, n := range names {
		if v := domain.NormalizeHumanName(n); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// normalizeAccompanists trims names and enforces at most numberOfGuests-1 companions.
func normalizeAccompanists(accs []domain.Accompanist, numberOfGuests int) ([]domain.Accompanist, error) {
	if len(accs) > numberOfGuests-1 {
		return nil, validationError("too many accompanists", map[string]any{
			"accompanists": fmt.Sprintf("at most %d allowed", numberOfGuests-1),
		})
	}
	out := make([]domain.Accompanist, 0, len(accs))
	for i, a := range accs {
		name := domain.NormalizeHumanName(a.Name)
		if name == "" {
			return nil, validationError("invalid accompanist", map[string]any{
				fmt.Sprintf("accompanists[%d].name", i): "must be non-empty",
			})
		}
		out = append(out, domain.Accompanist{Name: name, WillAttend: a.WillAttend})
	}
	return out, nil
}

func normalizeOptionalText(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func applyOptionalText(current *string, o Optional[string]) *string {
	if !o.IsSpecified() {
		return current
	}
	if o.IsNull() {
		return nil
	}
	v := o.Value()
	return normalizeOptionalText(&v)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, events.Event) error { return nil }

type reservationEvent struct {
	ID             string `json:"id"`
	Code           string `json:"code"`
	GuestName      string `json:"guestName"`
	NumberOfGuests int    `json:"numberOfGuests"`
	Status         string `json:"status"`
}

func newReservationEvent(r domain.Reservation) reservationEvent {
	return reservationEvent{
		ID:             string(r.ID),
		Code:           r.Code,
		GuestName:      r.GuestName,
		NumberOfGuests: r.NumberOfGuests,
		Status:         string(r.Status),
	}
}

// publish never fails the caller; delivery problems are logged.
func (s *Service) publish(ctx context.Context, typ events.Type, data any) {
	err := s.publisher.Publish(ctx, events.Event{Type: typ, OccurredAt: s.clk.Now(), Data: data})
	if err != nil {
		s.log.Warn("publish event failed", zap.String("type", string(typ)), zap.Error(err))
	}
}
