package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weddingpass/pass-api/internal/domain"
	clockport "github.com/weddingpass/pass-api/internal/ports/out/clock"
	"github.com/weddingpass/pass-api/internal/ports/out/events"
	"github.com/weddingpass/pass-api/internal/ports/out/messagerepo"
)

type CreateInput struct {
	ReservationID domain.ReservationID
	GuestName     string
	Message       string
	// MessageType defaults to wishes when empty.
	MessageType domain.MessageType
	// IsPublic defaults to true when nil.
	IsPublic *bool
}

// UpdateInput changes only the non-nil fields.
type UpdateInput struct {
	Message     *string
	MessageType *domain.MessageType
	IsPublic    *bool
}

type Service struct {
	repo      messagerepo.Repository
	clk       clockport.Clock
	publisher events.Publisher
	log       *zap.Logger

	newID func() domain.MessageID
}

func NewService(repo messagerepo.Repository, clk clockport.Clock, publisher events.Publisher, log *zap.Logger) *Service {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		clk:       clk,
		publisher: publisher,
		log:       log,
		newID: func() domain.MessageID {
			return domain.MessageID(uuid.NewString())
		},
	}
}

// SetNewMessageIDForTest overrides message ID generation for deterministic tests.
func (s *Service) SetNewMessageIDForTest(fn func() domain.MessageID) {
	s.newID = fn
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.GuestMessage, error) {
	if strings.TrimSpace(string(in.ReservationID)) == "" {
		return domain.GuestMessage{}, validationError("invalid reservationId", map[string]any{"reservationId": "must be non-empty"})
	}
	name := domain.NormalizeHumanName(in.GuestName)
	if name == "" {
		return domain.GuestMessage{}, validationError("invalid guestName", map[string]any{"guestName": "must be non-empty"})
	}
	text, err := validateText(in.Message)
	if err != nil {
		return domain.GuestMessage{}, err
	}
	typ := domain.MessageTypeWishes
	if in.MessageType != "" {
		if typ, err = validateType(in.MessageType); err != nil {
			return domain.GuestMessage{}, err
		}
	}
	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}

	now := s.clk.Now()
	m := messagerepo.Message{
		ID:            s.newID(),
		ReservationID: in.ReservationID,
		GuestName:     name,
		Message:       text,
		MessageType:   typ,
		IsPublic:      isPublic,
		IsBlocked:     false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return domain.GuestMessage{}, gatewayError(err)
	}
	out := toDomain(m)
	s.publish(ctx, events.MessageCreated, newMessageEvent(out))
	return out, nil
}

func (s *Service) GetAll(ctx context.Context) ([]domain.GuestMessage, error) {
	ms, err := s.repo.List(ctx)
	if err != nil {
		return nil, gatewayError(err)
	}
	return toDomainList(ms), nil
}

// GetByID returns found=false when no message has the id.
func (s *Service) GetByID(ctx context.Context, id domain.MessageID) (domain.GuestMessage, bool, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, messagerepo.ErrNotFound) {
			return domain.GuestMessage{}, false, nil
		}
		return domain.GuestMessage{}, false, gatewayError(err)
	}
	return toDomain(m), true, nil
}

func (s *Service) GetByReservationID(ctx context.Context, reservationID domain.ReservationID) ([]domain.GuestMessage, error) {
	ms, err := s.repo.ListByReservation(ctx, reservationID)
	if err != nil {
		return nil, gatewayError(err)
	}
	return toDomainList(ms), nil
}

// GetPublicMessages returns the message wall: public messages that are not blocked.
func (s *Service) GetPublicMessages(ctx context.Context) ([]domain.GuestMessage, error) {
	ms, err := s.repo.ListPublic(ctx)
	if err != nil {
		return nil, gatewayError(err)
	}
	return toDomainList(ms), nil
}

// ToggleBlocked flips the blocked flag in a single store write.
func (s *Service) ToggleBlocked(ctx context.Context, id domain.MessageID) (domain.GuestMessage, error) {
	m, err := s.repo.ToggleBlocked(ctx, id, s.clk.Now())
	if err != nil {
		if errors.Is(err, messagerepo.ErrNotFound) {
			return domain.GuestMessage{}, notFoundError(string(id))
		}
		return domain.GuestMessage{}, gatewayError(err)
	}
	out := toDomain(m)
	typ := events.MessageUnblocked
	if out.IsBlocked {
		typ = events.MessageBlocked
	}
	s.publish(ctx, typ, newMessageEvent(out))
	return out, nil
}

func (s *Service) Update(ctx context.Context, id domain.MessageID, in UpdateInput) (domain.GuestMessage, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, messagerepo.ErrNotFound) {
			return domain.GuestMessage{}, notFoundError(string(id))
		}
		return domain.GuestMessage{}, gatewayError(err)
	}
	if in.Message != nil {
		if m.Message, err = validateText(*in.Message); err != nil {
			return domain.GuestMessage{}, err
		}
	}
	if in.MessageType != nil {
		if m.MessageType, err = validateType(*in.MessageType); err != nil {
			return domain.GuestMessage{}, err
		}
	}
	if in.IsPublic != nil {
		m.IsPublic = *in.IsPublic
	}
	m.UpdatedAt = s.clk.Now()

	if err := s.repo.Update(ctx, m); err != nil {
		if errors.Is(err, messagerepo.ErrNotFound) {
			return domain.GuestMessage{}, notFoundError(string(id))
		}
		return domain.GuestMessage{}, gatewayError(err)
	}
	// Re-read so the blocked flag reflects any concurrent toggle.
	if stored, err := s.repo.GetByID(ctx, id); err == nil {
		m = stored
	}
	return toDomain(m), nil
}

// Delete removes the message permanently. Deleting an unknown id succeeds.
func (s *Service) Delete(ctx context.Context, id domain.MessageID) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, messagerepo.ErrNotFound) {
			return nil
		}
		return gatewayError(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return gatewayError(err)
	}
	s.publish(ctx, events.MessageDeleted, newMessageEvent(toDomain(m)))
	return nil
}

func (s *Service) GetStats(ctx context.Context) (domain.MessageStats, error) {
	ms, err := s.repo.List(ctx)
	if err != nil {
		return domain.MessageStats{}, gatewayError(err)
	}
	var st domain.MessageStats
	for _, m := range ms {
		st.Total++
		if m.IsPublic {
			st.Public++
		} else {
			st.Private++
		}
		if m.IsBlocked {
			st.Blocked++
		} else {
			st.Active++
		}
	}
	return st, nil
}

func validateText(s string) (string, error) {
	text := strings.TrimSpace(s)
	n := utf8.RuneCountInString(text)
	if n == 0 || n > domain.MaxMessageLength {
		return "", validationError("invalid message", map[string]any{
			"message": fmt.Sprintf("must be between 1 and %d characters", domain.MaxMessageLength),
		})
	}
	return text, nil
}

func validateType(t domain.MessageType) (domain.MessageType, error) {
	typ, ok := domain.ParseMessageType(string(t))
	if !ok {
		return "", validationError("invalid messageType", map[string]any{"messageType": "must be one of wishes, advice, memory, other"})
	}
	return typ, nil
}

func toDomain(m messagerepo.Message) domain.GuestMessage {
	return domain.GuestMessage{
		ID:            m.ID,
		ReservationID: m.ReservationID,
		GuestName:     m.GuestName,
		Message:       m.Message,
		MessageType:   m.MessageType,
		IsPublic:      m.IsPublic,
		IsBlocked:     m.IsBlocked,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toDomainList(ms []messagerepo.Message) []domain.GuestMessage {
	out := make([]domain.GuestMessage, 0, len(ms))
	for _, m := range ms {
		out = append(out, toDomain(m))
	}
	return out
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, events.Event) error { return nil }

type messageEvent struct {
	ID            string `json:"id"`
	ReservationID string `json:"reservationId"`
	GuestName     string `json:"guestName"`
	IsPublic      bool   `json:"isPublic"`
	IsBlocked     bool   `json:"isBlocked"`
}

func newMessageEvent(m domain.GuestMessage) messageEvent {
	return messageEvent{
		ID:            string(m.ID),
		ReservationID: string(m.ReservationID),
		GuestName:     m.GuestName,
		IsPublic:      m.IsPublic,
		IsBlocked:     m.IsBlocked,
	}
}

func (s *Service) publish(ctx context.Context, typ events.Type, data any) {
	if err := s.publisher.Publish(ctx, events.Event{Type: typ, OccurredAt: s.clk.Now(), Data: data}); err != nil {
		s.log.Warn("publish event failed", zap.String("type", string(typ)), zap.Error(err))
	}
}
