package httpapi

import (
	"go.uber.org/zap"

	"github.com/weddingpass/pass-api/internal/app/auth"
	"github.com/weddingpass/pass-api/internal/app/messages"
	"github.com/weddingpass/pass-api/internal/app/reservations"
	clockport "github.com/weddingpass/pass-api/internal/ports/out/clock"
	"github.com/weddingpass/pass-api/internal/ports/out/idempotency"
)

// Server holds the HTTP handlers. Auth is nil in dev auth mode.
type Server struct {
	Reservations *reservations.Service
	Messages     *messages.Service
	Auth         *auth.Service
	Idem         idempotency.Store

	clk clockport.Clock
	log *zap.Logger
}

func NewServer(reservationsSvc *reservations.Service, messagesSvc *messages.Service, authSvc *auth.Service, idem idempotency.Store, clk clockport.Clock, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		Reservations: reservationsSvc,
		Messages:     messagesSvc,
		Auth:         authSvc,
		Idem:         idem,
		clk:          clk,
		log:          log,
	}
}
