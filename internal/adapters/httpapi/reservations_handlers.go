package httpapi

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"

	"github.com/weddingpass/pass-api/internal/app/reservations"
	"github.com/weddingpass/pass-api/internal/domain"
)

// ListReservations serves GET /api/reservations with optional ?q= search and ?status= filter.
func (s *Server) ListReservations(w http.ResponseWriter, r *http.Request) {
	q, ok := queryString(w, r, "q")
	if !ok {
		return
	}
	status, ok := queryString(w, r, "status")
	if !ok {
		return
	}

	ctx := r.Context()
	var (
		rs  []domain.Reservation
		err error
	)
	switch {
	case q != nil && *q != "":
		rs, err = s.Reservations.Search(ctx, *q)
		if err == nil && status != nil && *status != "" {
			want, valid := domain.ParseReservationStatus(*status)
			if !valid {
				writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid status", map[string]any{"status": "must be one of pending, confirmed, checked-in"})
				return
			}
			kept := rs[:0]
			for _, res := range rs {
				if res.Status == want {
					kept = append(kept, res)
				}
			}
			rs = kept
		}
	case status != nil && *status != "":
		rs, err = s.Reservations.FilterByStatus(ctx, *status)
	default:
		rs, err = s.Reservations.GetAll(ctx)
	}
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, s.reservationsFromDomain(rs))
}

func (s *Server) CreateReservation(w http.ResponseWriter, r *http.Request) {
	sub, _ := SubjectFromContext(r.Context())
	var body createReservationRequest
	if !decodeBody(w, r, &body) {
		return
	}

	idem, err := s.newIdempotentCall(r, domain.SubjectID(sub), "/api/reservations", body)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	if idem.replay(w, r) {
		return
	}

	res, err := s.Reservations.Create(r.Context(), body.toInput())
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	resp := reservationResponse{Reservation: s.reservationFromDomain(res)}
	idem.store(r, http.StatusCreated, resp)
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	res, found, err := s.Reservations.GetByID(r.Context(), domain.ReservationID(id.String()))
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, "RESERVATION_NOT_FOUND", "reservation not found", map[string]any{"id": id.String()})
		return
	}
	writeJSON(w, http.StatusOK, reservationResponse{Reservation: s.reservationFromDomain(res)})
}

func (s *Server) GetReservationByCode(w http.ResponseWriter, r *http.Request) {
	code, ok := pathString(w, r, "code")
	if !ok {
		return
	}
	res, found, err := s.Reservations.GetByCode(r.Context(), code)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, "RESERVATION_NOT_FOUND", "reservation not found", map[string]any{"code": code})
		return
	}
	writeJSON(w, http.StatusOK, reservationResponse{Reservation: s.reservationFromDomain(res)})
}

func (s *Server) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body updateReservationRequest
	if !decodeBody(w, r, &body) {
		return
	}
	res, err := s.Reservations.Update(r.Context(), domain.ReservationID(id.String()), body.toInput())
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, reservationResponse{Reservation: s.reservationFromDomain(res)})
}

func (s *Server) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.Reservations.Delete(r.Context(), domain.ReservationID(id.String())); err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) CheckInReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	res, err := s.Reservations.CheckIn(r.Context(), domain.ReservationID(id.String()))
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, reservationResponse{Reservation: s.reservationFromDomain(res)})
}

// CheckInByScan serves the door scanner: the body carries the QR payload or a typed code.
func (s *Server) CheckInByScan(w http.ResponseWriter, r *http.Request) {
	var body checkInByScanRequest
	if !decodeBody(w, r, &body) {
		return
	}
	res, err := s.Reservations.CheckInByScan(r.Context(), body.Scanned)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, reservationResponse{Reservation: s.reservationFromDomain(res)})
}

func (s *Server) GetReservationStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.Reservations.GetStats(r.Context())
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, reservationStatsDTO{
		TotalReservations:     st.TotalReservations,
		TotalGuests:           st.TotalGuests,
		ConfirmedAttendees:    st.ConfirmedAttendees,
		AvailableSpots:        st.AvailableSpots,
		MaxCapacity:           s.Reservations.Event().MaxCapacity,
		PendingReservations:   st.PendingReservations,
		ConfirmedReservations: st.ConfirmedReservations,
		CheckedInReservations: st.CheckedInReservations,
		CheckedInGuests:       st.CheckedInGuests,
	})
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportReservations serves GET /api/reservations/export?format=csv|xlsx (csv by default).
func (s *Server) ExportReservations(w http.ResponseWriter, r *http.Request) {
	format, ok := queryString(w, r, "format")
	if !ok {
		return
	}
	ext := "csv"
	if format != nil && *format != "" {
		ext = *format
	}
	if ext != "csv" && ext != "xlsx" {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid format", map[string]any{"format": "must be csv or xlsx"})
		return
	}

	rs, err := s.Reservations.GetAll(r.Context())
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}

	var (
		body        []byte
		contentType string
	)
	if ext == "csv" {
		body, err = reservations.ReservationsToCSV(rs)
		contentType = "text/csv; charset=utf-8"
	} else {
		var buf bytes.Buffer
		err = reservations.WriteReservationsXLSX(&buf, rs)
		body = buf.Bytes()
		contentType = xlsxContentType
	}
	if err != nil {
		s.log.Error("export reservations failed", zap.String("format", ext), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "export failed", nil)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+reservations.ExportFilename(s.clk.Now(), ext)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
