package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/weddingpass/pass-api/internal/domain"
	"github.com/weddingpass/pass-api/internal/ports/out/idempotency"
)

// idempotentCall describes one create request that may be replayed.
//
// Replay if same subject+key+route+bodyHash.
// Reject if same subject+key+route with a different bodyHash (409).
type idempotentCall struct {
	s        *Server
	key      idempotency.Key
	subject  domain.SubjectID
	method   string
	route    string
	bodyHash string
}

func (s *Server) newIdempotentCall(r *http.Request, subject domain.SubjectID, route string, body any) (*idempotentCall, error) {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if s.Idem == nil || key == "" {
		return nil, nil
	}
	hash, err := hashBody(body)
	if err != nil {
		return nil, err
	}
	return &idempotentCall{
		s:        s,
		key:      idempotency.Key(key),
		subject:  subject,
		method:   r.Method,
		route:    route,
		bodyHash: hash,
	}, nil
}

func (c *idempotentCall) fingerprint(bodyHash string) idempotency.Fingerprint {
	return idempotency.Fingerprint{
		Key:      c.key,
		Subject:  c.subject,
		Method:   c.method,
		Route:    c.route,
		BodyHash: bodyHash,
	}
}

// replay writes the stored response or a key-reuse conflict. It returns true when the
// request has been fully answered.
func (c *idempotentCall) replay(w http.ResponseWriter, r *http.Request) bool {
	if c == nil {
		return false
	}
	ctx := r.Context()
	metaFP := c.fingerprint("")
	if meta, ok, err := c.s.Idem.Get(ctx, metaFP); err != nil {
		writeAppError(w, r, c.s.log, err)
		return true
	} else if ok {
		if string(meta.Body) != c.bodyHash {
			writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
			return true
		}
	} else {
		if err := c.s.Idem.Put(ctx, metaFP, idempotency.Record{
			StatusCode:  0,
			ContentType: "text/plain",
			Body:        []byte(c.bodyHash),
			CreatedAt:   c.s.clk.Now(),
		}); err != nil {
			c.s.log.Warn("store idempotency fingerprint failed", zap.String("route", c.route), zap.Error(err))
		}
	}

	rec, ok, err := c.s.Idem.Get(ctx, c.fingerprint(c.bodyHash))
	if err != nil {
		writeAppError(w, r, c.s.log, err)
		return true
	}
	if !ok || rec.StatusCode == 0 || !strings.HasPrefix(rec.ContentType, "application/json") {
		return false
	}
	w.Header().Set("Content-Type", rec.ContentType)
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(rec.StatusCode)
	_, _ = w.Write(rec.Body)
	return true
}

// store saves a successful response for replay. Failures are logged only.
func (c *idempotentCall) store(r *http.Request, status int, resp any) {
	if c == nil {
		return
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return
	}
	b = append(b, '\n')
	if err := c.s.Idem.Put(r.Context(), c.fingerprint(c.bodyHash), idempotency.Record{
		StatusCode:  status,
		ContentType: "application/json",
		Body:        b,
		CreatedAt:   c.s.clk.Now(),
	}); err != nil {
		c.s.log.Warn("store idempotent response failed", zap.String("route", c.route), zap.Error(err))
	}
}

func hashBody(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
