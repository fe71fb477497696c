package relay

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	domaintypes "dappkit/internal/domain/types"
)

// DefaultQueueLimit caps the responses held per session.
const DefaultQueueLimit = 32

// Server is an in-memory relay.
type Server struct {
	mu     sync.Mutex
	queues map[string][]domaintypes.EncryptedResponse
	limit  int
	log    zerolog.Logger
}

// NewServer returns an empty relay. limit <= 0 uses DefaultQueueLimit.
func NewServer(limit int, logger zerolog.Logger) *Server {
	if limit <= 0 {
		limit = DefaultQueueLimit
	}
	return &Server{
		queues: make(map[string][]domaintypes.EncryptedResponse),
		limit:  limit,
		log:    logger.With().Str("component", "relay-server").Logger(),
	}
}

// Handler routes POST /api/v1 and GET /healthz, with CORS and an access log.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(accessLog(s.log), cors)
	r.HandleFunc("/api/v1", s.handleRPC).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	return r
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		http.Error(w, "sessionId is required", http.StatusBadRequest)
		return
	}

	switch req.Method {
	case MethodGetResponses:
		writeJSON(w, s.drain(req.SessionID))
	case MethodSendResponse:
		if req.Data == "" || req.PublicKey == "" {
			http.Error(w, "data and publicKey are required", http.StatusBadRequest)
			return
		}
		s.push(req.SessionID, domaintypes.EncryptedResponse{
			SessionID: req.SessionID,
			PublicKey: req.PublicKey,
			Data:      req.Data,
		})
		w.WriteHeader(http.StatusOK)
	default:
		http.Error(w, "unknown method", http.StatusBadRequest)
	}
}

func (s *Server) push(sessionID string, r domaintypes.EncryptedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := append(s.queues[sessionID], r)
	if len(q) > s.limit {
		q = q[len(q)-s.limit:]
	}
	s.queues[sessionID] = q
	s.log.Debug().Str("session_id", sessionID).Int("queued", len(q)).Msg("response queued")
}

func (s *Server) drain(sessionID string) []domaintypes.EncryptedResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.queues[sessionID]
	delete(s.queues, sessionID)
	if q == nil {
		return []domaintypes.EncryptedResponse{}
	}
	return q
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
