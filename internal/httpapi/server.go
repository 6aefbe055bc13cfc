package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/checkwatch/internal/domain"
	"github.com/hamed0406/checkwatch/internal/eventlog"
	apimw "github.com/hamed0406/checkwatch/internal/httpapi/middleware"
	"github.com/hamed0406/checkwatch/internal/notify"
	"github.com/hamed0406/checkwatch/internal/repo"
)

const maxBodyBytes = 64 << 10

// DefaultMaxChecksPerOwner applies when Server.MaxPerOwner is not positive.
const DefaultMaxChecksPerOwner = 5

// Server exposes check records over HTTP. It only edits records; the
// sweeper picks changes up on its next pass.
type Server struct {
	Logger      *zap.Logger
	Events      eventlog.Recorder
	Store       repo.CheckStore
	MaxPerOwner int
	NewID       func() string
}

func NewServer(l *zap.Logger, events eventlog.Recorder, store repo.CheckStore, maxPerOwner int) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	if events == nil {
		events = eventlog.Discard
	}
	if maxPerOwner <= 0 {
		maxPerOwner = DefaultMaxChecksPerOwner
	}
	return &Server{Logger: l, Events: events, Store: store, MaxPerOwner: maxPerOwner, NewID: uuid.NewString}
}

// Router builds the HTTP handler. Reads need a public or admin key, writes an
// admin key. Each group is rate limited per client IP.
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, pubRPM, pubBurst, admRPM, admBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	if len(allowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/checks", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(pubRPM, pubBurst, s.Events))
			r.Use(apimw.RequireAny(keys, s.Events))
			r.Get("/", s.handleListChecks)
			r.Get("/{id}", s.handleGetCheck)
		})
		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(admRPM, admBurst, s.Events))
			r.Use(apimw.RequireAdmin(keys, s.Events))
			r.Post("/", s.handleCreateCheck)
			r.Delete("/{id}", s.handleDeleteCheck)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) handleCreateCheck(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	raw, err := s.newCheckDocument(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := domain.ValidateRecord(raw)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Reason, "field": ve.Field})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := s.countOwnerChecks(r, rec.OwnerContact)
	if err != nil {
		s.Logger.Error("owner_count_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create check")
		return
	}
	if n >= s.MaxPerOwner {
		writeError(w, http.StatusBadRequest, "owner already has the maximum number of checks")
		return
	}

	if err := s.Store.Create(r.Context(), rec); err != nil {
		if errors.Is(err, repo.ErrExists) {
			writeError(w, http.StatusConflict, "check already exists")
			return
		}
		s.Logger.Error("create_check_failed", zap.String("id", rec.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create check")
		return
	}

	s.Events.Record(eventlog.USER, rec.ID, "check_created",
		zap.String("owner", rec.OwnerContact),
		zap.String("target", rec.Target()),
	)
	writeJSON(w, http.StatusCreated, rec)
}

// newCheckDocument turns a create payload into a stored document: a fresh id,
// no probe history, and the target split into protocol and url.
func (s *Server) newCheckDocument(body []byte) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil || doc == nil {
		return nil, errors.New("bad payload")
	}
	delete(doc, "state")
	delete(doc, "lastChecked")
	doc["id"] = s.NewID()

	if raw, ok := doc["url"].(string); ok && strings.Contains(raw, "://") {
		proto, hostPath, ok := splitTarget(raw)
		if !ok {
			return nil, errors.New("url must be an http or https address")
		}
		doc["protocol"] = proto
		doc["url"] = hostPath
	}
	return json.Marshal(doc)
}

// countOwnerChecks counts the owner's checks, matching phone numbers in any
// format. Count and Create are not atomic, so concurrent creates for one
// owner can pass the limit by one each.
func (s *Server) countOwnerChecks(r *http.Request, owner string) (int, error) {
	recs, err := s.listRecords(r)
	if err != nil {
		return 0, err
	}
	key := ownerKey(owner)
	n := 0
	for _, rec := range recs {
		if ownerKey(rec.OwnerContact) == key {
			n++
		}
	}
	return n, nil
}

func ownerKey(contact string) string {
	if p, err := notify.NormalizePhone(contact); err == nil {
		return p
	}
	return strings.TrimSpace(contact)
}

// listRecords returns every stored record that validates.
func (s *Server) listRecords(r *http.Request) ([]domain.CheckRecord, error) {
	ids, err := s.Store.List(r.Context())
	if err != nil {
		return nil, err
	}
	out := make([]domain.CheckRecord, 0, len(ids))
	for _, id := range ids {
		raw, err := s.Store.Read(r.Context(), id)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		rec, err := domain.ValidateRecord(raw)
		if err != nil {
			s.Logger.Warn("skip_invalid_record", zap.String("id", id), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Server) handleListChecks(w http.ResponseWriter, r *http.Request) {
	recs, err := s.listRecords(r)
	if err != nil {
		s.Logger.Error("list_checks_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list error")
		return
	}
	if owner := strings.TrimSpace(r.URL.Query().Get("owner")); owner != "" {
		filtered := recs[:0]
		for _, rec := range recs {
			if rec.OwnerContact == owner {
				filtered = append(filtered, rec)
			}
		}
		recs = filtered
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGetCheck(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	raw, err := s.Store.Read(r.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "check not found")
		return
	}
	if err != nil {
		s.Logger.Error("read_check_failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "read error")
		return
	}
	rec, err := domain.ValidateRecord(raw)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteCheck(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.Store.Delete(r.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "check not found")
		return
	}
	if err != nil {
		s.Logger.Error("delete_check_failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "delete error")
		return
	}
	s.Events.Record(eventlog.USER, id, "check_deleted")
	w.WriteHeader(http.StatusNoContent)
}

// splitTarget turns "https://EXAMPLE.com:443/health" into ("https",
// "example.com/health"). The host is lowercased and default ports dropped.
func splitTarget(raw string) (protocol, hostPath string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || u.Hostname() == "" {
		return "", "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != string(domain.ProtocolHTTP) && scheme != string(domain.ProtocolHTTPS) {
		return "", "", false
	}
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := u.Port(); port != "" &&
		!(scheme == "http" && port == "80") &&
		!(scheme == "https" && port == "443") {
		host += ":" + port
	}
	path := u.EscapedPath()
	if path == "/" {
		path = ""
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return scheme, host + path, true
}
