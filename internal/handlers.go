package internal

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
)

// httpError is a failure raised by the HTTP layer itself rather than by the
// resolution pipeline.
type httpError struct {
	status  int
	kind    ErrorKind
	message string
}

func (e *httpError) Error() string {
	return e.message
}

func newHTTPError(status int, kind ErrorKind, message string) *httpError {
	return &httpError{status: status, kind: kind, message: message}
}

type errorResponse struct {
	Error          string    `json:"error"`
	Kind           ErrorKind `json:"kind,omitempty"`
	UpstreamStatus int       `json:"upstreamStatus,omitempty"`
	RequestID      string    `json:"requestId"`
	Timestamp      int64     `json:"timestamp"`
}

// statusForError maps the error taxonomy onto HTTP. A missing summoner for
// an existing account is an upstream inconsistency, not a 404.
func statusForError(err error) int {
	var hErr *httpError
	if errors.As(err, &hErr) {
		return hErr.status
	}
	switch KindOf(err) {
	case KindNotFound:
		if IsSummonerNotFound(err) {
			return http.StatusBadGateway
		}
		return http.StatusNotFound
	case KindAuth, KindConfig:
		return http.StatusServiceUnavailable
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, err error, logger *Logger, r *http.Request) {
	status := statusForError(err)
	requestID := GetRequestID(r.Context())

	body := errorResponse{
		RequestID: requestID,
		Timestamp: time.Now().Unix(),
	}

	var hErr *httpError
	var apiErr *APIError
	switch {
	case errors.As(err, &hErr):
		body.Error = hErr.message
		body.Kind = hErr.kind
	default:
		body.Error = UserMessage(err)
		body.Kind = KindOf(err)
		if errors.As(err, &apiErr) {
			body.UpstreamStatus = apiErr.StatusCode
			if apiErr.RetryAfter != "" {
				w.Header().Set("Retry-After", apiErr.RetryAfter)
			}
		}
	}

	entry := logger.Warn("api_error")
	if status >= http.StatusInternalServerError {
		entry = logger.Error("api_error")
	}
	entry.Component("http").
		Operation("write_error").
		HTTP(r.Method, r.URL.Path, status).
		Request(r.UserAgent(), r.RemoteAddr, requestID).
		Err(err).
		ErrorCode(strconv.Itoa(status)).
		Log()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, logger *Logger, r *http.Request) {
	payload, err := json.Marshal(data)
	if err != nil {
		logger.Error("json_encode_failed").
			Component("http").
			Operation("write_json").
			Request("", "", GetRequestID(r.Context())).
			Err(err).
			Log()
		writeError(w, newHTTPError(http.StatusInternalServerError, "", "Failed to encode response"), logger, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(payload, '\n'))
}

// ServerDeps wires the HTTP surface. Only Resolver is required; the other
// collaborators switch their routes off (503) when nil.
type ServerDeps struct {
	Resolver     PlayerStatsResolver
	Snapshots    SnapshotStore
	Publisher    EventPublisher
	Database     DatabaseInterface
	RateLimiter  RateLimiterInterface
	Logger       *Logger
	Metrics      *MetricsCollector
	Profiler     *Profiler
	SnapshotTTL  time.Duration
	Region       string
	HealthChecks map[string]func(context.Context) error
}

type Server struct {
	deps   ServerDeps
	logger *Logger
}

func NewServer(deps ServerDeps) *Server {
	if deps.Logger == nil {
		deps.Logger = NopLogger()
	}
	return &Server{deps: deps, logger: deps.Logger}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(s.logger, s.deps.Metrics).Handler)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "Retry-After"},
		MaxAge:         300,
	}).Handler)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.deps.Metrics.Handler())
	if s.deps.Profiler != nil {
		s.deps.Profiler.Mount(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)

		r.Route("/players/{gameName}/{tagLine}", func(r chi.Router) {
			r.Get("/stats", s.handlePlayerStats)
			r.Get("/verify", s.handleVerify)
			r.Get("/snapshot", s.handleSnapshot)
			r.Post("/resolve", s.handleEnqueueResolve)
		})

		r.Post("/links", s.handleLinkAccount)
		r.Get("/links/{userId}", s.handleGetLink)
	})

	return r
}

// rateLimit keys inbound traffic by client address. Limiter errors fail
// open so a Redis outage does not take the API down.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.deps.RateLimiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := "ip:" + clientIP(r)
		allowed, err := s.deps.RateLimiter.Allow(r.Context(), key)
		if err != nil {
			s.logger.Error("rate_limiter_error").
				Component("rate_limiter").
				Operation("check_limit").
				Request("", "", GetRequestID(r.Context())).
				Err(err).
				Meta("key", key).
				Log()
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			writeError(w, newHTTPError(http.StatusTooManyRequests, KindRateLimited, "Rate limit exceeded"), s.logger, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func riotIDParams(r *http.Request) (string, string) {
	return strings.TrimSpace(chi.URLParam(r, "gameName")), strings.TrimSpace(chi.URLParam(r, "tagLine"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	services := make(map[string]string, len(s.deps.HealthChecks))
	for name, check := range s.deps.HealthChecks {
		if err := check(ctx); err != nil {
			services[name] = "unavailable"
			status = http.StatusServiceUnavailable
			s.logger.Warn("health_check_failed").
				Component("health").
				Operation("check").
				Meta("service", name).
				Err(err).
				Log()
			continue
		}
		services[name] = "connected"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	writeJSON(w, status, map[string]interface{}{
		"status":    state,
		"timestamp": time.Now().Unix(),
		"services":  services,
	}, s.logger, r)
}

type playerStatsResponse struct {
	*PlayerStatsResult
	MainRole Lane `json:"mainRole"`
}

func newPlayerStatsResponse(result *PlayerStatsResult) playerStatsResponse {
	return playerStatsResponse{PlayerStatsResult: result, MainRole: result.MainRole()}
}

func (s *Server) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	gameName, tagLine := riotIDParams(r)
	requestID := GetRequestID(r.Context())

	s.logger.Info("player_stats_request").
		Component("players").
		Operation("get_stats").
		Request("", "", requestID).
		Meta("game_name", gameName).
		Meta("tag_line", tagLine).
		Log()

	result, err := s.deps.Resolver.ResolvePlayerStats(r.Context(), gameName, tagLine)
	if err != nil {
		writeError(w, err, s.logger, r)
		return
	}

	persistResolution(r.Context(), result, NewPlayerResolvedEvent(result), s.deps.Snapshots, s.deps.Publisher, s.deps.SnapshotTTL, s.logger)
	writeJSON(w, http.StatusOK, newPlayerStatsResponse(result), s.logger, r)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	gameName, tagLine := riotIDParams(r)

	exists, err := s.deps.Resolver.VerifyAccount(r.Context(), gameName, tagLine)
	if err != nil {
		writeError(w, err, s.logger, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"gameName": gameName,
		"tagLine":  tagLine,
		"exists":   exists,
	}, s.logger, r)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	gameName, tagLine := riotIDParams(r)
	if s.deps.Snapshots == nil {
		writeError(w, newHTTPError(http.StatusServiceUnavailable, KindConfig, "Snapshots are disabled"), s.logger, r)
		return
	}

	result, err := s.deps.Snapshots.LoadSnapshot(r.Context(), gameName, tagLine)
	if errors.Is(err, redis.Nil) {
		writeError(w, newHTTPError(http.StatusNotFound, KindNotFound, "No snapshot for this Riot ID"), s.logger, r)
		return
	}
	if err != nil {
		writeError(w, newHTTPError(http.StatusServiceUnavailable, KindTransient, "Snapshot store unavailable"), s.logger, r)
		return
	}
	writeJSON(w, http.StatusOK, newPlayerStatsResponse(result), s.logger, r)
}

func (s *Server) handleEnqueueResolve(w http.ResponseWriter, r *http.Request) {
	gameName, tagLine := riotIDParams(r)
	requestID := GetRequestID(r.Context())

	if s.deps.Publisher == nil {
		writeError(w, newHTTPError(http.StatusServiceUnavailable, KindConfig, "Messaging is disabled"), s.logger, r)
		return
	}
	if gameName == "" || tagLine == "" {
		writeError(w, newHTTPError(http.StatusBadRequest, "", "gameName and tagLine are required"), s.logger, r)
		return
	}

	task := ResolveTask{GameName: gameName, TagLine: tagLine, RequestID: requestID}
	if err := s.deps.Publisher.PublishResolveTask(task); err != nil {
		s.logger.Error("resolve_task_publish_failed").
			Component("players").
			Operation("enqueue_resolve").
			Request("", "", requestID).
			Err(err).
			Log()
		writeError(w, newHTTPError(http.StatusServiceUnavailable, KindTransient, "Failed to enqueue resolve task"), s.logger, r)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":    "queued",
		"requestId": requestID,
	}, s.logger, r)
}

type linkAccountRequest struct {
	UserID          string `json:"userId"`
	GameName        string `json:"gameName"`
	TagLine         string `json:"tagLine"`
	DiscordUsername string `json:"discordUsername,omitempty"`
}

// handleLinkAccount resolves the Riot ID before persisting, so only
// existing accounts can be linked.
func (s *Server) handleLinkAccount(w http.ResponseWriter, r *http.Request) {
	if s.deps.Database == nil {
		writeError(w, newHTTPError(http.StatusServiceUnavailable, KindConfig, "Account linking is disabled"), s.logger, r)
		return
	}

	var req linkAccountRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, newHTTPError(http.StatusBadRequest, "", "Invalid request body"), s.logger, r)
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.GameName = strings.TrimSpace(req.GameName)
	req.TagLine = strings.TrimSpace(req.TagLine)
	if req.UserID == "" || req.GameName == "" || req.TagLine == "" {
		writeError(w, newHTTPError(http.StatusBadRequest, "", "userId, gameName and tagLine are required"), s.logger, r)
		return
	}

	result, err := s.deps.Resolver.ResolvePlayerStats(r.Context(), req.GameName, req.TagLine)
	if err != nil {
		writeError(w, err, s.logger, r)
		return
	}

	link, err := s.deps.Database.LinkAccount(r.Context(), LinkedAccount{
		UserID:          req.UserID,
		PUUID:           result.Account.PUUID,
		GameName:        result.Account.GameName,
		TagLine:         result.Account.TagLine,
		SummonerID:      result.Profile.ID,
		Region:          s.deps.Region,
		SummonerLevel:   result.Profile.SummonerLevel,
		DiscordUsername: req.DiscordUsername,
	})
	if err != nil {
		writeError(w, newHTTPError(http.StatusServiceUnavailable, KindTransient, "Failed to save linked account"), s.logger, r)
		return
	}

	persistResolution(r.Context(), result, NewPlayerResolvedEvent(result), s.deps.Snapshots, s.deps.Publisher, s.deps.SnapshotTTL, s.logger)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"link":     link,
		"mainRole": result.MainRole(),
	}, s.logger, r)
}

func (s *Server) handleGetLink(w http.ResponseWriter, r *http.Request) {
	if s.deps.Database == nil {
		writeError(w, newHTTPError(http.StatusServiceUnavailable, KindConfig, "Account linking is disabled"), s.logger, r)
		return
	}

	userID := chi.URLParam(r, "userId")
	link, err := s.deps.Database.GetLinkedAccount(r.Context(), userID)
	switch {
	case errors.Is(err, ErrLinkNotFound):
		writeError(w, newHTTPError(http.StatusNotFound, KindNotFound, "No linked account for this user"), s.logger, r)
		return
	case errors.Is(err, ErrDatabaseDisabled):
		writeError(w, newHTTPError(http.StatusServiceUnavailable, KindConfig, "Account linking is disabled"), s.logger, r)
		return
	case err != nil:
		writeError(w, newHTTPError(http.StatusServiceUnavailable, KindTransient, "Failed to load linked account"), s.logger, r)
		return
	}
	writeJSON(w, http.StatusOK, link, s.logger, r)
}
