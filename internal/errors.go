package internal

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorKind string

const (
	KindNotFound    ErrorKind = "not_found"
	KindAuth        ErrorKind = "auth"
	KindRateLimited ErrorKind = "rate_limited"
	KindTransient   ErrorKind = "transient"
	KindConfig      ErrorKind = "config"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrAuth        = errors.New("credential rejected")
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrTransient   = errors.New("upstream unavailable")
	ErrConfig      = errors.New("invalid configuration")
)

var kindSentinels = map[ErrorKind]error{
	KindNotFound:    ErrNotFound,
	KindAuth:        ErrAuth,
	KindRateLimited: ErrRateLimited,
	KindTransient:   ErrTransient,
	KindConfig:      ErrConfig,
}

// Upstream operation names carried on APIError.Op.
const (
	OpAccount    = "account"
	OpSummoner   = "summoner"
	OpRanked     = "ranked"
	OpMasteryTop = "mastery_top"
	OpMasteryAll = "mastery_all"
	OpMatchIDs   = "match_ids"
	OpMatch      = "match"
)

// APIError keeps the upstream status and body so callers can tell the
// failure modes apart.
type APIError struct {
	Kind       ErrorKind
	Op         string
	StatusCode int
	Body       string
	RetryAfter string
	Err        error
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "riot %s: %s", e.Op, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, " - %s", e.Body)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func newStatusError(op string, resp *http.Response, body []byte) *APIError {
	return &APIError{
		Kind:       classifyStatus(resp.StatusCode),
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       string(body),
		RetryAfter: resp.Header.Get("Retry-After"),
	}
}

func newTransientError(op string, err error) *APIError {
	return &APIError{Kind: KindTransient, Op: op, Err: err}
}

func classifyStatus(status int) ErrorKind {
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindTransient
	}
}

// ConfigError reports a missing or malformed setting. It is raised before
// any network call is attempted.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// KindOf returns the taxonomy kind of err. Errors outside the taxonomy are
// reported as transient.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if errors.Is(err, ErrConfig) {
		return KindConfig
	}
	return KindTransient
}

func IsSummonerNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindNotFound && apiErr.Op == OpSummoner
}

func UserMessage(err error) string {
	switch KindOf(err) {
	case KindNotFound:
		if IsSummonerNotFound(err) {
			return "Account found but its profile is unavailable. Please try again later."
		}
		return "Account not found. Please check your Riot ID and tag."
	case KindAuth, KindConfig:
		return "Service temporarily unavailable. Please try again later."
	case KindRateLimited:
		return "Too many requests. Please wait a moment and try again."
	default:
		return "Failed to reach Riot services. Please try again."
	}
}
