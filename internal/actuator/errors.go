package actuator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Error is a failed actuator call.
type Error struct {
	// Op is the failed operation.
	Op Op
	// StatusCode is the service status when known, 0 otherwise.
	StatusCode int
	// Err is the underlying failure.
	Err error
}

// Error implements error.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying failure.
func (e *Error) Unwrap() error {
	return e.Err
}

// Category says whether retrying can help.
type Category int

// Categories.
const (
	// Transient failures (network, timeouts, 5xx, rate limits) are retried.
	Transient Category = iota
	// Permanent failures (credentials, entitlement, missing content) are not.
	Permanent
)

// Cause is the user-facing reason behind a failure.
type Cause int

// Causes, in classification priority order.
const (
	CauseUnknown Cause = iota
	CauseEntitlement
	CauseNoActiveDevice
	CauseExpiredCredentials
	CauseRateLimited
	CauseNetwork
	CauseNotFound
)

// String implements fmt.Stringer.
func (c Cause) String() string {
	switch c {
	case CauseEntitlement:
		return "entitlement"
	case CauseNoActiveDevice:
		return "no_active_device"
	case CauseExpiredCredentials:
		return "expired_credentials"
	case CauseRateLimited:
		return "rate_limited"
	case CauseNetwork:
		return "network"
	case CauseNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Category returns whether the cause is worth retrying. Unknown causes are
// treated as transient.
func (c Cause) Category() Category {
	switch c {
	case CauseEntitlement, CauseExpiredCredentials, CauseNotFound:
		return Permanent
	default:
		return Transient
	}
}

// Describe renders a plain-language failure for the given content.
func (c Cause) Describe(contentName string) (title, message string) {
	title = "Alarm failed"

	switch c {
	case CauseEntitlement:
		message = fmt.Sprintf("Could not play %q: playback control requires a premium subscription.", contentName)
	case CauseNoActiveDevice:
		message = fmt.Sprintf("Could not play %q: no active playback device. Open the player on a device and try again.", contentName)
	case CauseExpiredCredentials:
		message = fmt.Sprintf("Could not play %q: your login has expired. Please sign in again.", contentName)
	case CauseRateLimited:
		message = fmt.Sprintf("Could not play %q: the playback service is rate limiting requests.", contentName)
	case CauseNetwork:
		message = fmt.Sprintf("Could not play %q: network error while contacting the playback service.", contentName)
	case CauseNotFound:
		message = fmt.Sprintf("Could not play %q: the playlist was not found.", contentName)
	default:
		message = fmt.Sprintf("Could not play %q.", contentName)
	}

	return title, message
}

// Classify maps an actuator failure to a cause. Status codes win over message
// sniffing; message sniffing covers services that only return text.
func Classify(err error) Cause {
	if err == nil {
		return CauseUnknown
	}

	text := strings.ToLower(err.Error())

	var actErr *Error
	if errors.As(err, &actErr) {
		if cause, ok := classifyStatus(actErr.StatusCode, text); ok {
			return cause
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CauseNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return CauseNetwork
	}

	return classifyText(text)
}

func classifyStatus(code int, text string) (Cause, bool) {
	switch {
	case code == http.StatusUnauthorized:
		return CauseExpiredCredentials, true
	case code == http.StatusForbidden:
		return CauseEntitlement, true
	case code == http.StatusNotFound && strings.Contains(text, "device"):
		return CauseNoActiveDevice, true
	case code == http.StatusNotFound:
		return CauseNotFound, true
	case code == http.StatusTooManyRequests:
		return CauseRateLimited, true
	case code >= http.StatusInternalServerError:
		return CauseNetwork, true
	default:
		return CauseUnknown, false
	}
}

//nolint:gochecknoglobals // Read-only lookup table, first match wins.
var textRules = []struct {
	cause    Cause
	patterns []string
}{
	{CauseEntitlement, []string{"premium", "entitlement"}},
	{CauseNoActiveDevice, []string{"no active device", "device not found", "no device"}},
	{CauseExpiredCredentials, []string{"expired", "unauthorized", "not authenticated", "invalid token", "401"}},
	{CauseRateLimited, []string{"rate limit", "too many requests", "429"}},
	{CauseNetwork, []string{"network", "connection", "timeout", "timed out", "unreachable", "502", "503", "504"}},
	{CauseNotFound, []string{"not found", "404"}},
}

func classifyText(text string) Cause {
	for _, rule := range textRules {
		for _, pattern := range rule.patterns {
			if strings.Contains(text, pattern) {
				return rule.cause
			}
		}
	}

	return CauseUnknown
}
