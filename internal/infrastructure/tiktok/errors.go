package tiktok

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"tiktok-analytics-layer/internal/domain"
)

// TikTok response codes that steer control flow, named once here instead of
// compared as raw literals at call sites.
const (
	codeSuccess = 0

	// Shop: access token missing, expired, or revoked.
	codeShopTokenExpired = 105001
	// Shop: seller region not available to the app.
	codeShopRegionUnavailable = 105002

	// Ads: access token invalid or not configured.
	codeAdsTokenInvalid = 40100
	// Ads: required parameter missing.
	codeAdsMissingParam = 40000
)

// Envelope is the common TikTok API response wrapper. Code zero signals
// success; any other code is a domain error carried in Message.
type Envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"request_id,omitempty"`
}

// Err maps a non-zero envelope code to a typed failure. The platform message
// is preserved verbatim.
func (e *Envelope) Err() error {
	if e.Code == codeSuccess {
		return nil
	}
	return &domain.PlatformError{Code: e.Code, Message: e.Message}
}

// Decode fails on a non-zero code, otherwise unmarshals the data payload
// into out. A nil out discards the payload.
func (e *Envelope) Decode(out any) error {
	if err := e.Err(); err != nil {
		return err
	}
	if out == nil || len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// IsAuthError reports whether err is a platform rejection that means the
// stored token is invalid and the owner must reconnect, as opposed to a
// transient outage.
func IsAuthError(err error) bool {
	var pe *domain.PlatformError
	if errors.As(err, &pe) {
		return pe.Code == codeShopTokenExpired || pe.Code == codeAdsTokenInvalid
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusUnauthorized || he.StatusCode == http.StatusForbidden
	}
	return false
}

// IsRegionUnavailable reports whether err means the seller region is not
// serviceable; callers surface this distinctly instead of retrying.
func IsRegionUnavailable(err error) bool {
	var pe *domain.PlatformError
	return errors.As(err, &pe) && pe.Code == codeShopRegionUnavailable
}
