package requestlog

import (
	"encoding/json"
	"fmt"

	"github.com/oklog/ulid/v2"
)

const (
	maxUsernameLength = 64
	maxEndpointLength = 200
)

// ValidatePayload validates stream payload fields.
func ValidatePayload(payload Payload) error {
	if payload.ID == "" {
		return fmt.Errorf("id is required")
	}
	if _, err := ulid.ParseStrict(payload.ID); err != nil {
		return fmt.Errorf("id must be a ULID: %w", err)
	}
	if payload.Username == "" {
		return fmt.Errorf("username is required")
	}
	if len(payload.Username) > maxUsernameLength {
		return fmt.Errorf("username too long")
	}
	if payload.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if payload.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if len(payload.Endpoint) > maxEndpointLength {
		return fmt.Errorf("endpoint too long")
	}
	if payload.Time <= 0 {
		return fmt.Errorf("time must be set")
	}
	if payload.StatusCode < 100 || payload.StatusCode > 599 {
		return fmt.Errorf("status_code out of range")
	}
	if len(payload.RequestBody) > 0 && !json.Valid(payload.RequestBody) {
		return fmt.Errorf("request_body is not valid JSON")
	}
	if len(payload.ResponseBody) > 0 && !json.Valid(payload.ResponseBody) {
		return fmt.Errorf("response_body is not valid JSON")
	}
	return nil
}
