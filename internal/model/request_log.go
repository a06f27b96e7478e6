package model

import (
	"encoding/json"
	"strings"
	"time"
)

// RequestLog is an append-only audit record of one summarize call.
type RequestLog struct {
	ID             string            `json:"id"` // ULID (time-sortable)
	Username       string            `json:"username"`
	UserID         string            `json:"user_id"`
	Time           time.Time         `json:"time"`
	Endpoint       string            `json:"endpoint"`
	RequestBody    json.RawMessage   `json:"request_body"`
	RequestHeaders map[string]string `json:"request_headers"`
	ResponseBody   json.RawMessage   `json:"response_body"`
	StatusCode     int               `json:"status_code"`
	CreatedAt      time.Time         `json:"created_at"` // DB insertion time
}

// sensitiveHeaders are replaced before a request log is stored.
var sensitiveHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"x-api-key":     true,
}

// RedactedHeaderValue replaces credentials in stored request headers.
const RedactedHeaderValue = "[redacted]"

// FlattenHeaders converts request headers to a lower-cased single-value map,
// joining repeated values with ", " and redacting credentials.
func FlattenHeaders(h map[string][]string) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		key := strings.ToLower(name)
		if sensitiveHeaders[key] {
			out[key] = RedactedHeaderValue
			continue
		}
		out[key] = strings.Join(values, ", ")
	}
	return out
}
