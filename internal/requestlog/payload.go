package requestlog

import (
	"encoding/json"
	"time"

	"github.com/asimzz/text-summarization-system/internal/model"
)

// Payload is the stream representation of a request log.
type Payload struct {
	ID             string            `json:"id"`
	Username       string            `json:"u"`
	UserID         string            `json:"uid"`
	Time           int64             `json:"t"` // Unix milliseconds
	Endpoint       string            `json:"ep"`
	RequestBody    json.RawMessage   `json:"req,omitempty"`
	RequestHeaders map[string]string `json:"hdr,omitempty"`
	ResponseBody   json.RawMessage   `json:"res,omitempty"`
	StatusCode     int               `json:"sc"`
}

// NewPayload converts a request log into its stream form.
func NewPayload(entry *model.RequestLog) Payload {
	return Payload{
		ID:             entry.ID,
		Username:       entry.Username,
		UserID:         entry.UserID,
		Time:           entry.Time.UnixMilli(),
		Endpoint:       entry.Endpoint,
		RequestBody:    entry.RequestBody,
		RequestHeaders: entry.RequestHeaders,
		ResponseBody:   entry.ResponseBody,
		StatusCode:     entry.StatusCode,
	}
}

// RequestLog converts the payload back into a model.
func (p Payload) RequestLog() *model.RequestLog {
	return &model.RequestLog{
		ID:             p.ID,
		Username:       p.Username,
		UserID:         p.UserID,
		Time:           time.UnixMilli(p.Time).UTC(),
		Endpoint:       p.Endpoint,
		RequestBody:    p.RequestBody,
		RequestHeaders: p.RequestHeaders,
		ResponseBody:   p.ResponseBody,
		StatusCode:     p.StatusCode,
	}
}
