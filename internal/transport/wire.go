package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/hungg523/helpdesk-assistant/internal/auth"
	"github.com/hungg523/helpdesk-assistant/internal/transcript"
)

// envelope is the backend's standard response wrapper. Older endpoints
// sometimes return the payload bare, and `errors` drifts between a string,
// an array and null; normalization happens in decodeEnvelope.
type envelope struct {
	Success    *bool           `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Errors     json.RawMessage `json:"errors"`
	StatusCode int             `json:"statusCode"`
}

// decodeEnvelope unwraps a response body into out, normalizing envelope
// drift. A body without the wrapper fields is treated as a bare payload.
func decodeEnvelope(body []byte, httpStatus int, kind Kind, out any) error {
	var env envelope
	wrapped := json.Unmarshal(body, &env) == nil &&
		(env.Success != nil || len(env.Data) > 0 || env.Message != "" || len(env.Errors) > 0)

	if !wrapped {
		if httpStatus < 200 || httpStatus >= 300 {
			return newError(kind, httpStatus, string(bytes.TrimSpace(body)), nil)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return newError(kind, httpStatus, fmt.Sprintf("malformed response: %v", err), nil)
		}
		return nil
	}

	details := normalizeErrors(env.Errors)
	status := env.StatusCode
	if status == 0 {
		status = httpStatus
	}

	failed := httpStatus < 200 || httpStatus >= 300 || (env.Success != nil && !*env.Success)
	if failed {
		return newError(kind, status, env.Message, details)
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return newError(kind, status, fmt.Sprintf("malformed payload: %v", err), nil)
	}
	return nil
}

// normalizeErrors flattens the `errors` field into a string slice whether
// the backend sent a string, an array of strings, or nothing.
func normalizeErrors(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		if one == "" {
			return nil
		}
		return []string{one}
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	// Objects or anything else: keep the raw text so it is not lost.
	return []string{string(raw)}
}

// flexID tolerates ids serialized as JSON numbers or numeric strings.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("parse id %q: %w", s, err)
		}
		*f = flexID(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n)
	return nil
}

type messageDTO struct {
	ID         flexID     `json:"id"`
	SessionID  flexID     `json:"sessionId"`
	SenderRole string     `json:"senderRole"`
	Text       string     `json:"messageText"`
	IsError    bool       `json:"isError"`
	Source     string     `json:"source"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt"`
	DeletedAt  *time.Time `json:"deletedAt"`
}

func (d messageDTO) toDomain() transcript.Message {
	return transcript.Message{
		ID:         int64(d.ID),
		SessionID:  int64(d.SessionID),
		SenderRole: transcript.Role(d.SenderRole),
		Text:       d.Text,
		IsError:    d.IsError,
		Source:     d.Source,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
		DeletedAt:  d.DeletedAt,
	}
}

type sessionDTO struct {
	ID         flexID       `json:"id"`
	UserID     flexID       `json:"userId"`
	ModuleCode string       `json:"moduleCode"`
	Status     string       `json:"status"`
	Messages   []messageDTO `json:"messages"`
}

func (d sessionDTO) toDomain() *transcript.Session {
	msgs := make([]transcript.Message, 0, len(d.Messages))
	for _, m := range d.Messages {
		msgs = append(msgs, m.toDomain())
	}
	return &transcript.Session{
		ID:         int64(d.ID),
		UserID:     int64(d.UserID),
		ModuleCode: d.ModuleCode,
		Status:     d.Status,
		Messages:   msgs,
	}
}

type pageDTO struct {
	Messages     []messageDTO `json:"messages"`
	Count        int          `json:"count"`
	HasMore      bool         `json:"hasMore"`
	NextBeforeID flexID       `json:"nextBeforeMessageId"`
}

func (d pageDTO) toDomain() *transcript.Page {
	msgs := make([]transcript.Message, 0, len(d.Messages))
	for _, m := range d.Messages {
		msgs = append(msgs, m.toDomain())
	}
	return &transcript.Page{
		Messages:     msgs,
		Count:        d.Count,
		HasMore:      d.HasMore,
		NextBeforeID: int64(d.NextBeforeID),
	}
}

type sendDTO struct {
	Response  string    `json:"response"`
	SessionID flexID    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
}

type userDTO struct {
	ID           flexID `json:"id"`
	EmployeeCode string `json:"employeeCode"`
	EmployeeName string `json:"employeeName"`
}

func (d userDTO) toDomain() *auth.User {
	return &auth.User{
		ID:           int64(d.ID),
		EmployeeCode: d.EmployeeCode,
		EmployeeName: d.EmployeeName,
	}
}
