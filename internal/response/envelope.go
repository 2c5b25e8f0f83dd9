package response

import "time"

// Failure codes carried in every error envelope.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeEmailSend          = "EMAIL_SEND_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeCheck              = "CHECK_ERROR"
	CodeMissingEmail       = "MISSING_EMAIL"
	CodeTestEmail          = "TEST_EMAIL_ERROR"
	CodeInvalidJSON        = "INVALID_JSON"
	CodeInvalidContentType = "INVALID_CONTENT_TYPE"
	CodeEmptyBody          = "EMPTY_BODY"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeRouteNotFound      = "ROUTE_NOT_FOUND"
	CodeRateLimit          = "RATE_LIMIT_EXCEEDED"
)

// TimestampLayout is ISO-8601 with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Envelope is the uniform JSON body of every API response.
type Envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Error     any    `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Builder stamps envelopes with its clock.
type Builder struct {
	now func() time.Time
}

// NewBuilder returns a Builder using now, or time.Now when now is nil.
func NewBuilder(now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{now: now}
}

// Success builds a successful envelope. data may be nil.
func (b *Builder) Success(message string, data any) Envelope {
	return Envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: b.timestamp(),
	}
}

// Failure builds an error envelope. err may be a string, an object or a list.
func (b *Builder) Failure(message string, err any, code string) Envelope {
	return Envelope{
		Success:   false,
		Message:   message,
		Error:     err,
		Code:      code,
		Timestamp: b.timestamp(),
	}
}

func (b *Builder) timestamp() string {
	return b.now().UTC().Format(TimestampLayout)
}
