package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/example/wedding-rsvp-mailer/internal/dispatch"
	"github.com/example/wedding-rsvp-mailer/internal/models"
	"github.com/example/wedding-rsvp-mailer/internal/response"
	rsvpvalidator "github.com/example/wedding-rsvp-mailer/internal/validator/rsvp"
)

type rsvpData struct {
	MessageID       string `json:"messageId"`
	CoupleMessageID string `json:"coupleMessageId"`
	Recipient       string `json:"recipient"`
	TrackingID      string `json:"trackingId,omitempty"`
	Timestamp       string `json:"timestamp"`
}

type healthBody struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, s.responses.Success("Wedding RSVP mail API", gin.H{
		"health": "/health",
		"rsvp":   "/api/email/rsvp",
		"status": "/api/email/status",
		"test":   "/api/email/test",
	}))
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthBody{
		Status:      "ok",
		Message:     "Wedding RSVP mail API is running",
		Timestamp:   s.now().UTC().Format(response.TimestampLayout),
		Environment: s.cfg.App.Env,
	})
}

func (s *Server) sendRSVP(c *gin.Context) {
	ctx := c.Request.Context()

	outcome, err := s.validator.ParseAndValidate(ctx, rawBody(c))
	if err != nil {
		s.rejectBody(c, err)
		return
	}
	if !outcome.Valid() {
		c.JSON(http.StatusBadRequest, s.responses.Failure("Invalid RSVP data", outcome.Errors, response.CodeValidation))
		return
	}

	result, ok := s.deliver(ctx, c, outcome.Submission)
	if !ok {
		return
	}
	if result.Failed() {
		c.JSON(http.StatusInternalServerError, s.responses.Failure(
			"Error sending confirmation emails", result.Error, response.CodeEmailSend))
		return
	}

	c.JSON(http.StatusOK, s.responses.Success("RSVP confirmed and emails sent successfully", rsvpData{
		MessageID:       result.GuestMessageID,
		CoupleMessageID: result.CoupleMessageID,
		Recipient:       outcome.Submission.SenderEmail,
		TrackingID:      "rsvp_" + uuid.NewString(),
		Timestamp:       s.now().UTC().Format(response.TimestampLayout),
	}))
}

func (s *Server) status(c *gin.Context) {
	ctx := c.Request.Context()

	status := s.prober.Check(ctx)
	if ctx.Err() != nil {
		c.JSON(http.StatusInternalServerError, s.responses.Failure(
			"Error checking email service", s.internalDetail(ctx.Err().Error()), response.CodeCheck))
		return
	}
	if !status.Valid {
		c.JSON(http.StatusServiceUnavailable, s.responses.Failure(
			"Email service unavailable", status, response.CodeServiceUnavailable))
		return
	}

	c.JSON(http.StatusOK, s.responses.Success("Email service operational", gin.H{
		"status":    "operational",
		"provider":  s.cfg.Mail.Provider,
		"timestamp": s.now().UTC().Format(response.TimestampLayout),
	}))
}

func (s *Server) sendTest(c *gin.Context) {
	var req models.TestSendRequest
	if err := json.Unmarshal(rawBody(c), &req); err != nil {
		c.JSON(http.StatusBadRequest, s.responses.Failure(
			"Invalid JSON", s.internalDetail(err.Error()), response.CodeInvalidJSON))
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		c.JSON(http.StatusBadRequest, s.responses.Failure(
			"Email is required", "Provide an email address to send the test to", response.CodeMissingEmail))
		return
	}

	outcome := s.validator.Validate(s.validator.Sample(req.Email))
	if !outcome.Valid() {
		c.JSON(http.StatusBadRequest, s.responses.Failure("Invalid test data", outcome.Errors, response.CodeValidation))
		return
	}

	ctx := c.Request.Context()
	result, ok := s.deliver(ctx, c, outcome.Submission)
	if !ok {
		return
	}
	if result.Failed() {
		c.JSON(http.StatusInternalServerError, s.responses.Failure(
			"Error sending test email", result.Error, response.CodeTestEmail))
		return
	}

	c.JSON(http.StatusOK, s.responses.Success("Test email sent successfully", rsvpData{
		MessageID:       result.GuestMessageID,
		CoupleMessageID: result.CoupleMessageID,
		Recipient:       outcome.Submission.SenderEmail,
		Timestamp:       s.now().UTC().Format(response.TimestampLayout),
	}))
}

func (s *Server) notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, s.responses.Failure(
		"Route not found", c.Request.Method+" "+c.Request.URL.Path+" does not exist", response.CodeRouteNotFound))
}

// deliver composes and dispatches sub. It writes an internal error response
// and returns false when composition fails.
func (s *Server) deliver(ctx context.Context, c *gin.Context, sub *models.RSVPSubmission) (dispatch.Result, bool) {
	msgs, err := s.composer.Compose(sub)
	if err != nil {
		s.logger.Error().Err(err).Msg("compose rsvp messages")
		c.JSON(http.StatusInternalServerError, s.responses.Failure(
			"Internal server error", s.internalDetail(err.Error()), response.CodeInternal))
		return dispatch.Result{}, false
	}
	return s.dispatcher.SendRSVP(ctx, sub, msgs), true
}

func (s *Server) rejectBody(c *gin.Context, err error) {
	switch {
	case errors.Is(err, rsvpvalidator.ErrEmptyPayload):
		c.JSON(http.StatusBadRequest, s.responses.Failure(
			"Empty request body", "A request body with valid data is required", response.CodeEmptyBody))
	case errors.Is(err, rsvpvalidator.ErrMalformedJSON):
		c.JSON(http.StatusBadRequest, s.responses.Failure(
			"Invalid JSON", s.internalDetail(err.Error()), response.CodeInvalidJSON))
	default:
		s.logger.Error().Err(err).Msg("read rsvp payload")
		c.JSON(http.StatusInternalServerError, s.responses.Failure(
			"Internal server error", s.internalDetail(err.Error()), response.CodeInternal))
	}
}
