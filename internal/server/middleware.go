package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/wedding-rsvp-mailer/internal/response"
)

const rawBodyKey = "rsvp.rawBody"

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error().
			Str("path", c.Request.URL.Path).
			Interface("panic", recovered).
			Msg("recovered from panic")
		s.abort(c, http.StatusInternalServerError,
			s.responses.Failure("Internal server error", s.internalDetail(fmt.Sprint(recovered)), response.CodeInternal))
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()
		c.Next()

		status := c.Writer.Status()
		event := s.logger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = s.logger.Error()
		case status >= http.StatusBadRequest:
			event = s.logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", s.now().Sub(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request completed")
	}
}

// cors allows the configured origins; "*" allows any origin.
func (s *Server) cors() gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(s.cfg.HTTP.AllowedOrigins))
	for _, origin := range s.cfg.HTTP.AllowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(origin, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := allowed[origin]; ok || allowAll {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", "GET, POST")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter.allow(c.ClientIP()) {
			c.Next()
			return
		}
		c.Header("Retry-After", "60")
		s.abort(c, http.StatusTooManyRequests,
			s.responses.Failure("Too many requests, please try again in a minute", nil, response.CodeRateLimit))
	}
}

func (s *Server) bodyLimit() gin.HandlerFunc {
	limit := s.cfg.HTTP.MaxBodyBytes
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			s.abort(c, http.StatusRequestEntityTooLarge, s.payloadTooLarge())
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// requireJSON checks the content type, reads the body once and stores it
// for the handler.
func (s *Server) requireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
		if err != nil || mediaType != "application/json" {
			s.abort(c, http.StatusBadRequest, s.responses.Failure(
				"Invalid content type", "Content-Type must be application/json", response.CodeInvalidContentType))
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				s.abort(c, http.StatusRequestEntityTooLarge, s.payloadTooLarge())
				return
			}
			s.abort(c, http.StatusBadRequest, s.responses.Failure(
				"Could not read request body", s.internalDetail(err.Error()), response.CodeInvalidJSON))
			return
		}
		if isEmptyBody(body) {
			s.abort(c, http.StatusBadRequest, s.responses.Failure(
				"Empty request body", "A request body with valid data is required", response.CodeEmptyBody))
			return
		}

		c.Set(rawBodyKey, body)
		c.Next()
	}
}

// isEmptyBody reports whether body is blank or an object without keys.
// Malformed JSON is left for the handler to reject.
func isEmptyBody(body []byte) bool {
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return false
	}
	return fields != nil && len(fields) == 0
}

func (s *Server) payloadTooLarge() response.Envelope {
	return s.responses.Failure("Payload too large",
		fmt.Sprintf("request body must not exceed %d bytes", s.cfg.HTTP.MaxBodyBytes), response.CodePayloadTooLarge)
}

func (s *Server) abort(c *gin.Context, status int, env response.Envelope) {
	c.AbortWithStatusJSON(status, env)
}

// internalDetail hides raw error text from callers in production.
func (s *Server) internalDetail(detail string) any {
	if s.cfg.App.IsProduction() || detail == "" {
		return nil
	}
	return detail
}

func rawBody(c *gin.Context) []byte {
	if v, ok := c.Get(rawBodyKey); ok {
		if body, ok := v.([]byte); ok {
			return body
		}
	}
	return nil
}
