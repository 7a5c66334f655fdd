package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/JawadAsif77/fundchain-sub001/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	maxAuditActor = 64
	maxAuditBody  = 2000
)

// RequestLogger writes one zerolog event per request.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		ev := logger.Info()
		if param.StatusCode >= 500 {
			ev = logger.Error()
		}
		ev.Str("method", param.Method).
			Str("path", param.Path).
			Int("status", param.StatusCode).
			Dur("latency", param.Latency).
			Str("client_ip", param.ClientIP).
			Str("user_agent", param.Request.UserAgent()).
			Msg("HTTP Request")
		return ""
	})
}

// AuditMiddleware appends every call to the wrapped routes to audit_logs. The
// write is best-effort: a failure is logged and the response is unaffected.
func AuditMiddleware(db *gorm.DB, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		c.Next()

		actor, ok := Actor(c)
		if !ok {
			actor = actorFromBody(bodyBytes)
		}
		actor = truncateUTF8(actor, maxAuditActor)
		metadata := truncateUTF8(string(bodyBytes), maxAuditBody)

		entry := models.AuditLog{
			ActorID:   actor,
			Path:      c.Request.URL.Path,
			Method:    c.Request.Method,
			Status:    c.Writer.Status(),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Metadata:  metadata,
		}
		if err := db.WithContext(c.Request.Context()).Create(&entry).Error; err != nil {
			logger.Warn().Err(err).Str("path", entry.Path).Msg("audit log write failed")
		}
	}
}

// actorFromBody picks the acting id out of a function request body.
func actorFromBody(body []byte) string {
	var ids struct {
		AdminID string `json:"adminId"`
		UserID  string `json:"userId"`
	}
	if len(body) == 0 || json.Unmarshal(body, &ids) != nil {
		return ""
	}
	if ids.AdminID != "" {
		return ids.AdminID
	}
	return ids.UserID
}

// truncateUTF8 cuts s to at most max bytes without splitting a rune. Invalid
// sequences are dropped first; postgres rejects them in text columns.
func truncateUTF8(s string, max int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
