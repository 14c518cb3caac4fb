package api

import (
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"smartbreath-backend/config"
	"smartbreath-backend/internal/apperr"
	"smartbreath-backend/internal/auth"
	"smartbreath-backend/internal/mw"
	"smartbreath-backend/internal/report"
	"smartbreath-backend/internal/store"
)

// Notifier dispatches a measurement notification job for a machine id.
type Notifier interface {
	Dispatch(machineID string)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	guard    *auth.Guard
	reports  *report.Service
	notifier Notifier
	authCfg  config.AuthConfig
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, guard *auth.Guard, reports *report.Service, notifier Notifier, authCfg config.AuthConfig, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:    s,
		guard:    guard,
		reports:  reports,
		notifier: notifier,
		authCfg:  authCfg,
		webpush:  webpushOptions,
	}
}

// writeError maps a typed application error onto the transport. Unexpected
// failures are logged in full and surfaced with a generic body only.
func writeError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperr.KindUnauthorized:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case apperr.KindForbidden:
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case apperr.KindNotFound:
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperr.KindConflict:
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("unexpected error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "an unexpected error occurred"})
	}
}

// principal fetches the verified principal or aborts with 403. The auth
// middleware guarantees it is present on protected routes; this is the
// backstop for miswired routes.
func (h *Handler) principal(c *gin.Context) (auth.Principal, bool) {
	p, ok := mw.PrincipalFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no token provided"})
		return auth.Principal{}, false
	}
	return p, true
}

// forbid writes the guard's denial as a 403.
func forbid(c *gin.Context, d auth.Decision) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": d.Reason})
}
