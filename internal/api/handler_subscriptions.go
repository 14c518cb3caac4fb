package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartbreath-backend/internal/apperr"
	"smartbreath-backend/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}

// PutSubscription handles the creation or replacement of a push subscription
// for the calling user.
func (h *Handler) PutSubscription(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sub := model.PushSubscription{
		Endpoint: req.Endpoint,
		UserID:   principal.ID,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}
	if err := h.store.UpsertSubscription(c.Request.Context(), &sub); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

// GetSubscription returns the caller's registered subscription endpoints.
func (h *Handler) GetSubscription(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	subs, err := h.store.SubscriptionsForUser(c.Request.Context(), principal.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	endpoints := make([]string, len(subs))
	for i, sub := range subs {
		endpoints[i] = sub.Endpoint
	}
	c.JSON(http.StatusOK, gin.H{"endpoints": endpoints})
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription removes one of the caller's subscriptions.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.store.DeleteSubscription(c.Request.Context(), req.Endpoint, principal.ID)
	if err != nil && !apperr.IsNotFound(err) {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetVAPIDPublicKey exposes the key browsers need to subscribe for push.
// Unauthenticated; returns 503 when push is not configured.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push notifications are not configured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"publicKey": h.webpush.VAPIDPublicKey})
}
