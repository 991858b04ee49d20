package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"relief-ops-backend/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint            string  `json:"endpoint" binding:"required"`
	P256DH              string  `json:"p256dh" binding:"required"`
	Auth                string  `json:"auth" binding:"required"`
	SubscribedDisasters []int64 `json:"subscribed_disasters"`
	AllDisasters        bool    `json:"all_disasters"`
}

// PutSubscription handles the creation or replacement of a subscription.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	subscription := model.PushSubscription{
		Endpoint:     req.Endpoint,
		P256DH:       req.P256DH,
		Auth:         req.Auth,
		AllDisasters: req.AllDisasters,
		CreatedAt:    h.now(),
	}
	if err := h.store.UpsertSubscription(c.Request.Context(), &subscription, req.SubscribedDisasters); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.store.DeleteSubscription(c.Request.Context(), req.Endpoint); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// rawQueryParam reads a query value without decoding it. Push endpoints are
// URLs themselves and some browsers send them unescaped.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetSubscription handles the retrieval of a subscription.
func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}

	ctx := c.Request.Context()
	subscription, err := h.store.GetSubscription(ctx, raw)
	if err != nil {
		// Fall back to the decoded form for clients that did escape the endpoint.
		decoded, decErr := url.QueryUnescape(raw)
		if decErr != nil || decoded == raw {
			h.respondError(c, err)
			return
		}
		if subscription, err = h.store.GetSubscription(ctx, decoded); err != nil {
			h.respondError(c, fmt.Errorf("subscription lookup: %w", err))
			return
		}
	}

	disasterIDs := make([]int64, len(subscription.Disasters))
	for i, disaster := range subscription.Disasters {
		disasterIDs[i] = disaster.ID
	}

	c.JSON(http.StatusOK, gin.H{
		"subscribed_disasters": disasterIDs,
		"all_disasters":        subscription.AllDisasters,
	})
}
