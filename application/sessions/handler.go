// Package sessions exposes the session bootstrap endpoint. The shop UI
// calls it once on startup and sends the returned token on every
// request; an anonymous session gets its own empty namespace.
package sessions

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Digiaroficial/digi-reparaciones-app/internal/session"
	"github.com/Digiaroficial/digi-reparaciones-app/middleware"
)

type Handler struct {
	store *session.Store
}

func NewHandler(store *session.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/session/anonymous", h.Anonymous)
}

func (h *Handler) Anonymous(c *gin.Context) {
	send := c.MustGet("send").(func(middleware.Response))

	token, err := h.store.Anonymous(c.Request.Context())
	if err != nil {
		send(middleware.Response{
			Code:    http.StatusServiceUnavailable,
			Message: "Failed to bootstrap session",
			Error:   err,
		})
		return
	}
	send(middleware.Response{
		Code:    http.StatusCreated,
		Message: "Session created",
		Data:    gin.H{"sessionId": token},
	})
}
