package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Digiaroficial/digi-reparaciones-app/middleware"
)

type Handler struct {
	svc *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{svc: service}
}

func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/health", h.HealthCheck)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	send := c.MustGet("send").(func(middleware.Response))

	result := h.svc.CheckHealth(c.Request.Context())
	for _, status := range result {
		if status == "error" {
			send(middleware.Response{
				Code:    http.StatusServiceUnavailable,
				Message: "Health check failed",
				Data:    result,
			})
			return
		}
	}

	send(middleware.Response{
		Message: "Health check completed",
		Data:    result,
	})
}
