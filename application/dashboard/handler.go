package dashboard

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/Digiaroficial/digi-reparaciones-app/common"
	"github.com/Digiaroficial/digi-reparaciones-app/middleware"
)

// TicketSource provides the current ticket mirror for an owner.
type TicketSource interface {
	List(ctx context.Context, owner string) ([]common.Ticket, error)
}

type Handler struct {
	tickets TicketSource
}

func NewHandler(tickets TicketSource) *Handler {
	return &Handler{tickets: tickets}
}

func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.GetStats)
}

func (h *Handler) GetStats(c *gin.Context) {
	send := c.MustGet("send").(func(middleware.Response))
	owner := c.GetString(middleware.OwnerKey)

	tickets, err := h.tickets.List(c.Request.Context(), owner)
	if err != nil {
		send(middleware.Response{
			Code:    middleware.CodeFor(err),
			Message: "Failed to compute dashboard",
			Error:   err,
		})
		return
	}
	send(middleware.Response{Data: Compute(tickets)})
}
