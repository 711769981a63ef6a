package tickets

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Digiaroficial/digi-reparaciones-app/common"
	"github.com/Digiaroficial/digi-reparaciones-app/internal/stream"
	"github.com/Digiaroficial/digi-reparaciones-app/middleware"
)

// Handler exposes the ticket workflow over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{svc: service}
}

func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.ListTickets)
	group.POST("", h.CreateTicket)
	group.PUT("/:id/status", h.UpdateStatus)
	group.DELETE("/:id", h.DeleteTicket)
	group.POST("/:id/notify", h.NotifyClient)
	group.GET("/history", h.ClientHistory)
	group.GET("/stream", h.StreamTickets)
}

func (h *Handler) ListTickets(c *gin.Context) {
	send := c.MustGet("send").(func(middleware.Response))
	owner := c.GetString(middleware.OwnerKey)

	tickets, err := h.svc.List(c.Request.Context(), owner)
	if err != nil {
		send(middleware.Response{
			Code:    middleware.CodeFor(err),
			Message: "Failed to list tickets",
			Error:   err,
		})
		return
	}
	send(middleware.Response{Data: tickets})
}

func (h *Handler) CreateTicket(c *gin.Context) {
	send := c.MustGet("send").(func(middleware.Response))
	owner := c.GetString(middleware.OwnerKey)

	var draft TicketDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		send(middleware.Response{
			Code:    http.StatusBadRequest,
			Message: "Invalid JSON payload",
			Error:   err,
		})
		return
	}

	ticket, err := h.svc.CreateTicket(c.Request.Context(), owner, draft)
	if err != nil {
		send(middleware.Response{
			Code:    middleware.CodeFor(err),
			Message: "Failed to create ticket",
			Error:   err,
		})
		return
	}
	send(middleware.Response{
		Code:    http.StatusCreated,
		Message: "Ticket created",
		Data:    ticket,
	})
}

type statusUpdate struct {
	Estado common.Status `json:"estado"`
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	send := c.MustGet("send").(func(middleware.Response))
	owner := c.GetString(middleware.OwnerKey)

	var payload statusUpdate
	if err := c.ShouldBindJSON(&payload); err != nil {
		send(middleware.Response{
			Code:    http.StatusBadRequest,
			Message: "Invalid JSON payload",
			Error:   err,
		})
		return
	}

	if err := h.svc.UpdateStatus(c.Request.Context(), owner, c.Param("id"), payload.Estado); err != nil {
		send(middleware.Response{
			Code:    middleware.CodeFor(err),
			Message: "Failed to update status",
			Error:   err,
		})
		return
	}
	send(middleware.Response{Message: "Status updated"})
}

func (h *Handler) DeleteTicket(c *gin.Context) {
	send := c.MustGet("send").(func(middleware.Response))
	owner := c.GetString(middleware.OwnerKey)

	if err := h.svc.DeleteTicket(c.Request.Context(), owner, c.Param("id")); err != nil {
		send(middleware.Response{
			Code:    middleware.CodeFor(err),
			Message: "Failed to delete ticket",
			Error:   err,
		})
		return
	}
	send(middleware.Response{Message: "Ticket deleted"})
}

func (h *Handler) NotifyClient(c *gin.Context) {
	send := c.MustGet("send").(func(middleware.Response))
	owner := c.GetString(middleware.OwnerKey)

	message, err := h.svc.Notify(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		send(middleware.Response{
			Code:    middleware.CodeFor(err),
			Message: "Failed to queue notification",
			Error:   err,
		})
		return
	}
	send(middleware.Response{
		Message: "Notification queued",
		Data:    gin.H{"mensaje": message},
	})
}

func (h *Handler) ClientHistory(c *gin.Context) {
	send := c.MustGet("send").(func(middleware.Response))
	owner := c.GetString(middleware.OwnerKey)

	tickets, err := h.svc.SearchByClient(c.Request.Context(), owner, c.Query("cliente"))
	if err != nil {
		send(middleware.Response{
			Code:    middleware.CodeFor(err),
			Message: "Failed to search history",
			Error:   err,
		})
		return
	}
	send(middleware.Response{Data: tickets})
}

// StreamTickets holds the connection open and pushes the full ticket
// set on every change until the client disconnects.
func (h *Handler) StreamTickets(c *gin.Context) {
	send := c.MustGet("send").(func(middleware.Response))
	sendStream := c.MustGet("sendStream").(func(middleware.StreamResponse))
	owner := c.GetString(middleware.OwnerKey)

	initial, snapshots, cancel, err := h.svc.Subscribe(c.Request.Context(), owner)
	if err != nil {
		send(middleware.Response{
			Code:    middleware.CodeFor(err),
			Message: "Failed to open ticket stream",
			Error:   err,
		})
		return
	}
	sendStream(stream.Feed(c.Request.Context(), initial, snapshots, cancel))
}
