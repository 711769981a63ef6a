package inventory

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Digiaroficial/digi-reparaciones-app/internal/stream"
	"github.com/Digiaroficial/digi-reparaciones-app/middleware"
)

// Handler exposes the inventory collection over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{svc: service}
}

func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.ListItems)
	group.POST("", h.CreateItem)
	group.DELETE("/:id", h.DeleteItem)
	group.GET("/stream", h.StreamItems)
}

func (h *Handler) ListItems(c *gin.Context) {
	send := c.MustGet("send").(func(middleware.Response))
	owner := c.GetString(middleware.OwnerKey)

	items, err := h.svc.List(c.Request.Context(), owner)
	if err != nil {
		send(middleware.Response{
			Code:    middleware.CodeFor(err),
			Message: "Failed to list inventory",
			Error:   err,
		})
		return
	}
	send(middleware.Response{Data: items})
}

func (h *Handler) CreateItem(c *gin.Context) {
	send := c.MustGet("send").(func(middleware.Response))
	owner := c.GetString(middleware.OwnerKey)

	var draft ItemDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		send(middleware.Response{
			Code:    http.StatusBadRequest,
			Message: "Invalid JSON payload",
			Error:   err,
		})
		return
	}

	item, err := h.svc.CreateItem(c.Request.Context(), owner, draft)
	if err != nil {
		send(middleware.Response{
			Code:    middleware.CodeFor(err),
			Message: "Failed to create item",
			Error:   err,
		})
		return
	}
	send(middleware.Response{
		Code:    http.StatusCreated,
		Message: "Item created",
		Data:    item,
	})
}

func (h *Handler) DeleteItem(c *gin.Context) {
	send := c.MustGet("send").(func(middleware.Response))
	owner := c.GetString(middleware.OwnerKey)

	if err := h.svc.DeleteItem(c.Request.Context(), owner, c.Param("id")); err != nil {
		send(middleware.Response{
			Code:    middleware.CodeFor(err),
			Message: "Failed to delete item",
			Error:   err,
		})
		return
	}
	send(middleware.Response{Message: "Item deleted"})
}

// StreamItems holds the connection open and pushes the full inventory
// set on every change until the client disconnects.
func (h *Handler) StreamItems(c *gin.Context) {
	send := c.MustGet("send").(func(middleware.Response))
	sendStream := c.MustGet("sendStream").(func(middleware.StreamResponse))
	owner := c.GetString(middleware.OwnerKey)

	initial, snapshots, cancel, err := h.svc.Subscribe(c.Request.Context(), owner)
	if err != nil {
		send(middleware.Response{
			Code:    middleware.CodeFor(err),
			Message: "Failed to open inventory stream",
			Error:   err,
		})
		return
	}
	sendStream(stream.Feed(c.Request.Context(), initial, snapshots, cancel))
}
