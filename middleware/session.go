package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Digiaroficial/digi-reparaciones-app/internal/session"
)

// OwnerKey is where SessionRequired stores the resolved owner
// namespace in the gin context.
const OwnerKey = "owner"

// SessionRequired resolves the X-Session-Id header to an owner
// namespace. Requests arriving before a session was bootstrapped are
// rejected rather than deferred.
func SessionRequired(sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sendFn := c.MustGet("send").(func(Response))

		token := c.GetHeader("X-Session-Id")
		if token == "" {
			sendFn(Response{
				Code:    http.StatusUnauthorized,
				Message: "Session required",
				Error:   errors.New("missing X-Session-Id header"),
			})
			return
		}

		owner, err := sessions.Resolve(c.Request.Context(), token)
		if errors.Is(err, session.ErrUnknownSession) {
			sendFn(Response{
				Code:    http.StatusUnauthorized,
				Message: "Session expired",
				Error:   err,
			})
			return
		}
		if err != nil {
			sendFn(Response{
				Code:    http.StatusServiceUnavailable,
				Message: "Session lookup failed",
				Error:   err,
			})
			return
		}

		c.Set(OwnerKey, owner)
		c.Next()
	}
}
