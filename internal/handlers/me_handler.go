package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/middleware"
	"github.com/BruksfildServices01/barber-agenda/internal/storage"
)

// Me resolves the user from the bearer token, falling back to the
// ?username= query parameter when no token was sent.
func (h *AuthHandler) Me(c *gin.Context) {
	username := middleware.Actor(c)
	if username == "" {
		username = c.Query("username")
	}
	if username == "" {
		badRequest(c, "Username is required")
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httperr.NotFound(c, codeUserNotFound, "User not found")
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
