package api

import (
	"errors"
	"net/http"
	"strconv"

	"toolrental/internal/handler/httperr"
	"toolrental/internal/handler/middleware"
	"toolrental/internal/usecase/commands"
	"toolrental/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var errMissingIdentity = errors.New("authenticated user missing from context")

func actorFrom(c *gin.Context) (commands.Actor, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errMissingIdentity, "Unauthorized", nil)
		return commands.Actor{}, false
	}
	role, _ := middleware.GetUserRole(c)
	return commands.Actor{UserID: userID, Role: role}, true
}

func viewerFrom(actor commands.Actor) queries.Viewer {
	return queries.Viewer{UserID: actor.UserID, Role: actor.Role}
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(c *gin.Context) (*queries.Cursor, int) {
	limit := queries.DefaultListLimit
	if v := c.Query("limit"); v != "" {
		if iv, e := strconv.Atoi(v); e == nil {
			limit = queries.ValidateLimit(iv)
		}
	}
	var cursor *queries.Cursor
	if after := c.Query("after"); after != "" {
		cursor = &queries.Cursor{After: after}
	}
	return cursor, limit
}
