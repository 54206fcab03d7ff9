package api

import (
	"net/http"

	resdto "toolrental/internal/handler/dto/response"
	"toolrental/internal/usecase/commands"
	"toolrental/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	cmds commands.NotificationCommands
	q    queries.NotificationQueries
}

func NewNotificationHandler(cmds commands.NotificationCommands, q queries.NotificationQueries) *NotificationHandler {
	return &NotificationHandler{cmds: cmds, q: q}
}

// @Summary List notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread notifications"
// @Param limit query int false "Max items (default 20)"
// @Param after query string false "Cursor for keyset pagination"
// @Success 200 {array} resdto.NotificationResponse
// @Failure 400 {object} httperr.Response
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	unreadOnly := c.Query("unread") == "true"
	cursor, limit := pageParams(c)

	items, next, err := h.q.List(c.Request.Context(), actor.UserID, unreadOnly, cursor, limit)
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	resp := gin.H{"notifications": resdto.FromNotificationList(items)}
	if next != nil {
		resp["nextCursor"] = next.After
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Mark notification read
// @Tags notifications
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 204 "No Content"
// @Failure 404 {object} httperr.Response
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.cmds.MarkRead(c.Request.Context(), id, actor); err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int64
// @Router /notifications/read_all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	n, err := h.cmds.MarkAllRead(c.Request.Context(), actor)
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
