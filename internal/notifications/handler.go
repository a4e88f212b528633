package notifications

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pixelframe/client-portal/client-portal-backend/internal/auth"
	"pixelframe/client-portal/client-portal-backend/internal/notifications/websocket"
)

type Handler struct {
	service *Service
	hub     *websocket.Hub
}

func NewHandler(service *Service, hub *websocket.Hub) *Handler {
	return &Handler{service: service, hub: hub}
}

// List returns the caller's inbox.
func (h *Handler) List(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.service.ListForUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

// MarkRead stamps one notification as read.
func (h *Handler) MarkRead(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), id, userID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}

// Connect upgrades to a websocket for live in-app pushes.
func (h *Handler) Connect(c *gin.Context) {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	if err := h.hub.Upgrade(c.Writer, c.Request, userID.String()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open connection"})
	}
}
