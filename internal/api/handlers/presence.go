package handlers

import (
	"net/http"

	"realtime-chat/internal/models"
	"realtime-chat/internal/utils"

	"github.com/gin-gonic/gin"
)

// OnlineDirectory answers who currently holds a live connection
type OnlineDirectory interface {
	OnlineUsers() []uint
	IsOnline(userID uint) bool
}

type PresenceHandler struct {
	directory OnlineDirectory
}

func NewPresenceHandler(directory OnlineDirectory) *PresenceHandler {
	return &PresenceHandler{directory: directory}
}

// GetOnlineUsers godoc
// @Summary List online users
// @Description Ids of users with an authenticated connection on this node
// @Tags presence
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /presence [get]
func (h *PresenceHandler) GetOnlineUsers(c *gin.Context) {
	users := h.directory.OnlineUsers()
	if users == nil {
		users = []uint{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// GetUserStatus godoc
// @Summary Get a user's presence
// @Tags presence
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.UserStatusResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /presence/{id} [get]
func (h *PresenceHandler) GetUserStatus(c *gin.Context) {
	userID, err := utils.StringToUint(c.Param("id"))
	if err != nil || userID == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "invalid user id",
		})
		return
	}

	status := models.StatusOffline
	if h.directory.IsOnline(userID) {
		status = models.StatusOnline
	}
	c.JSON(http.StatusOK, models.UserStatusResponse{UserID: userID, Status: status})
}
