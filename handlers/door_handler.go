package handlers

import (
	"errors"
	"log"
	"net/http"

	"logistiko-backend/auth"
	"logistiko-backend/doorrelay"

	"github.com/gin-gonic/gin"
)

// DoorHandler forwards door commands to the office relay
type DoorHandler struct {
	relay *doorrelay.Client // nil when DOOR_RELAY_URL is unset
}

// NewDoorHandler creates a new door handler
func NewDoorHandler(relay *doorrelay.Client) *DoorHandler {
	return &DoorHandler{relay: relay}
}

// Execute handles POST /api/v1/door/:command
func (h *DoorHandler) Execute(c *gin.Context) {
	if h.relay == nil {
		fail(c, http.StatusServiceUnavailable, "DOOR_DISABLED", "Door relay is not configured")
		return
	}

	command := c.Param("command")
	if userID, found := auth.UserID(c); found {
		log.Printf("Door command %q requested by user %s", command, userID)
	}

	err := h.relay.Execute(c.Request.Context(), command)
	switch {
	case errors.Is(err, doorrelay.ErrTimeout):
		fail(c, http.StatusGatewayTimeout, "DOOR_TIMEOUT", "The door relay did not answer in time")
		return
	case errors.Is(err, doorrelay.ErrUnreachable):
		fail(c, http.StatusBadGateway, "DOOR_UNREACHABLE", "The door relay is unreachable")
		return
	case err != nil:
		fail(c, http.StatusBadGateway, "DOOR_FAILED", "The door command failed")
		return
	}
	ok(c, http.StatusOK, gin.H{"executed": command})
}
