// internal/api/handlers.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kamikaze305/pablo-golf/engine"
	"github.com/kamikaze305/pablo-golf/service/internal/room"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthCheck returns server health status.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "pablo-golf",
		"version": version,
		"uptime":  time.Since(startTime).String(),
	})
}

// ListRooms returns the lobby listing.
func ListRooms(lobby Lobby) gin.HandlerFunc {
	return func(c *gin.Context) {
		rooms := lobby.ListRooms(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"rooms": rooms, "count": len(rooms)})
	}
}

// GetStats reports room and connection usage.
func GetStats(lobby Lobby) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, lobby.Stats())
	}
}

// GetRoomHistory returns the archived rounds of a room key.
func GetRoomHistory(history History) gin.HandlerFunc {
	return func(c *gin.Context) {
		if history == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "round archive is not configured"})
			return
		}
		key := room.NormalizeKey(c.Param("key"))
		rounds, err := history.RoundsByKey(c.Request.Context(), key)
		if err != nil {
			logrus.WithFields(logrus.Fields{"component": "api", "room": key}).WithError(err).Error("Failed to load round history")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load round history"})
			return
		}
		if rounds == nil {
			rounds = []engine.RoundHistory{}
		}
		c.JSON(http.StatusOK, gin.H{"roomKey": key, "rounds": rounds})
	}
}
