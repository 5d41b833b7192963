// internal/api/routes.go
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kamikaze305/pablo-golf/engine"
	"github.com/kamikaze305/pablo-golf/service/internal/config"
	"github.com/kamikaze305/pablo-golf/service/internal/room"
)

// Lobby is the read side of the room manager.
type Lobby interface {
	ListRooms(ctx context.Context) []room.RoomInfo
	Stats() room.Stats
}

// History reads archived rounds.
type History interface {
	RoundsByKey(ctx context.Context, roomKey string) ([]engine.RoundHistory, error)
}

// Deps are the collaborators of the HTTP routes. History may be nil when
// no database is configured.
type Deps struct {
	Config  *config.Config
	Lobby   Lobby
	History History
	Socket  http.Handler
}

// SetupRoutes configures all routes on router.
func SetupRoutes(router *gin.Engine, d Deps) {
	router.Use(CORSMiddleware(d.Config))

	router.GET("/health", HealthCheck)
	router.GET("/ws", gin.WrapH(d.Socket))

	api := router.Group("/api")
	{
		api.GET("/health", HealthCheck)
		api.GET("/stats", GetStats(d.Lobby))

		rooms := api.Group("/rooms")
		{
			rooms.GET("", ListRooms(d.Lobby))
			rooms.GET("/:key/history", GetRoomHistory(d.History))
		}
	}
}
