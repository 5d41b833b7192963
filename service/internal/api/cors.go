// internal/api/cors.go
package api

import (
	"net/url"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kamikaze305/pablo-golf/service/internal/config"
)

// AllowedOrigins lists the browser origins allowed to call the API and open
// sockets for the configured environment.
func AllowedOrigins(cfg *config.Config) []string {
	if !cfg.IsProduction() {
		origins := []string{
			"http://localhost:5173", // Vite dev server
			"http://127.0.0.1:5173",
		}
		if cfg.FrontendURL != "" && cfg.FrontendURL != origins[0] {
			origins = append(origins, cfg.FrontendURL)
		}
		return origins
	}
	if cfg.FrontendURL == "" {
		return nil
	}
	return []string{cfg.FrontendURL}
}

// OriginHosts returns the host part of every allowed origin, the form
// websocket.AcceptOptions.OriginPatterns expects.
func OriginHosts(cfg *config.Config) []string {
	var hosts []string
	for _, o := range AllowedOrigins(cfg) {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
		}
	}
	return hosts
}

// CORSMiddleware returns a CORS middleware configured for the environment.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	origins := AllowedOrigins(cfg)
	logrus.WithFields(logrus.Fields{
		"component":   "api",
		"environment": cfg.Environment,
		"origins":     origins,
	}).Info("CORS configured")

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = origins
	}
	return cors.New(corsConfig)
}
