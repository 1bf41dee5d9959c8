package controllers

import (
	"net/http"
	"time"

	"backend/config"

	"github.com/gin-gonic/gin"
)

const (
	appName    = "nutrition-sync-backend"
	appVersion = "1.0.0"
)

func Health(c *gin.Context) {
	dbStatus := "disconnected"
	if config.DB != nil {
		if sqlDB, err := config.DB.DB(); err == nil && sqlDB.Ping() == nil {
			dbStatus = "connected"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"app":       appName,
		"version":   appVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  dbStatus,
	})
}
