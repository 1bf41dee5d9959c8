package controllers

import (
	"net/http"

	"backend/services"

	"github.com/gin-gonic/gin"
)

type ActivityController struct {
	ml *services.MLClient
}

func NewActivityController(ml *services.MLClient) *ActivityController {
	return &ActivityController{ml: ml}
}

// AnalyzeActivity forwards a free-text activity description to the
// external classifier and returns its verdict.
// POST /api/analyze-activity
func (a *ActivityController) AnalyzeActivity(c *gin.Context) {
	var input struct {
		ActivityDescription string `json:"activity_description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	analysis, err := a.ml.AnalyzeActivity(c.Request.Context(), input.ActivityDescription)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}
