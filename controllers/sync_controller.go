package controllers

import (
	"net/http"

	"backend/services"

	"github.com/gin-gonic/gin"
)

type SyncController struct {
	catalog      *services.CatalogService
	profiles     *services.ProfileService
	consumptions *services.ConsumptionService
}

func NewSyncController(
	catalog *services.CatalogService,
	profiles *services.ProfileService,
	consumptions *services.ConsumptionService,
) *SyncController {
	return &SyncController{
		catalog:      catalog,
		profiles:     profiles,
		consumptions: consumptions,
	}
}

// SyncFoods is the one-way catalog export.
// GET /api/sync/foods?last_sync=2024-01-01T00:00:00Z
func (s *SyncController) SyncFoods(c *gin.Context) {
	export, err := s.catalog.Export(c.Query("last_sync"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, export)
}

type profileSyncInput struct {
	UpdatedAt string                 `json:"updated_at"`
	Profile   *services.ProfilePatch `json:"profile"`
}

// SyncProfile is the two-way profile sync with server-wins conflicts.
// POST /api/sync/profile
func (s *SyncController) SyncProfile(c *gin.Context) {
	var input profileSyncInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := c.GetUint("userID")

	result, err := s.profiles.Reconcile(userID, input.UpdatedAt, input.Profile)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SyncConsumptions is the two-way log sync.
// POST /api/sync/consumptions
func (s *SyncController) SyncConsumptions(c *gin.Context) {
	var input services.ConsumptionSyncRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := c.GetUint("userID")

	result, err := s.consumptions.Reconcile(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SyncStatus lets a client decide whether a sync is worth starting.
// GET /api/sync/status
func (s *SyncController) SyncStatus(c *gin.Context) {
	userID := c.GetUint("userID")

	status, err := s.consumptions.Status(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
