package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chatterfix/backend/internal/application/services"
	"github.com/chatterfix/backend/pkg/errors"
)

type AssetHandler struct {
	svcMgr *services.ServiceManager
}

func NewAssetHandler(svcMgr *services.ServiceManager) *AssetHandler {
	return &AssetHandler{svcMgr: svcMgr}
}

// Create handles POST /api/assets
func (h *AssetHandler) Create(c *gin.Context) {
	var req services.CreateAssetRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleMutationEnvelope(c, http.StatusCreated, "asset", "Asset created successfully", func() (interface{}, error) {
		return h.svcMgr.Assets.CreateAsset(c.Request.Context(), req)
	})
}

// List handles GET /api/assets
func (h *AssetHandler) List(c *gin.Context) {
	HandleGetEnvelope(c, "assets", func() (interface{}, error) {
		return h.svcMgr.Assets.ListAssets(c.Request.Context(), c.Query("status"), c.Query("location"))
	})
}

// Get handles GET /api/assets/:id
func (h *AssetHandler) Get(c *gin.Context) {
	HandleGetEnvelope(c, "asset", func() (interface{}, error) {
		return h.svcMgr.Assets.GetAsset(c.Request.Context(), c.Param("id"))
	})
}

// Update handles PATCH /api/assets/:id
func (h *AssetHandler) Update(c *gin.Context) {
	actor := GetUserFromContext(c)
	if actor == nil {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var req services.UpdateAssetRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleMutationEnvelope(c, http.StatusOK, "asset", "Asset updated successfully", func() (interface{}, error) {
		return h.svcMgr.Assets.UpdateAsset(c.Request.Context(), c.Param("id"), req, actor.ID)
	})
}

// Delete handles DELETE /api/assets/:id (admin only)
func (h *AssetHandler) Delete(c *gin.Context) {
	HandleDeleteEnvelope(c, "Asset deleted successfully", func() error {
		return h.svcMgr.Assets.DeleteAsset(c.Request.Context(), c.Param("id"))
	})
}

// GetChildren handles GET /api/assets/:id/children
func (h *AssetHandler) GetChildren(c *gin.Context) {
	HandleGetEnvelope(c, "assets", func() (interface{}, error) {
		return h.svcMgr.Assets.GetChildren(c.Request.Context(), c.Param("id"))
	})
}

// GetHistory handles GET /api/assets/:id/history
func (h *AssetHandler) GetHistory(c *gin.Context) {
	HandleGetEnvelope(c, "work_orders", func() (interface{}, error) {
		return h.svcMgr.Assets.GetMaintenanceHistory(c.Request.Context(), c.Param("id"))
	})
}
