package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chatterfix/backend/internal/application/services"
	"github.com/chatterfix/backend/pkg/errors"
)

type InventoryHandler struct {
	svcMgr *services.ServiceManager
}

func NewInventoryHandler(svcMgr *services.ServiceManager) *InventoryHandler {
	return &InventoryHandler{svcMgr: svcMgr}
}

// CreatePart handles POST /api/parts
func (h *InventoryHandler) CreatePart(c *gin.Context) {
	var req services.CreatePartRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleMutationEnvelope(c, http.StatusCreated, "part", "Part created successfully", func() (interface{}, error) {
		return h.svcMgr.Inventory.CreatePart(c.Request.Context(), req)
	})
}

// ListParts handles GET /api/parts
func (h *InventoryHandler) ListParts(c *gin.Context) {
	HandleGetEnvelope(c, "parts", func() (interface{}, error) {
		return h.svcMgr.Inventory.ListParts(c.Request.Context(), c.Query("category"))
	})
}

// ListLowStock handles GET /api/parts/low-stock
func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	HandleGetEnvelope(c, "parts", func() (interface{}, error) {
		return h.svcMgr.Inventory.ListLowStockParts(c.Request.Context())
	})
}

// GetPart handles GET /api/parts/:id
func (h *InventoryHandler) GetPart(c *gin.Context) {
	HandleGetEnvelope(c, "part", func() (interface{}, error) {
		return h.svcMgr.Inventory.GetPart(c.Request.Context(), c.Param("id"))
	})
}

// UpdatePart handles PATCH /api/parts/:id
func (h *InventoryHandler) UpdatePart(c *gin.Context) {
	var req services.UpdatePartRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleMutationEnvelope(c, http.StatusOK, "part", "Part updated successfully", func() (interface{}, error) {
		return h.svcMgr.Inventory.UpdatePart(c.Request.Context(), c.Param("id"), req)
	})
}

// DeletePart handles DELETE /api/parts/:id (admin only)
func (h *InventoryHandler) DeletePart(c *gin.Context) {
	HandleDeleteEnvelope(c, "Part deleted successfully", func() error {
		return h.svcMgr.Inventory.DeletePart(c.Request.Context(), c.Param("id"))
	})
}

// AdjustStock handles POST /api/parts/:id/adjust
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	actor := GetUserFromContext(c)
	if actor == nil {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var req services.AdjustStockRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleMutationEnvelope(c, http.StatusOK, "part", "Stock adjusted successfully", func() (interface{}, error) {
		return h.svcMgr.Inventory.AdjustStock(c.Request.Context(), c.Param("id"), req, actor.ID)
	})
}

// GetMovements handles GET /api/parts/:id/movements
func (h *InventoryHandler) GetMovements(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	HandleGetEnvelope(c, "movements", func() (interface{}, error) {
		return h.svcMgr.Inventory.GetMovements(c.Request.Context(), c.Param("id"), limit)
	})
}

// CreateSupplier handles POST /api/suppliers
func (h *InventoryHandler) CreateSupplier(c *gin.Context) {
	var req services.SupplierRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleMutationEnvelope(c, http.StatusCreated, "supplier", "Supplier created successfully", func() (interface{}, error) {
		return h.svcMgr.Inventory.CreateSupplier(c.Request.Context(), req)
	})
}

// ListSuppliers handles GET /api/suppliers
func (h *InventoryHandler) ListSuppliers(c *gin.Context) {
	HandleGetEnvelope(c, "suppliers", func() (interface{}, error) {
		return h.svcMgr.Inventory.ListSuppliers(c.Request.Context())
	})
}

// GetSupplier handles GET /api/suppliers/:id
func (h *InventoryHandler) GetSupplier(c *gin.Context) {
	HandleGetEnvelope(c, "supplier", func() (interface{}, error) {
		return h.svcMgr.Inventory.GetSupplier(c.Request.Context(), c.Param("id"))
	})
}

// UpdateSupplier handles PUT /api/suppliers/:id
func (h *InventoryHandler) UpdateSupplier(c *gin.Context) {
	var req services.SupplierRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleMutationEnvelope(c, http.StatusOK, "supplier", "Supplier updated successfully", func() (interface{}, error) {
		return h.svcMgr.Inventory.UpdateSupplier(c.Request.Context(), c.Param("id"), req)
	})
}

// DeleteSupplier handles DELETE /api/suppliers/:id (admin only)
func (h *InventoryHandler) DeleteSupplier(c *gin.Context) {
	HandleDeleteEnvelope(c, "Supplier deleted successfully", func() error {
		return h.svcMgr.Inventory.DeleteSupplier(c.Request.Context(), c.Param("id"))
	})
}
