package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chatterfix/backend/internal/application/services"
	"github.com/chatterfix/backend/internal/infrastructure/persistence"
	"github.com/chatterfix/backend/pkg/errors"
)

type WorkOrderHandler struct {
	svcMgr *services.ServiceManager
}

func NewWorkOrderHandler(svcMgr *services.ServiceManager) *WorkOrderHandler {
	return &WorkOrderHandler{svcMgr: svcMgr}
}

// Create handles POST /api/work-orders
func (h *WorkOrderHandler) Create(c *gin.Context) {
	actor := GetUserFromContext(c)
	if actor == nil {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var req services.CreateWorkOrderRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleMutationEnvelope(c, http.StatusCreated, "work_order", "Work order created successfully", func() (interface{}, error) {
		return h.svcMgr.WorkOrders.CreateWorkOrder(c.Request.Context(), req, actor.ID)
	})
}

// List handles GET /api/work-orders
func (h *WorkOrderHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	filter := persistence.WorkOrderFilter{
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		AssetID:    c.Query("asset_id"),
		AssignedTo: c.Query("assigned_to"),
		Overdue:    c.Query("overdue") == "true",
		Limit:      limit,
		Offset:     offset,
	}

	HandleGetEnvelope(c, "work_orders", func() (interface{}, error) {
		return h.svcMgr.WorkOrders.ListWorkOrders(c.Request.Context(), filter)
	})
}

// Get handles GET /api/work-orders/:id
func (h *WorkOrderHandler) Get(c *gin.Context) {
	HandleGetEnvelope(c, "work_order", func() (interface{}, error) {
		return h.svcMgr.WorkOrders.GetWorkOrder(c.Request.Context(), c.Param("id"))
	})
}

// Update handles PATCH /api/work-orders/:id
func (h *WorkOrderHandler) Update(c *gin.Context) {
	var req services.UpdateWorkOrderRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleMutationEnvelope(c, http.StatusOK, "work_order", "Work order updated successfully", func() (interface{}, error) {
		return h.svcMgr.WorkOrders.UpdateWorkOrder(c.Request.Context(), c.Param("id"), req)
	})
}

// AssignRequest sets the assignee
type AssignRequest struct {
	AssignedTo string `json:"assigned_to" binding:"required"`
}

// Assign handles POST /api/work-orders/:id/assign
func (h *WorkOrderHandler) Assign(c *gin.Context) {
	actor := GetUserFromContext(c)
	if actor == nil {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var req AssignRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleMutationEnvelope(c, http.StatusOK, "work_order", "Work order assigned successfully", func() (interface{}, error) {
		return h.svcMgr.WorkOrders.Assign(c.Request.Context(), c.Param("id"), req.AssignedTo, actor.ID)
	})
}

// Transition handles POST /api/work-orders/:id/transition
func (h *WorkOrderHandler) Transition(c *gin.Context) {
	actor := GetUserFromContext(c)
	if actor == nil {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var req services.TransitionRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleMutationEnvelope(c, http.StatusOK, "work_order", "Work order status updated", func() (interface{}, error) {
		return h.svcMgr.WorkOrders.Transition(c.Request.Context(), c.Param("id"), req, actor.ID)
	})
}

// Delete handles DELETE /api/work-orders/:id (admin only)
func (h *WorkOrderHandler) Delete(c *gin.Context) {
	HandleDeleteEnvelope(c, "Work order deleted successfully", func() error {
		return h.svcMgr.WorkOrders.DeleteWorkOrder(c.Request.Context(), c.Param("id"))
	})
}

// CommentRequest is the comment body
type CommentRequest struct {
	Body string `json:"body" binding:"required"`
}

// AddComment handles POST /api/work-orders/:id/comments
func (h *WorkOrderHandler) AddComment(c *gin.Context) {
	actor := GetUserFromContext(c)
	if actor == nil {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var req CommentRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleMutationEnvelope(c, http.StatusCreated, "comment", "Comment added", func() (interface{}, error) {
		return h.svcMgr.WorkOrders.AddComment(c.Request.Context(), c.Param("id"), actor.ID, req.Body)
	})
}

// GetComments handles GET /api/work-orders/:id/comments
func (h *WorkOrderHandler) GetComments(c *gin.Context) {
	HandleGetEnvelope(c, "comments", func() (interface{}, error) {
		return h.svcMgr.WorkOrders.GetComments(c.Request.Context(), c.Param("id"))
	})
}
