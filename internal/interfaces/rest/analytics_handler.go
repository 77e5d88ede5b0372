package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chatterfix/backend/internal/application/services"
)

type AnalyticsHandler struct {
	svcMgr *services.ServiceManager
}

func NewAnalyticsHandler(svcMgr *services.ServiceManager) *AnalyticsHandler {
	return &AnalyticsHandler{svcMgr: svcMgr}
}

// QueryRequest carries the ad-hoc SQL for the analytics endpoint
type QueryRequest struct {
	Query string `json:"query" binding:"required"`
}

// ExecuteQuery handles POST /api/analytics/query (admin only)
func (h *AnalyticsHandler) ExecuteQuery(c *gin.Context) {
	var req QueryRequest
	if !BindJSON(c, &req) {
		return
	}

	result, err := h.svcMgr.Analytics.RunQuery(c.Request.Context(), req.Query)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
