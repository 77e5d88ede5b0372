package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/chatterfix/backend/internal/application/services"
	"github.com/chatterfix/backend/pkg/errors"
)

type DashboardHandler struct {
	svcMgr *services.ServiceManager
}

func NewDashboardHandler(svcMgr *services.ServiceManager) *DashboardHandler {
	return &DashboardHandler{svcMgr: svcMgr}
}

// GetSummary handles GET /api/dashboard/summary
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	HandleGetEnvelope(c, "summary", func() (interface{}, error) {
		return h.svcMgr.Dashboard.GetSummary(c.Request.Context())
	})
}

// GetMyWork handles GET /api/dashboard/my-work
func (h *DashboardHandler) GetMyWork(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleGetEnvelope(c, "my_work", func() (interface{}, error) {
		return h.svcMgr.Dashboard.GetMyWork(c.Request.Context(), user.ID)
	})
}
