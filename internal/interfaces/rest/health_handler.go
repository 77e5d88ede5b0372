package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chatterfix/backend/internal/application/services"
	"github.com/chatterfix/backend/pkg/constants"
)

type HealthHandler struct {
	svcMgr *services.ServiceManager
}

func NewHealthHandler(svcMgr *services.ServiceManager) *HealthHandler {
	return &HealthHandler{svcMgr: svcMgr}
}

// Liveness handles GET /health
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, h.svcMgr.Health.Liveness())
}

// Readiness handles GET /health/full. The HTTP status follows the overall
// report so load balancers can act on it.
func (h *HealthHandler) Readiness(c *gin.Context) {
	report := h.svcMgr.Health.Check(c.Request.Context())

	status := http.StatusOK
	if report.Status == constants.HealthDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
