package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chatterfix/backend/internal/application/services"
	"github.com/chatterfix/backend/pkg/errors"
)

// PMHandler serves preventive-maintenance schedules and escalation rules
type PMHandler struct {
	svcMgr *services.ServiceManager
}

func NewPMHandler(svcMgr *services.ServiceManager) *PMHandler {
	return &PMHandler{svcMgr: svcMgr}
}

// CreateSchedule handles POST /api/pm-schedules
func (h *PMHandler) CreateSchedule(c *gin.Context) {
	var req services.PMScheduleRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleMutationEnvelope(c, http.StatusCreated, "schedule", "Schedule created successfully", func() (interface{}, error) {
		return h.svcMgr.PMScheduler.CreateSchedule(c.Request.Context(), req)
	})
}

// ListSchedules handles GET /api/pm-schedules
func (h *PMHandler) ListSchedules(c *gin.Context) {
	HandleGetEnvelope(c, "schedules", func() (interface{}, error) {
		return h.svcMgr.PMScheduler.ListSchedules(c.Request.Context())
	})
}

// GetSchedule handles GET /api/pm-schedules/:id
func (h *PMHandler) GetSchedule(c *gin.Context) {
	HandleGetEnvelope(c, "schedule", func() (interface{}, error) {
		return h.svcMgr.PMScheduler.GetSchedule(c.Request.Context(), c.Param("id"))
	})
}

// UpdateSchedule handles PUT /api/pm-schedules/:id
func (h *PMHandler) UpdateSchedule(c *gin.Context) {
	var req services.PMScheduleRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleMutationEnvelope(c, http.StatusOK, "schedule", "Schedule updated successfully", func() (interface{}, error) {
		return h.svcMgr.PMScheduler.UpdateSchedule(c.Request.Context(), c.Param("id"), req)
	})
}

// TriggerSchedule handles POST /api/pm-schedules/:id/trigger
func (h *PMHandler) TriggerSchedule(c *gin.Context) {
	actor := GetUserFromContext(c)
	if actor == nil {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleMutationEnvelope(c, http.StatusCreated, "work_order", "Schedule triggered successfully", func() (interface{}, error) {
		return h.svcMgr.PMScheduler.TriggerSchedule(c.Request.Context(), c.Param("id"), actor.ID)
	})
}

// DeleteSchedule handles DELETE /api/pm-schedules/:id
func (h *PMHandler) DeleteSchedule(c *gin.Context) {
	HandleDeleteEnvelope(c, "Schedule deleted successfully", func() error {
		return h.svcMgr.PMScheduler.DeleteSchedule(c.Request.Context(), c.Param("id"))
	})
}

// CreateRule handles POST /api/escalation-rules
func (h *PMHandler) CreateRule(c *gin.Context) {
	var req services.EscalationRuleRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleMutationEnvelope(c, http.StatusCreated, "rule", "Escalation rule created successfully", func() (interface{}, error) {
		return h.svcMgr.Escalation.CreateRule(c.Request.Context(), req)
	})
}

// ListRules handles GET /api/escalation-rules
func (h *PMHandler) ListRules(c *gin.Context) {
	HandleGetEnvelope(c, "rules", func() (interface{}, error) {
		return h.svcMgr.Escalation.ListRules(c.Request.Context())
	})
}

// GetRule handles GET /api/escalation-rules/:id
func (h *PMHandler) GetRule(c *gin.Context) {
	HandleGetEnvelope(c, "rule", func() (interface{}, error) {
		return h.svcMgr.Escalation.GetRule(c.Request.Context(), c.Param("id"))
	})
}

// UpdateRule handles PUT /api/escalation-rules/:id
func (h *PMHandler) UpdateRule(c *gin.Context) {
	var req services.EscalationRuleRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleMutationEnvelope(c, http.StatusOK, "rule", "Escalation rule updated successfully", func() (interface{}, error) {
		return h.svcMgr.Escalation.UpdateRule(c.Request.Context(), c.Param("id"), req)
	})
}

// DeleteRule handles DELETE /api/escalation-rules/:id
func (h *PMHandler) DeleteRule(c *gin.Context) {
	HandleDeleteEnvelope(c, "Escalation rule deleted successfully", func() error {
		return h.svcMgr.Escalation.DeleteRule(c.Request.Context(), c.Param("id"))
	})
}
