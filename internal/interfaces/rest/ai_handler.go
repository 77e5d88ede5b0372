package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chatterfix/backend/internal/application/services"
	"github.com/chatterfix/backend/pkg/errors"
)

type AIHandler struct {
	svcMgr *services.ServiceManager
}

func NewAIHandler(svcMgr *services.ServiceManager) *AIHandler {
	return &AIHandler{svcMgr: svcMgr}
}

// Chat handles POST /api/ai/chat
func (h *AIHandler) Chat(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	var req services.ChatRequest
	if !BindJSON(c, &req) {
		return
	}

	resp, err := h.svcMgr.AI.Chat(c.Request.Context(), user.ID, req)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetProviders handles GET /api/ai/providers
func (h *AIHandler) GetProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.svcMgr.AI.Providers()})
}

// ListConversations handles GET /api/ai/conversations
func (h *AIHandler) ListConversations(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleGetEnvelope(c, "conversations", func() (interface{}, error) {
		return h.svcMgr.AI.ListConversations(c.Request.Context(), user.ID)
	})
}

// GetConversation handles GET /api/ai/conversations/:id
func (h *AIHandler) GetConversation(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleGetEnvelope(c, "conversation", func() (interface{}, error) {
		return h.svcMgr.AI.GetConversation(c.Request.Context(), c.Param("id"), user.ID)
	})
}

// DeleteConversation handles DELETE /api/ai/conversations/:id
func (h *AIHandler) DeleteConversation(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleDeleteEnvelope(c, "Conversation deleted successfully", func() error {
		return h.svcMgr.AI.DeleteConversation(c.Request.Context(), c.Param("id"), user.ID)
	})
}
