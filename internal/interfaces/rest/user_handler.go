package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chatterfix/backend/internal/application/services"
	"github.com/chatterfix/backend/pkg/errors"
)

type UserHandler struct {
	svcMgr *services.ServiceManager
}

func NewUserHandler(svcMgr *services.ServiceManager) *UserHandler {
	return &UserHandler{svcMgr: svcMgr}
}

// Register handles POST /api/auth/register (admin only)
func (h *UserHandler) Register(c *gin.Context) {
	var req services.CreateUserRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleMutationEnvelope(c, http.StatusCreated, "user", "User created successfully", func() (interface{}, error) {
		return h.svcMgr.Users.CreateUser(c.Request.Context(), req)
	})
}

// GetUsers handles GET /api/auth/users
func (h *UserHandler) GetUsers(c *gin.Context) {
	HandleGetEnvelope(c, "users", func() (interface{}, error) {
		return h.svcMgr.Users.GetUsers(c.Request.Context())
	})
}

// GetUser handles GET /api/auth/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	HandleGetEnvelope(c, "user", func() (interface{}, error) {
		return h.svcMgr.Users.GetUser(c.Request.Context(), c.Param("id"))
	})
}

// UpdateUser handles PUT /api/auth/users/:id (admin only)
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req services.UpdateUserRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleMutationEnvelope(c, http.StatusOK, "user", "User updated successfully", func() (interface{}, error) {
		return h.svcMgr.Users.UpdateUser(c.Request.Context(), c.Param("id"), req)
	})
}

// DeleteUser handles DELETE /api/auth/users/:id (admin only)
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor := GetUserFromContext(c)
	if actor == nil {
		RespondAppError(c, errors.NewUnauthorizedError("User not found"))
		return
	}

	HandleDeleteEnvelope(c, "User deleted successfully", func() error {
		return h.svcMgr.Users.DeleteUser(c.Request.Context(), c.Param("id"), actor.ID)
	})
}
