// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/catalog-backend/internal/services"
	"github.com/javajoker/catalog-backend/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GET /v1/user/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, user)
}

// PUT /v1/user/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	actorID, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.userService.UpdateUser(c.Request.Context(), actorID, id, &req); err != nil {
		respondError(c, err)
		return
	}

	utils.NoContentResponse(c)
}

// DELETE /v1/user/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actorID, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), actorID, id); err != nil {
		respondError(c, err)
		return
	}

	utils.NoContentResponse(c)
}
