package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartbreath-backend/internal/store"
)

// GetUser handles GET /users/:id. Self only.
func (h *Handler) GetUser(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	if d := h.guard.Self(principal, c.Param("id")); !d.Allowed {
		forbid(c, d)
		return
	}

	user, err := h.store.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type updateUserRequest struct {
	FirstName *string  `json:"firstName"`
	LastName  *string  `json:"lastName"`
	Username  *string  `json:"username"`
	Email     *string  `json:"email"`
	Weight    *float64 `json:"weight"`
	Height    *float64 `json:"height"`
	Gender    *string  `json:"gender"`
}

// UpdateUser handles PUT /users/:id. Self only, partial update.
func (h *Handler) UpdateUser(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	if d := h.guard.Self(principal, c.Param("id")); !d.Allowed {
		forbid(c, d)
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.store.UpdateUser(c.Request.Context(), c.Param("id"), store.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Weight:    req.Weight,
		Height:    req.Height,
		Gender:    req.Gender,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /users/:id. Self only; owned machines are
// released, not destroyed.
func (h *Handler) DeleteUser(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	if d := h.guard.Self(principal, c.Param("id")); !d.Allowed {
		forbid(c, d)
		return
	}

	if err := h.store.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
