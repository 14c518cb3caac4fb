package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smartbreath-backend/internal/model"
	"smartbreath-backend/internal/store"
)

// machineResponse is the wire shape for a machine joined with its owner
// summary. Listing responses omit the owner's email.
type machineResponse struct {
	ID           string              `json:"id"`
	DeviceName   string              `json:"deviceName"`
	Model        string              `json:"model"`
	OwnerID      *string             `json:"ownerId"`
	RegisteredAt time.Time           `json:"registeredAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	Owner        *model.OwnerSummary `json:"owner,omitempty"`
}

func toMachineResponse(m *model.Machine, includeEmail bool) machineResponse {
	resp := machineResponse{
		ID:           m.ID,
		DeviceName:   m.DeviceName,
		Model:        m.Model,
		OwnerID:      m.OwnerID,
		RegisteredAt: m.RegisteredAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.Owner != nil {
		s := m.Owner.Summary(includeEmail)
		resp.Owner = &s
	}
	return resp
}

type createMachineRequest struct {
	DeviceName string `json:"deviceName" binding:"required"`
	Model      string `json:"model" binding:"required"`
	OwnerID    string `json:"ownerId" binding:"required"`
}

// CreateMachine handles POST /machines.
func (h *Handler) CreateMachine(c *gin.Context) {
	if _, ok := h.principal(c); !ok {
		return
	}

	var req createMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	machine, err := h.store.CreateMachine(c.Request.Context(), store.CreateMachineInput{
		DeviceName: req.DeviceName,
		Model:      req.Model,
		OwnerID:    req.OwnerID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMachineResponse(machine, false))
}

// ListMachines handles GET /machines. The query is always scoped by the
// authenticated principal's ownership; a client-supplied owner id is never
// trusted for authorization.
func (h *Handler) ListMachines(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	machines, err := h.store.ListMachinesByOwner(c.Request.Context(), principal.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	responses := make([]machineResponse, 0, len(machines))
	for i := range machines {
		responses = append(responses, toMachineResponse(&machines[i], false))
	}
	c.JSON(http.StatusOK, responses)
}

// GetMachine handles GET /machines/:id. Owner only.
func (h *Handler) GetMachine(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	machine, err := h.store.GetMachineByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	if d := h.guard.MachineOwner(principal, machine); !d.Allowed {
		forbid(c, d)
		return
	}
	c.JSON(http.StatusOK, toMachineResponse(machine, true))
}

type updateMachineRequest struct {
	DeviceName string `json:"deviceName" binding:"required"`
}

// UpdateMachine handles PUT /machines/:id. Owner only; rename only.
func (h *Handler) UpdateMachine(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	machine, err := h.store.GetMachineByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	if d := h.guard.MachineOwner(principal, machine); !d.Allowed {
		forbid(c, d)
		return
	}

	var req updateMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.store.UpdateMachineName(c.Request.Context(), c.Param("id"), req.DeviceName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMachineResponse(updated, true))
}

// DeleteMachine handles DELETE /machines/:id. Owner only; cascades to the
// machine's records.
func (h *Handler) DeleteMachine(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	machine, err := h.store.GetMachineByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	if d := h.guard.MachineOwner(principal, machine); !d.Allowed {
		forbid(c, d)
		return
	}

	if err := h.store.DeleteMachine(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "machine and its records deleted"})
}

type registerMachineRequest struct {
	DeviceName string `json:"deviceName"`
}

// RegisterMachine handles POST /machines/register/:id: an authenticated
// claim on a machine, with an optional rename.
func (h *Handler) RegisterMachine(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req registerMachineRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	machine, err := h.store.RegisterMachine(c.Request.Context(), principal.ID, c.Param("id"), req.DeviceName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMachineResponse(machine, true))
}

// ResetMachine handles DELETE /machines/reset/:id. Owner only: purges the
// machine's records, clears ownership and renames to the sentinel, atomically.
func (h *Handler) ResetMachine(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	machine, err := h.store.GetMachineByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	if d := h.guard.MachineOwner(principal, machine); !d.Allowed {
		forbid(c, d)
		return
	}

	if err := h.store.ResetMachine(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "machine reset and its records deleted"})
}
