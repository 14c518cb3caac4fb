package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"smartbreath-backend/internal/apperr"
	"smartbreath-backend/internal/store"
)

type createRecordRequest struct {
	MachineID  string     `json:"machineId" binding:"required"`
	SpO2       *int       `json:"spo2" binding:"required"`
	FEV1       *float64   `json:"fev1" binding:"required"`
	FVC        *float64   `json:"fvc" binding:"required"`
	PEF        *float64   `json:"pef" binding:"required"`
	MeasuredAt *time.Time `json:"measuredAt"`
}

// CreateRecord handles POST /records. Authenticated but not ownership-gated:
// any principal naming a valid machine id may ingest a measurement (device
// ingestion flow). Reads and deletes remain gated.
func (h *Handler) CreateRecord(c *gin.Context) {
	if _, ok := h.principal(c); !ok {
		return
	}

	var req createRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.store.CreateRecord(c.Request.Context(), store.CreateRecordInput{
		MachineID:  req.MachineID,
		SpO2:       *req.SpO2,
		FEV1:       *req.FEV1,
		FVC:        *req.FVC,
		PEF:        *req.PEF,
		MeasuredAt: req.MeasuredAt,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	if h.notifier != nil {
		h.notifier.Dispatch(record.MachineID)
	}

	c.JSON(http.StatusCreated, record)
}

// ListRecords handles GET /records?machineId=...: the filtered, sorted,
// paginated measurement history. Owner only, with the client-class bypass.
func (h *Handler) ListRecords(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	machineID := c.Query("machineId")
	if machineID == "" {
		writeError(c, apperr.Validation("machineId query parameter is required"))
		return
	}

	machine, err := h.store.GetMachineByID(c.Request.Context(), machineID)
	if err != nil {
		writeError(c, err)
		return
	}

	if d := h.guard.RecordRead(principal, machine); !d.Allowed {
		forbid(c, d)
		return
	}

	q := store.RecordQuery{
		SortBy: c.Query("sortBy"),
		Order:  c.Query("order"),
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "10"))

	if v := c.Query("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(c, apperr.Validation("invalid 'from' timestamp, use RFC3339"))
			return
		}
		q.From = &from
	}
	if v := c.Query("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(c, apperr.Validation("invalid 'to' timestamp, use RFC3339"))
			return
		}
		q.To = &to
	}

	page, err := h.store.ListRecords(c.Request.Context(), machineID, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetRecord handles GET /records/:id. Owner of the parent machine, or the
// client credential class.
func (h *Handler) GetRecord(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	record, err := h.store.GetRecordByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	if d := h.guard.RecordRead(principal, record.Machine); !d.Allowed {
		forbid(c, d)
		return
	}
	c.JSON(http.StatusOK, record)
}

// DeleteRecord handles DELETE /records/:id. Owner only, no client bypass.
func (h *Handler) DeleteRecord(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	record, err := h.store.GetRecordByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	if d := h.guard.RecordDelete(principal, record.Machine); !d.Allowed {
		forbid(c, d)
		return
	}

	if err := h.store.DeleteRecord(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "record deleted"})
}

// GetRecordReport handles GET /records/:id/report: streams the rendered PDF.
// Owner only; the client bypass does not extend to reports.
func (h *Handler) GetRecordReport(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	record, err := h.store.GetRecordByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	if d := h.guard.MachineOwner(principal, record.Machine); !d.Allowed {
		forbid(c, d)
		return
	}

	doc, err := h.reports.Render(record)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="record-`+record.ID+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}
