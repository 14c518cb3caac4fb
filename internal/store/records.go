package store

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"smartbreath-backend/internal/apperr"
	"smartbreath-backend/internal/model"
)

// CreateRecord validates and persists a measurement, deriving the fev1/fvc
// ratio at write time. The parent machine's updated_at is bumped afterwards
// as a best-effort heartbeat: a failed touch is logged, it never rolls back
// or fails the measurement.
func (s *gormStore) CreateRecord(ctx context.Context, in CreateRecordInput) (*model.Record, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var machine model.Machine
	if err := s.db.WithContext(ctx).First(&machine, "id = ?", in.MachineID).Error; err != nil {
		return nil, classify(err, "machine not found")
	}

	measuredAt := time.Now()
	if in.MeasuredAt != nil {
		measuredAt = *in.MeasuredAt
	}

	record := model.Record{
		ID:         uuid.NewString(),
		MachineID:  in.MachineID,
		SpO2:       in.SpO2,
		FEV1:       in.FEV1,
		FVC:        in.FVC,
		PEF:        in.PEF,
		Fev1Fvc:    math.Round(in.FEV1/in.FVC*10000) / 10000,
		MeasuredAt: measuredAt,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, classify(err, "")
	}

	if err := s.TouchMachine(ctx, in.MachineID); err != nil {
		log.Printf("warning: touch failed for machine %s after record %s: %v", in.MachineID, record.ID, err)
	}

	return &record, nil
}

// GetRecordByID fetches a record joined with its parent machine. The join is
// what ownership checks and report generation run on.
func (s *gormStore) GetRecordByID(ctx context.Context, id string) (*model.Record, error) {
	var record model.Record
	err := s.db.WithContext(ctx).
		Preload("Machine").
		Preload("Machine.Owner").
		First(&record, "id = ?", id).Error
	if err != nil {
		return nil, classify(err, "record not found")
	}
	return &record, nil
}

// ListRecords returns one page of a machine's measurement history. Paging
// values are clamped rather than rejected, the sort key falls back to
// measured_at when outside the whitelist, and from/to bound measured_at
// inclusively when present.
func (s *gormStore) ListRecords(ctx context.Context, machineID string, q RecordQuery) (*RecordPage, error) {
	page, pageSize, column, direction, from, to := q.normalize()

	base := s.db.WithContext(ctx).Model(&model.Record{}).Where("machine_id = ?", machineID)
	if from != nil {
		base = base.Where("measured_at >= ?", *from)
	}
	if to != nil {
		base = base.Where("measured_at <= ?", *to)
	}

	var totalCount int64
	if err := base.Count(&totalCount).Error; err != nil {
		return nil, classify(err, "")
	}

	var items []model.Record
	err := base.
		Order(column + " " + direction).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, classify(err, "")
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(pageSize)))
	if totalPages < 1 {
		totalPages = 1
	}

	if items == nil {
		items = []model.Record{}
	}

	return &RecordPage{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalCount: totalCount,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
		Items:      items,
	}, nil
}

// DeleteRecord removes a single measurement.
func (s *gormStore) DeleteRecord(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.Record{}, "id = ?", id)
	if res.Error != nil {
		return classify(res.Error, "record not found")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("record not found")
	}
	return nil
}

var _ Store = (*gormStore)(nil)
