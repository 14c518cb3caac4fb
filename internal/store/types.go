package store

import (
	"regexp"
	"strings"
	"time"

	"smartbreath-backend/internal/apperr"
	"smartbreath-backend/internal/model"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9]{3,30}$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// CreateUserInput carries a registration request. PasswordHash is already
// hashed by the auth layer; plaintext never reaches the store.
type CreateUserInput struct {
	FirstName    string
	LastName     string
	Username     string
	Email        string
	PasswordHash string
	DOB          string
	Weight       float64
	Height       float64
	Gender       string
}

func (in *CreateUserInput) validate() error {
	if l := len(in.FirstName); l < 2 || l > 50 {
		return apperr.Validation("firstName must be 2-50 characters")
	}
	if l := len(in.LastName); l < 2 || l > 50 {
		return apperr.Validation("lastName must be 2-50 characters")
	}
	if !usernameRe.MatchString(in.Username) {
		return apperr.Validation("username must be 3-30 alphanumeric characters")
	}
	if !emailRe.MatchString(in.Email) {
		return apperr.Validation("email is not a valid address")
	}
	if in.Weight < 10 || in.Weight > 500 {
		return apperr.Validation("weight must be between 10 and 500 kg")
	}
	if in.Height < 50 || in.Height > 300 {
		return apperr.Validation("height must be between 50 and 300 cm")
	}
	switch in.Gender {
	case model.GenderMale, model.GenderFemale, model.GenderOther:
	default:
		return apperr.Validation("gender must be one of Male, Female, Other")
	}
	return nil
}

// UpdateUserInput is a partial self-service profile update. Nil fields are
// left untouched.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Username  *string
	Email     *string
	Weight    *float64
	Height    *float64
	Gender    *string
}

func (in *UpdateUserInput) validate() error {
	if in.FirstName == nil && in.LastName == nil && in.Username == nil &&
		in.Email == nil && in.Weight == nil && in.Height == nil && in.Gender == nil {
		return apperr.Validation("at least one field is required")
	}
	if in.FirstName != nil {
		if l := len(*in.FirstName); l < 2 || l > 50 {
			return apperr.Validation("firstName must be 2-50 characters")
		}
	}
	if in.LastName != nil {
		if l := len(*in.LastName); l < 2 || l > 50 {
			return apperr.Validation("lastName must be 2-50 characters")
		}
	}
	if in.Username != nil && !usernameRe.MatchString(*in.Username) {
		return apperr.Validation("username must be 3-30 alphanumeric characters")
	}
	if in.Email != nil && !emailRe.MatchString(*in.Email) {
		return apperr.Validation("email is not a valid address")
	}
	if in.Weight != nil && (*in.Weight < 10 || *in.Weight > 500) {
		return apperr.Validation("weight must be between 10 and 500 kg")
	}
	if in.Height != nil && (*in.Height < 50 || *in.Height > 300) {
		return apperr.Validation("height must be between 50 and 300 cm")
	}
	if in.Gender != nil {
		switch *in.Gender {
		case model.GenderMale, model.GenderFemale, model.GenderOther:
		default:
			return apperr.Validation("gender must be one of Male, Female, Other")
		}
	}
	return nil
}

// CreateMachineInput carries a device-registration request.
type CreateMachineInput struct {
	DeviceName string
	Model      string
	OwnerID    string
}

func (in *CreateMachineInput) validate() error {
	if l := len(in.DeviceName); l < 3 || l > 100 {
		return apperr.Validation("deviceName must be 3-100 characters")
	}
	if l := len(in.Model); l < 3 || l > 100 {
		return apperr.Validation("model must be 3-100 characters")
	}
	if strings.TrimSpace(in.OwnerID) == "" {
		return apperr.Validation("ownerId is required")
	}
	return nil
}

// CreateRecordInput carries a measurement. Fev1Fvc is intentionally absent:
// the ratio is derived at write time and never accepted as input.
type CreateRecordInput struct {
	MachineID  string
	SpO2       int
	FEV1       float64
	FVC        float64
	PEF        float64
	MeasuredAt *time.Time
}

func (in *CreateRecordInput) validate() error {
	if strings.TrimSpace(in.MachineID) == "" {
		return apperr.Validation("machineId is required")
	}
	if in.SpO2 < 0 || in.SpO2 > 100 {
		return apperr.Validation("spo2 must be an integer between 0 and 100")
	}
	if in.FEV1 <= 0 {
		return apperr.Validation("fev1 must be a positive number")
	}
	if in.FVC <= 0 {
		return apperr.Validation("fvc must be a positive number")
	}
	if in.PEF <= 0 {
		return apperr.Validation("pef must be a positive number")
	}
	return nil
}

// Pagination limits for record listing.
const (
	MinPageSize = 1
	MaxPageSize = 100
)

// recordSortColumns whitelists sortable fields and maps them to columns.
// Anything else silently falls back to measured_at, so a hostile sortBy can
// never reach the ORDER BY clause.
var recordSortColumns = map[string]string{
	"measuredAt": "measured_at",
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
	"spo2":       "spo2",
	"fev1":       "fev1",
	"fvc":        "fvc",
	"pef":        "pef",
	"id":         "id",
}

// RecordQuery selects, orders and slices a machine's measurement history.
type RecordQuery struct {
	Page     int
	PageSize int
	SortBy   string
	Order    string
	From     *time.Time
	To       *time.Time
}

// normalize clamps out-of-range paging values instead of rejecting them and
// resolves the sort column and direction.
func (q RecordQuery) normalize() (page, pageSize int, column, direction string, from, to *time.Time) {
	page = q.Page
	if page < 1 {
		page = 1
	}
	pageSize = q.PageSize
	if pageSize < MinPageSize {
		pageSize = MinPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	column, ok := recordSortColumns[q.SortBy]
	if !ok {
		column = "measured_at"
	}
	direction = "DESC"
	if strings.EqualFold(q.Order, "asc") {
		direction = "ASC"
	}
	return page, pageSize, column, direction, q.From, q.To
}

// RecordPage is the paginated listing envelope.
type RecordPage struct {
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
	TotalCount int64          `json:"totalCount"`
	HasNext    bool           `json:"hasNext"`
	HasPrev    bool           `json:"hasPrev"`
	Items      []model.Record `json:"items"`
}
