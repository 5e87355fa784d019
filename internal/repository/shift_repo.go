package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
)

// ShiftRepository stores clock-in/clock-out records and the employee roster.
type ShiftRepository interface {
	CreateEmployee(ctx context.Context, e *model.Employee) error
	FindEmployee(ctx context.Context, id uuid.UUID) (*model.Employee, error)
	ListEmployees(ctx context.Context) ([]model.Employee, error)

	CreateShift(ctx context.Context, s *model.Shift) error
	// FindOpenShift returns the employee's shift with no clock-out for the date.
	FindOpenShift(ctx context.Context, employeeID uuid.UUID, date string) (*model.Shift, error)
	// CloseShift sets clock_out; guarded on clock_out IS NULL.
	CloseShift(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	// ListByDate returns all shifts for a business date in roster (clock-in) order.
	ListByDate(ctx context.Context, date string) ([]model.Shift, error)
}

type shiftRepo struct{ db *gorm.DB }

func NewShiftRepository(db *gorm.DB) ShiftRepository { return &shiftRepo{db: db} }

func (r *shiftRepo) CreateEmployee(ctx context.Context, e *model.Employee) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *shiftRepo) FindEmployee(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	var e model.Employee
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	return &e, err
}

func (r *shiftRepo) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	var employees []model.Employee
	err := r.db.WithContext(ctx).Where("active = true").Order("name ASC").Find(&employees).Error
	return employees, err
}

func (r *shiftRepo) CreateShift(ctx context.Context, s *model.Shift) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *shiftRepo) FindOpenShift(ctx context.Context, employeeID uuid.UUID, date string) (*model.Shift, error) {
	var s model.Shift
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND business_date = ? AND clock_out IS NULL", employeeID, date).
		First(&s).Error
	return &s, err
}

func (r *shiftRepo) CloseShift(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Shift{}).
		Where("id = ? AND clock_out IS NULL", id).
		Update("clock_out", at)
	return res.RowsAffected, res.Error
}

func (r *shiftRepo) ListByDate(ctx context.Context, date string) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("business_date = ?", date).
		Order("clock_in ASC").
		Find(&shifts).Error
	return shifts, err
}
