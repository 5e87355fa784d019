package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/repository"
)

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrAlreadyClockedIn = errors.New("employee already has an open shift for this date")
	ErrNoOpenShift      = errors.New("employee has no open shift for this date")
)

// ShiftService ingests clock-in/clock-out events. Shift data feeds the
// by-hours roster; it is not a scheduling system.
type ShiftService interface {
	CreateEmployee(ctx context.Context, name string) (*model.Employee, error)
	ListEmployees(ctx context.Context) ([]model.Employee, error)
	ClockIn(ctx context.Context, employeeID uuid.UUID, businessDate string, at time.Time) (*model.Shift, error)
	ClockOut(ctx context.Context, employeeID uuid.UUID, businessDate string, at time.Time) (*model.Shift, error)
	ListShifts(ctx context.Context, businessDate string) ([]model.Shift, error)
}

type shiftService struct {
	repo repository.ShiftRepository
}

func NewShiftService(repo repository.ShiftRepository) ShiftService {
	return &shiftService{repo: repo}
}

func (s *shiftService) CreateEmployee(ctx context.Context, name string) (*model.Employee, error) {
	e := &model.Employee{Name: name, Active: true}
	if err := s.repo.CreateEmployee(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *shiftService) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	return s.repo.ListEmployees(ctx)
}

func (s *shiftService) ClockIn(ctx context.Context, employeeID uuid.UUID, businessDate string, at time.Time) (*model.Shift, error) {
	if _, err := s.repo.FindEmployee(ctx, employeeID); err != nil {
		return nil, ErrEmployeeNotFound
	}
	if _, err := s.repo.FindOpenShift(ctx, employeeID, businessDate); err == nil {
		return nil, ErrAlreadyClockedIn
	}
	shift := &model.Shift{
		EmployeeID:   employeeID,
		BusinessDate: businessDate,
		ClockIn:      at,
	}
	if err := s.repo.CreateShift(ctx, shift); err != nil {
		return nil, err
	}
	return shift, nil
}

func (s *shiftService) ClockOut(ctx context.Context, employeeID uuid.UUID, businessDate string, at time.Time) (*model.Shift, error) {
	shift, err := s.repo.FindOpenShift(ctx, employeeID, businessDate)
	if err != nil {
		return nil, ErrNoOpenShift
	}
	rows, err := s.repo.CloseShift(ctx, shift.ID, at)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNoOpenShift
	}
	shift.ClockOut = &at
	return shift, nil
}

func (s *shiftService) ListShifts(ctx context.Context, businessDate string) ([]model.Shift, error) {
	return s.repo.ListByDate(ctx, businessDate)
}
