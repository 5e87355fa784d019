package model

import (
	"time"

	"github.com/google/uuid"
)

// Employee is a staff member eligible for tip payouts.
type Employee struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Shift is one clock-in/clock-out pair for a business date. A nil ClockOut
// means the employee is still working; such shifts still participate in
// by-hours distribution with partial time measured up to evaluation.
type Shift struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID   uuid.UUID `gorm:"type:uuid;not null;index:idx_shifts_employee_date"`
	BusinessDate string    `gorm:"type:date;not null;index:idx_shifts_employee_date"`
	ClockIn      time.Time `gorm:"not null"`
	ClockOut     *time.Time
	CreatedAt    time.Time

	Employee *Employee `gorm:"foreignKey:EmployeeID"`
}

// WorkedMinutes returns whole minutes between clock-in and clock-out, using
// now for open-ended shifts. Never negative.
func (s *Shift) WorkedMinutes(now time.Time) int64 {
	end := now
	if s.ClockOut != nil {
		end = *s.ClockOut
	}
	mins := int64(end.Sub(s.ClockIn) / time.Minute)
	if mins < 0 {
		return 0
	}
	return mins
}
