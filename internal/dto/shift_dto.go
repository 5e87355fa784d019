package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateEmployeeRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

type ClockInRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	// BusinessDate defaults to today when omitted.
	BusinessDate string `json:"business_date" validate:"omitempty,datetime=2006-01-02"`
}

type ClockOutRequest struct {
	EmployeeID   string `json:"employee_id"   validate:"required,uuid"`
	BusinessDate string `json:"business_date" validate:"omitempty,datetime=2006-01-02"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type EmployeeResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type ShiftResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name,omitempty"`
	BusinessDate string  `json:"business_date"`
	ClockIn      string  `json:"clock_in"`
	ClockOut     *string `json:"clock_out,omitempty"`
}
