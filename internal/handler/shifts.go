package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/apierror"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/dto"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/service"
)

type ShiftHandler struct{ svc service.ShiftService }

func NewShiftHandler(svc service.ShiftService) *ShiftHandler { return &ShiftHandler{svc: svc} }

// CreateEmployee godoc
// @Summary Registers a staff member eligible for tip payouts
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateEmployeeRequest true "Employee"
// @Success 201 {object} dto.EmployeeResponse
// @Router /v1/employees [post]
func (h *ShiftHandler) CreateEmployee(c *gin.Context) {
	var req dto.CreateEmployeeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	e, err := h.svc.CreateEmployee(c.Request.Context(), req.Name)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, employeeResponse(e))
}

// ListEmployees godoc
// @Summary Lists active employees
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.EmployeeResponse
// @Router /v1/employees [get]
func (h *ShiftHandler) ListEmployees(c *gin.Context) {
	employees, err := h.svc.ListEmployees(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := make([]dto.EmployeeResponse, len(employees))
	for i := range employees {
		resp[i] = employeeResponse(&employees[i])
	}
	c.JSON(http.StatusOK, resp)
}

// ClockIn godoc
// @Summary Opens a shift for an employee on a business date
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ClockInRequest true "Employee and date"
// @Success 201 {object} dto.ShiftResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/shifts/clock-in [post]
func (h *ShiftHandler) ClockIn(c *gin.Context) {
	var req dto.ClockInRequest
	if !bindAndValidate(c, &req) {
		return
	}
	employeeID, _ := uuid.Parse(req.EmployeeID)
	date := req.BusinessDate
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	shift, err := h.svc.ClockIn(c.Request.Context(), employeeID, date, time.Now())
	if err != nil {
		writeShiftError(c, err)
		return
	}
	c.JSON(http.StatusCreated, shiftResponse(shift))
}

// ClockOut godoc
// @Summary Closes an employee's open shift
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ClockOutRequest true "Employee and date"
// @Success 200 {object} dto.ShiftResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/shifts/clock-out [post]
func (h *ShiftHandler) ClockOut(c *gin.Context) {
	var req dto.ClockOutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	employeeID, _ := uuid.Parse(req.EmployeeID)
	date := req.BusinessDate
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	shift, err := h.svc.ClockOut(c.Request.Context(), employeeID, date, time.Now())
	if err != nil {
		writeShiftError(c, err)
		return
	}
	c.JSON(http.StatusOK, shiftResponse(shift))
}

// ListShifts godoc
// @Summary Lists shifts for a business date in clock-in order
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Param date query string false "Business date (YYYY-MM-DD, default today)"
// @Success 200 {array} dto.ShiftResponse
// @Router /v1/shifts [get]
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	date := c.DefaultQuery("date", time.Now().Format("2006-01-02"))
	shifts, err := h.svc.ListShifts(c.Request.Context(), date)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := make([]dto.ShiftResponse, len(shifts))
	for i := range shifts {
		resp[i] = shiftResponse(&shifts[i])
	}
	c.JSON(http.StatusOK, resp)
}

func writeShiftError(c *gin.Context, err error) {
	switch err {
	case service.ErrEmployeeNotFound:
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case service.ErrAlreadyClockedIn, service.ErrNoOpenShift:
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	default:
		writeServiceError(c, err)
	}
}

func employeeResponse(e *model.Employee) dto.EmployeeResponse {
	return dto.EmployeeResponse{ID: e.ID.String(), Name: e.Name, Active: e.Active}
}

func shiftResponse(s *model.Shift) dto.ShiftResponse {
	resp := dto.ShiftResponse{
		ID:           s.ID.String(),
		EmployeeID:   s.EmployeeID.String(),
		BusinessDate: s.BusinessDate,
		ClockIn:      s.ClockIn.Format(time.RFC3339),
	}
	if s.Employee != nil {
		resp.EmployeeName = s.Employee.Name
	}
	if s.ClockOut != nil {
		t := s.ClockOut.Format(time.RFC3339)
		resp.ClockOut = &t
	}
	return resp
}
