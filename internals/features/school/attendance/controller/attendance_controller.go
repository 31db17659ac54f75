// file: internals/features/school/attendance/controller/attendance_controller.go
package controller

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"lms_backend/internals/features/school/attendance/dto"
	"lms_backend/internals/features/school/attendance/service"
	helper "lms_backend/internals/helpers"
	"lms_backend/internals/helpers/dbtime"
)

type AttendanceController struct {
	Svc         *service.Service
	LockTimeout time.Duration
}

func NewAttendanceController(svc *service.Service) *AttendanceController {
	return &AttendanceController{Svc: svc, LockTimeout: 4 * time.Minute}
}

/* =========================================================
   TEACHER
========================================================= */

// ✍️ POST /api/t/courses/:course_id/attendance
func (ctrl *AttendanceController) Mark(c *fiber.Ctx) error {
	courseID, err := helper.ParseUUIDParam(c, "course_id")
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	var req dto.MarkAttendanceRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}

	day, err := ctrl.Svc.MarkAttendance(c.Context(), courseID, req.Date, req.ToInputs(), helper.ActorID(c))
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	return helper.JsonUpdated(c, "Absensi tersimpan", dto.FromDay(*day))
}

// 🔎 GET /api/t/courses/:course_id/attendance/:date
func (ctrl *AttendanceController) GetDay(c *fiber.Ctx) error {
	courseID, err := helper.ParseUUIDParam(c, "course_id")
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	day, err := ctrl.Svc.GetAttendanceDay(c.Context(), courseID, c.Params("date"))
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	return helper.JsonOK(c, "Detail absensi", dto.FromDay(*day))
}

// 📊 GET /api/t/courses/:course_id/attendance/report
func (ctrl *AttendanceController) Report(c *fiber.Ctx) error {
	courseID, err := helper.ParseUUIDParam(c, "course_id")
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	rep, err := ctrl.Svc.GetAttendanceReport(c.Context(), courseID)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	return helper.JsonOK(c, "Rekap absensi", rep)
}

/* =========================================================
   ADMIN
========================================================= */

// 🔒 POST /api/a/attendance/auto-lock?date=YYYY-MM-DD (default: kemarin)
func (ctrl *AttendanceController) AutoLock(c *fiber.Ctx) error {
	timeout := ctrl.LockTimeout
	if timeout <= 0 {
		timeout = 4 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		date, err := dbtime.ParseDateUTC(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "date harus YYYY-MM-DD")
		}
		return helper.JsonOK(c, "Auto-lock selesai", ctrl.Svc.LockDate(ctx, date))
	}
	return helper.JsonOK(c, "Auto-lock selesai", ctrl.Svc.RunAutoLock(ctx))
}

// 🏖️ GET /api/a/attendance/holidays
func (ctrl *AttendanceController) GetHolidays(c *fiber.Ctx) error {
	days, err := ctrl.Svc.GetHolidays(c.Context())
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	return helper.JsonOK(c, "Hari libur", fiber.Map{"days": days})
}

// 🏖️ PUT /api/a/attendance/holidays
func (ctrl *AttendanceController) SetHolidays(c *fiber.Ctx) error {
	var req dto.SetHolidaysRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	days, err := ctrl.Svc.SetHolidays(c.Context(), req.Days)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	return helper.JsonUpdated(c, "Hari libur diperbarui", fiber.Map{"days": days})
}
