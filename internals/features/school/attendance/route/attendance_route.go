package route

import (
	"github.com/gofiber/fiber/v2"

	"lms_backend/internals/features/school/attendance/controller"
	"lms_backend/internals/features/school/attendance/service"
)

// AttendanceTeacherRoutes: /api/t
func AttendanceTeacherRoutes(teacher fiber.Router, svc *service.Service) {
	ctrl := controller.NewAttendanceController(svc)

	grp := teacher.Group("/courses/:course_id/attendance")
	grp.Post("/", ctrl.Mark)
	// report sebelum /:date
	grp.Get("/report", ctrl.Report)
	grp.Get("/:date", ctrl.GetDay)
}

// AttendanceAdminRoutes: /api/a
func AttendanceAdminRoutes(admin fiber.Router, svc *service.Service) {
	ctrl := controller.NewAttendanceController(svc)

	grp := admin.Group("/attendance")
	grp.Post("/auto-lock", ctrl.AutoLock)
	grp.Get("/holidays", ctrl.GetHolidays)
	grp.Put("/holidays", ctrl.SetHolidays)
}
