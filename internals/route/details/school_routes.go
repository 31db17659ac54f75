// file: internals/route/details/school_routes.go
package details

import (
	"github.com/gofiber/fiber/v2"

	CertificateRoute "lms_backend/internals/features/certificates/user_certificates/route"
	AttendanceRoute "lms_backend/internals/features/school/attendance/route"
	EnrollmentRoute "lms_backend/internals/features/school/enrollments/route"
	"lms_backend/internals/middlewares"
)

func SchoolUserRoutes(r fiber.Router, d Deps) {
	EnrollmentRoute.EnrollmentUserRoutes(r, d.Enrollments)
	CertificateRoute.CertificateUserRoutes(r, d.Certificates)
}

func SchoolTeacherRoutes(r fiber.Router, d Deps) {
	AttendanceRoute.AttendanceTeacherRoutes(r, d.Attendance)
}

func SchoolAdminRoutes(r fiber.Router, d Deps) {
	EnrollmentRoute.EnrollmentAdminRoutes(r, d.Enrollments)
	CertificateRoute.CertificateAdminRoutes(r, d.Certificates)

	r.Use("/attendance/auto-lock", middlewares.SweepTriggerRateLimiter())
	AttendanceRoute.AttendanceAdminRoutes(r, d.Attendance)
}
