package route

import (
	"github.com/gofiber/fiber/v2"

	"lms_backend/internals/features/school/enrollments/controller"
	"lms_backend/internals/features/school/enrollments/service"
)

func EnrollmentAdminRoutes(admin fiber.Router, svc *service.Service) {
	ctrl := controller.NewEnrollmentController(svc)

	admin.Post("/enrollments", ctrl.Create)
	admin.Post("/enrollments/complete", ctrl.Complete)
	admin.Get("/enrollments/:enrollment_id", ctrl.Get)
	admin.Get("/courses/:course_id/enrollments", ctrl.ListByCourse)
}

func EnrollmentUserRoutes(user fiber.Router, svc *service.Service) {
	ctrl := controller.NewEnrollmentController(svc)
	user.Get("/enrollments", ctrl.ListMine)
}
