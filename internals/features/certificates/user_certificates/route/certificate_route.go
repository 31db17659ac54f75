package route

import (
	"github.com/gofiber/fiber/v2"

	"lms_backend/internals/features/certificates/user_certificates/controller"
	"lms_backend/internals/features/certificates/user_certificates/service"
)

func CertificateAdminRoutes(admin fiber.Router, svc *service.Service) {
	ctrl := controller.NewUserCertificateController(svc)
	admin.Post("/certificates", ctrl.Issue)
}

func CertificateUserRoutes(user fiber.Router, svc *service.Service) {
	ctrl := controller.NewUserCertificateController(svc)
	user.Get("/certificates", ctrl.GetMine)
}
