package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"lms_backend/internals/features/certificates/user_certificates/dto"
	"lms_backend/internals/features/certificates/user_certificates/service"
	helper "lms_backend/internals/helpers"
)

type UserCertificateController struct {
	Svc *service.Service
}

func NewUserCertificateController(svc *service.Service) *UserCertificateController {
	return &UserCertificateController{Svc: svc}
}

// 🎓 POST /api/a/certificates
func (ctrl *UserCertificateController) Issue(c *fiber.Ctx) error {
	var req dto.IssueCertificateRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}

	res, err := ctrl.Svc.Issue(c.Context(), uuid.MustParse(req.StudentID), uuid.MustParse(req.CourseID), helper.ActorID(c))
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	return helper.JsonCreated(c, "Sertifikat berhasil diterbitkan", res)
}

// 🟢 GET /api/u/certificates
func (ctrl *UserCertificateController) GetMine(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	rows, err := ctrl.Svc.ListStudentCertificates(c.Context(), userID)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	return helper.JsonList(c, "Daftar sertifikat", rows)
}
