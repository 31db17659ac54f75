// file: internals/features/school/enrollments/controller/enrollment_controller.go
package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"lms_backend/internals/features/school/enrollments/dto"
	"lms_backend/internals/features/school/enrollments/service"
	helper "lms_backend/internals/helpers"
)

type EnrollmentController struct {
	Svc *service.Service
}

func NewEnrollmentController(svc *service.Service) *EnrollmentController {
	return &EnrollmentController{Svc: svc}
}

func (ctrl *EnrollmentController) now() time.Time {
	if ctrl.Svc != nil && ctrl.Svc.Now != nil {
		return ctrl.Svc.Now()
	}
	return time.Now()
}

// ➕ POST /api/a/enrollments
func (ctrl *EnrollmentController) Create(c *fiber.Ctx) error {
	var req dto.CreateEnrollmentRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	in, err := req.ToInput()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "due_date tidak valid")
	}

	d, err := ctrl.Svc.CreateEnrollment(c.Context(), in)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	return helper.JsonCreated(c, "Pendaftaran berhasil dibuat", dto.FromDetail(*d, ctrl.now()))
}

// 📋 GET /api/a/courses/:course_id/enrollments
func (ctrl *EnrollmentController) ListByCourse(c *fiber.Ctx) error {
	courseID, err := helper.ParseUUIDParam(c, "course_id")
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	rows, err := ctrl.Svc.ListCourseEnrollments(c.Context(), courseID)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	return helper.JsonList(c, "Daftar peserta course", dto.FromDetails(rows, ctrl.now()))
}

// 🔎 GET /api/a/enrollments/:enrollment_id
func (ctrl *EnrollmentController) Get(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "enrollment_id")
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	d, err := ctrl.Svc.GetEnrollment(c.Context(), id)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	return helper.JsonOK(c, "Detail pendaftaran", dto.FromDetail(*d, ctrl.now()))
}

// 🎓 POST /api/a/enrollments/complete
func (ctrl *EnrollmentController) Complete(c *fiber.Ctx) error {
	var req dto.CompleteEnrollmentRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	enr, err := ctrl.Svc.CompleteEnrollment(c.Context(), uuid.MustParse(req.StudentID), uuid.MustParse(req.CourseID))
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	return helper.JsonUpdated(c, "Pendaftaran selesai", enr)
}

// 🟢 GET /api/u/enrollments
func (ctrl *EnrollmentController) ListMine(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	rows, err := ctrl.Svc.ListStudentEnrollments(c.Context(), userID)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	return helper.JsonList(c, "Daftar course saya", dto.FromDetails(rows, ctrl.now()))
}
