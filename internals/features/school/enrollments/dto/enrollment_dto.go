// file: internals/features/school/enrollments/dto/enrollment_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	feeDTO "lms_backend/internals/features/finance/fees/dto"
	feeModel "lms_backend/internals/features/finance/fees/model"
	"lms_backend/internals/features/school/enrollments/model"
	"lms_backend/internals/features/school/enrollments/service"
)

/* =========================================================
   REQUEST
========================================================= */

// CreateEnrollmentRequest: installments kosong → satu cicilan seharga fee course
type CreateEnrollmentRequest struct {
	StudentID    string                       `json:"student_id" validate:"required,uuid"`
	CourseID     string                       `json:"course_id" validate:"required,uuid"`
	Installments []feeDTO.InstallmentPlanItem `json:"installments" validate:"omitempty,dive"`
}

func (r CreateEnrollmentRequest) ToInput() (service.CreateInput, error) {
	plan, err := feeDTO.ToPlan(r.Installments)
	if err != nil {
		return service.CreateInput{}, err
	}
	return service.CreateInput{
		StudentID: uuid.MustParse(r.StudentID),
		CourseID:  uuid.MustParse(r.CourseID),
		Schedule:  plan,
	}, nil
}

type CompleteEnrollmentRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	CourseID  string `json:"course_id" validate:"required,uuid"`
}

/* =========================================================
   RESPONSE
========================================================= */

type EnrollmentResponse struct {
	ID               uuid.UUID                    `json:"enrollment_id"`
	StudentID        uuid.UUID                    `json:"student_id"`
	CourseID         uuid.UUID                    `json:"course_id"`
	FeeID            uuid.UUID                    `json:"fee_id"`
	Status           model.EnrollmentStatus       `json:"status"`
	FeeStatus        model.EnrollmentFeeStatus    `json:"fee_status"`
	IsActive         bool                         `json:"is_active"`
	RegistrationDate time.Time                    `json:"registration_date"`
	EnrollmentDate   *time.Time                   `json:"enrollment_date,omitempty"`
	CompletionDate   *time.Time                   `json:"completion_date,omitempty"`
	TotalAmount      int64                        `json:"total_amount"`
	PaidAmount       int64                        `json:"paid_amount"`
	Installments     []feeDTO.InstallmentResponse `json:"installments"`
}

func FromDetail(d service.EnrollmentDetail, now time.Time) EnrollmentResponse {
	e := d.Enrollment
	insts := make([]feeDTO.InstallmentResponse, 0, len(d.Installments))
	for _, it := range d.Installments {
		insts = append(insts, feeDTO.FromInstallment(it, now))
	}

	// fee_status proyeksi ikut ledger terbaru (overdue dihitung saat baca)
	fs := model.EnrollmentFeeStatus(d.FeeStatus)
	if feeModel.HasOverdue(d.Installments, now) {
		fs = model.EnrollmentFeeOverdue
	}

	return EnrollmentResponse{
		ID:               e.EnrollmentID,
		StudentID:        e.EnrollmentStudentID,
		CourseID:         e.EnrollmentCourseID,
		FeeID:            d.FeeID,
		Status:           e.EnrollmentStatus,
		FeeStatus:        fs,
		IsActive:         d.IsActive,
		RegistrationDate: e.EnrollmentRegistrationDate,
		EnrollmentDate:   e.EnrollmentDate,
		CompletionDate:   e.EnrollmentCompletionDate,
		TotalAmount:      d.TotalAmount,
		PaidAmount:       d.PaidAmount,
		Installments:     insts,
	}
}

func FromDetails(rows []service.EnrollmentDetail, now time.Time) []EnrollmentResponse {
	out := make([]EnrollmentResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromDetail(r, now))
	}
	return out
}
