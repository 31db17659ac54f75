// file: internals/features/finance/fees/dto/fee_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	"lms_backend/internals/features/finance/fees/model"
	"lms_backend/internals/helpers/dbtime"
)

/* =========================================================
   REQUEST
========================================================= */

// InstallmentPlanItem: satu baris jadwal cicilan (dipakai juga oleh create enrollment)
type InstallmentPlanItem struct {
	Amount  int64  `json:"amount" validate:"required,gt=0"`
	DueDate string `json:"due_date" validate:"required,datetime=2006-01-02"`
}

type SetInstallmentPlanRequest struct {
	Installments []InstallmentPlanItem `json:"installments" validate:"required,min=1,dive"`
}

// SubmitPaymentRequest: JSON {receipt_ref} atau multipart (file "receipt" + slip_id)
type SubmitPaymentRequest struct {
	ReceiptRef string  `json:"receipt_ref" form:"receipt_ref" validate:"omitempty,max=1024"`
	SlipID     *string `json:"slip_id" form:"slip_id" validate:"omitempty,max=80"`
}

// ToPlan: due_date sudah lolos validator, error parse hanya mungkin kalau dipanggil tanpa validasi
func ToPlan(items []InstallmentPlanItem) ([]model.PlannedInstallment, error) {
	out := make([]model.PlannedInstallment, 0, len(items))
	for _, it := range items {
		due, err := dbtime.ParseDateUTC(it.DueDate)
		if err != nil {
			return nil, err
		}
		out = append(out, model.PlannedInstallment{Amount: it.Amount, DueDate: due})
	}
	return out, nil
}

/* =========================================================
   RESPONSE
========================================================= */

type InstallmentResponse struct {
	ID         uuid.UUID               `json:"installment_id"`
	Seq        int                     `json:"seq"`
	Amount     int64                   `json:"amount"`
	DueDate    string                  `json:"due_date"`
	Status     model.InstallmentStatus `json:"status"`
	ReceiptRef *string                 `json:"receipt_ref,omitempty"`
	SlipID     *string                 `json:"slip_id,omitempty"`
	PaidAt     *time.Time              `json:"paid_at,omitempty"`
	VerifiedBy *string                 `json:"verified_by,omitempty"`
	VerifiedAt *time.Time              `json:"verified_at,omitempty"`
	IsOverdue  bool                    `json:"is_overdue"`
}

type FeeResponse struct {
	ID           uuid.UUID             `json:"fee_id"`
	StudentID    uuid.UUID             `json:"student_id"`
	CourseID     uuid.UUID             `json:"course_id"`
	TotalAmount  int64                 `json:"total_amount"`
	PaidAmount   int64                 `json:"paid_amount"`
	Outstanding  int64                 `json:"outstanding_amount"`
	Status       model.FeeStatus       `json:"status"`
	Installments []InstallmentResponse `json:"installments"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

func FromInstallment(m model.FeeInstallmentModel, now time.Time) InstallmentResponse {
	return InstallmentResponse{
		ID:         m.FeeInstallmentID,
		Seq:        m.FeeInstallmentSeq,
		Amount:     m.FeeInstallmentAmount,
		DueDate:    dbtime.FormatDate(m.FeeInstallmentDueDate),
		Status:     m.FeeInstallmentStatus,
		ReceiptRef: m.FeeInstallmentReceiptRef,
		SlipID:     m.FeeInstallmentSlipID,
		PaidAt:     m.FeeInstallmentPaidAt,
		VerifiedBy: m.FeeInstallmentVerifiedBy,
		VerifiedAt: m.FeeInstallmentVerifiedAt,
		IsOverdue:  model.IsOverdue(m, now),
	}
}

func FromFee(m model.FeeModel, now time.Time) FeeResponse {
	insts := model.SortedBySeq(m.Installments)
	items := make([]InstallmentResponse, 0, len(insts))
	for _, it := range insts {
		items = append(items, FromInstallment(it, now))
	}
	outstanding := m.FeeTotalAmount - m.FeePaidAmount
	if outstanding < 0 {
		outstanding = 0
	}
	return FeeResponse{
		ID:           m.FeeID,
		StudentID:    m.FeeStudentID,
		CourseID:     m.FeeCourseID,
		TotalAmount:  m.FeeTotalAmount,
		PaidAmount:   m.FeePaidAmount,
		Outstanding:  outstanding,
		Status:       m.FeeStatus,
		Installments: items,
		UpdatedAt:    m.FeeUpdatedAt,
	}
}

func FromFees(rows []model.FeeModel, now time.Time) []FeeResponse {
	out := make([]FeeResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromFee(r, now))
	}
	return out
}
