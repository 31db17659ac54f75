// file: internals/features/finance/fees/model/fee_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// =========================================================
// ENUM - status fee & installment
// =========================================================

type FeeStatus string

const (
	FeeStatusPending  FeeStatus = "pending"
	FeeStatusPartial  FeeStatus = "partial"
	FeeStatusVerified FeeStatus = "verified"
)

type InstallmentStatus string

const (
	InstallmentPending   InstallmentStatus = "pending"
	InstallmentSubmitted InstallmentStatus = "submitted"
	InstallmentVerified  InstallmentStatus = "verified"
	InstallmentRejected  InstallmentStatus = "rejected"
	InstallmentOverdue   InstallmentStatus = "overdue"
)

// Status yang boleh di-submit ulang oleh murid (overdue tetap bisa dibayar)
var PayableStatuses = []InstallmentStatus{InstallmentPending, InstallmentRejected, InstallmentOverdue}

// Status yang boleh diverifikasi admin/gateway
var VerifiableStatuses = []InstallmentStatus{InstallmentPending, InstallmentSubmitted, InstallmentOverdue}

// Status yang boleh ditolak
var RejectableStatuses = []InstallmentStatus{InstallmentPending, InstallmentSubmitted}

// Status yang tidak pernah diganti/dihapus oleh perubahan rencana cicilan
var PreservedStatuses = []InstallmentStatus{InstallmentSubmitted, InstallmentVerified}

// Status unverified yang bisa berubah jadi overdue
var OverdueCandidateStatuses = []InstallmentStatus{InstallmentPending, InstallmentSubmitted, InstallmentRejected}

// =========================================================
// MODEL - fees (satu per student+course)
// =========================================================

type FeeModel struct {
	FeeID        uuid.UUID `gorm:"column:fee_id;type:uuid;primaryKey" json:"fee_id"`
	FeeStudentID uuid.UUID `gorm:"column:fee_student_id;type:uuid;not null;uniqueIndex:uq_fees_student_course,priority:1;index" json:"fee_student_id"`
	FeeCourseID  uuid.UUID `gorm:"column:fee_course_id;type:uuid;not null;uniqueIndex:uq_fees_student_course,priority:2" json:"fee_course_id"`

	FeeTotalAmount int64     `gorm:"column:fee_total_amount;not null;default:0" json:"fee_total_amount"`
	FeePaidAmount  int64     `gorm:"column:fee_paid_amount;not null;default:0" json:"fee_paid_amount"`
	FeeStatus      FeeStatus `gorm:"column:fee_status;type:varchar(20);not null;default:'pending';index" json:"fee_status"`

	// one-shot: roll number sudah diurus untuk fee ini
	FeeRollNoAssigned bool `gorm:"column:fee_roll_no_assigned;not null;default:false" json:"fee_roll_no_assigned"`

	FeeCreatedAt time.Time `gorm:"column:fee_created_at;not null" json:"fee_created_at"`
	FeeUpdatedAt time.Time `gorm:"column:fee_updated_at;not null" json:"fee_updated_at"`

	Installments []FeeInstallmentModel `gorm:"foreignKey:FeeInstallmentFeeID;references:FeeID;constraint:OnDelete:CASCADE" json:"installments,omitempty"`
}

func (FeeModel) TableName() string { return "fees" }

func (m *FeeModel) BeforeCreate(tx *gorm.DB) error {
	if m.FeeID == uuid.Nil {
		m.FeeID = uuid.New()
	}
	now := time.Now()
	if m.FeeCreatedAt.IsZero() {
		m.FeeCreatedAt = now
	}
	m.FeeUpdatedAt = now
	return nil
}

func (m *FeeModel) BeforeUpdate(tx *gorm.DB) error {
	m.FeeUpdatedAt = time.Now()
	return nil
}

// =========================================================
// MODEL - fee_installments (urutan linear per fee)
// =========================================================

type FeeInstallmentModel struct {
	FeeInstallmentID    uuid.UUID `gorm:"column:fee_installment_id;type:uuid;primaryKey" json:"fee_installment_id"`
	FeeInstallmentFeeID uuid.UUID `gorm:"column:fee_installment_fee_id;type:uuid;not null;uniqueIndex:uq_fee_installment_seq,priority:1;index" json:"fee_installment_fee_id"`
	FeeInstallmentSeq   int       `gorm:"column:fee_installment_seq;not null;uniqueIndex:uq_fee_installment_seq,priority:2" json:"fee_installment_seq"`

	FeeInstallmentAmount  int64             `gorm:"column:fee_installment_amount;not null;check:fee_installment_amount>0" json:"fee_installment_amount"`
	FeeInstallmentDueDate time.Time         `gorm:"column:fee_installment_due_date;not null;index" json:"fee_installment_due_date"`
	FeeInstallmentStatus  InstallmentStatus `gorm:"column:fee_installment_status;type:varchar(20);not null;default:'pending';index" json:"fee_installment_status"`

	FeeInstallmentReceiptRef *string    `gorm:"column:fee_installment_receipt_ref;type:text" json:"fee_installment_receipt_ref,omitempty"`
	FeeInstallmentSlipID     *string    `gorm:"column:fee_installment_slip_id;type:varchar(80)" json:"fee_installment_slip_id,omitempty"`
	FeeInstallmentPaidAt     *time.Time `gorm:"column:fee_installment_paid_at" json:"fee_installment_paid_at,omitempty"`
	FeeInstallmentVerifiedBy *string    `gorm:"column:fee_installment_verified_by;type:varchar(64)" json:"fee_installment_verified_by,omitempty"`
	FeeInstallmentVerifiedAt *time.Time `gorm:"column:fee_installment_verified_at" json:"fee_installment_verified_at,omitempty"`

	FeeInstallmentCreatedAt time.Time `gorm:"column:fee_installment_created_at;not null" json:"fee_installment_created_at"`
	FeeInstallmentUpdatedAt time.Time `gorm:"column:fee_installment_updated_at;not null" json:"fee_installment_updated_at"`
}

func (FeeInstallmentModel) TableName() string { return "fee_installments" }

func (m *FeeInstallmentModel) BeforeCreate(tx *gorm.DB) error {
	if m.FeeInstallmentID == uuid.Nil {
		m.FeeInstallmentID = uuid.New()
	}
	if m.FeeInstallmentStatus == "" {
		m.FeeInstallmentStatus = InstallmentPending
	}
	now := time.Now()
	if m.FeeInstallmentCreatedAt.IsZero() {
		m.FeeInstallmentCreatedAt = now
	}
	m.FeeInstallmentUpdatedAt = now
	return nil
}
