package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentSuspended EnrollmentStatus = "suspended"
)

// Status fee dari sudut pandang enrollment (fee status + "overdue")
type EnrollmentFeeStatus string

const (
	EnrollmentFeePending  EnrollmentFeeStatus = "pending"
	EnrollmentFeePartial  EnrollmentFeeStatus = "partial"
	EnrollmentFeeVerified EnrollmentFeeStatus = "verified"
	EnrollmentFeeOverdue  EnrollmentFeeStatus = "overdue"
)

// EnrollmentModel: satu per (student, course). Installment tidak diduplikasi di sini,
// enrollment merujuk ke ledger lewat enrollment_fee_id.
type EnrollmentModel struct {
	EnrollmentID        uuid.UUID `gorm:"column:enrollment_id;type:uuid;primaryKey" json:"enrollment_id"`
	EnrollmentStudentID uuid.UUID `gorm:"column:enrollment_student_id;type:uuid;not null;uniqueIndex:uq_enrollments_student_course,priority:1;index" json:"enrollment_student_id"`
	EnrollmentCourseID  uuid.UUID `gorm:"column:enrollment_course_id;type:uuid;not null;uniqueIndex:uq_enrollments_student_course,priority:2;index" json:"enrollment_course_id"`
	EnrollmentFeeID     uuid.UUID `gorm:"column:enrollment_fee_id;type:uuid;not null;index" json:"enrollment_fee_id"`

	EnrollmentStatus    EnrollmentStatus    `gorm:"column:enrollment_status;type:varchar(20);not null;default:'pending';index" json:"enrollment_status"`
	EnrollmentFeeStatus EnrollmentFeeStatus `gorm:"column:enrollment_fee_status;type:varchar(20);not null;default:'pending'" json:"enrollment_fee_status"`
	// disimpan untuk query roster, selalu dihitung ulang dari ledger
	EnrollmentIsActive bool `gorm:"column:enrollment_is_active;not null;default:false;index" json:"enrollment_is_active"`

	EnrollmentRegistrationDate time.Time  `gorm:"column:enrollment_registration_date;not null" json:"enrollment_registration_date"`
	EnrollmentDate             *time.Time `gorm:"column:enrollment_date" json:"enrollment_date,omitempty"`
	EnrollmentCompletionDate   *time.Time `gorm:"column:enrollment_completion_date" json:"enrollment_completion_date,omitempty"`

	EnrollmentCreatedAt time.Time `gorm:"column:enrollment_created_at;not null" json:"enrollment_created_at"`
	EnrollmentUpdatedAt time.Time `gorm:"column:enrollment_updated_at;not null" json:"enrollment_updated_at"`
}

func (EnrollmentModel) TableName() string { return "enrollments" }

func (m *EnrollmentModel) BeforeCreate(tx *gorm.DB) error {
	if m.EnrollmentID == uuid.Nil {
		m.EnrollmentID = uuid.New()
	}
	if m.EnrollmentStatus == "" {
		m.EnrollmentStatus = EnrollmentPending
	}
	if m.EnrollmentFeeStatus == "" {
		m.EnrollmentFeeStatus = EnrollmentFeePending
	}
	now := time.Now()
	if m.EnrollmentRegistrationDate.IsZero() {
		m.EnrollmentRegistrationDate = now
	}
	if m.EnrollmentCreatedAt.IsZero() {
		m.EnrollmentCreatedAt = now
	}
	m.EnrollmentUpdatedAt = now
	return nil
}

// Terminal: completed tidak pernah keluar lagi
func (m EnrollmentModel) Terminal() bool { return m.EnrollmentStatus == EnrollmentCompleted }
