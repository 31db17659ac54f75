package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StudentModel: akun murid. Roll number dimiliki di sini (student-scoped),
// diisi sekali oleh ledger saat verifikasi pembayaran pertama.
type StudentModel struct {
	StudentID        uuid.UUID `gorm:"column:student_id;type:uuid;primaryKey" json:"student_id"`
	StudentName      string    `gorm:"column:student_name;type:varchar(120);not null" json:"student_name"`
	StudentEmail     *string   `gorm:"column:student_email;type:varchar(160)" json:"student_email,omitempty"`
	StudentPhone     *string   `gorm:"column:student_phone;type:varchar(30)" json:"student_phone,omitempty"`
	StudentRollNo    *string   `gorm:"column:student_roll_no;type:varchar(20);uniqueIndex:uq_students_roll_no" json:"student_roll_no,omitempty"`
	StudentCreatedAt time.Time `gorm:"column:student_created_at;not null" json:"student_created_at"`
	StudentUpdatedAt time.Time `gorm:"column:student_updated_at;not null" json:"student_updated_at"`
}

func (StudentModel) TableName() string { return "students" }

func (m *StudentModel) BeforeCreate(tx *gorm.DB) error {
	if m.StudentID == uuid.Nil {
		m.StudentID = uuid.New()
	}
	now := time.Now()
	if m.StudentCreatedAt.IsZero() {
		m.StudentCreatedAt = now
	}
	m.StudentUpdatedAt = now
	return nil
}
