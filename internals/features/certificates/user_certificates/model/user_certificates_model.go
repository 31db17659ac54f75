package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserCertificate: bukti kelulusan course. Keberadaannya menghentikan
// penagihan cicilan berikutnya untuk (student, course) tersebut.
type UserCertificate struct {
	UserCertID        uuid.UUID `json:"user_cert_id" gorm:"column:user_cert_id;type:uuid;primaryKey"`
	UserCertStudentID uuid.UUID `json:"user_cert_student_id" gorm:"column:user_cert_student_id;type:uuid;not null;uniqueIndex:uq_user_cert_student_course,priority:1"`
	UserCertCourseID  uuid.UUID `json:"user_cert_course_id" gorm:"column:user_cert_course_id;type:uuid;not null;uniqueIndex:uq_user_cert_student_course,priority:2"`
	UserCertSlugURL   string    `json:"user_cert_slug_url" gorm:"column:user_cert_slug_url;type:varchar(80);uniqueIndex;not null"`
	UserCertIssuedBy  string    `json:"user_cert_issued_by" gorm:"column:user_cert_issued_by;type:varchar(64)"`
	UserCertIssuedAt  time.Time `json:"user_cert_issued_at" gorm:"column:user_cert_issued_at;not null"`
	CreatedAt         time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (UserCertificate) TableName() string {
	return "user_certificates"
}

func (m *UserCertificate) BeforeCreate(tx *gorm.DB) error {
	if m.UserCertID == uuid.Nil {
		m.UserCertID = uuid.New()
	}
	if m.UserCertSlugURL == "" {
		m.UserCertSlugURL = "cert-" + m.UserCertID.String()[:8] + "-" + m.UserCertIssuedAt.Format("20060102")
	}
	return nil
}
