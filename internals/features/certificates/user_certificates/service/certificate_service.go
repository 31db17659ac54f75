package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lms_backend/internals/features/certificates/user_certificates/model"
	enrollModel "lms_backend/internals/features/school/enrollments/model"
	"lms_backend/internals/helpers/errs"
)

// HasCertificate dipakai generator cicilan (enrollment bersertifikat tidak ditagih lagi)
func HasCertificate(ctx context.Context, db *gorm.DB, studentID, courseID uuid.UUID) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&model.UserCertificate{}).
		Where("user_cert_student_id = ? AND user_cert_course_id = ?", studentID, courseID).
		Count(&n).Error
	return n > 0, err
}

// Completer: bagian enrollment service yang dipakai saat sertifikat terbit
type Completer interface {
	CompleteInTx(ctx context.Context, tx *gorm.DB, studentID, courseID uuid.UUID) (*enrollModel.EnrollmentModel, error)
}

type Service struct {
	DB          *gorm.DB
	Enrollments Completer
	Now         func() time.Time
}

func New(db *gorm.DB, enrollments Completer) *Service {
	return &Service{DB: db, Enrollments: enrollments, Now: time.Now}
}

type IssueResult struct {
	Certificate model.UserCertificate       `json:"certificate"`
	Enrollment  enrollModel.EnrollmentModel `json:"enrollment"`
}

// Issue: buat sertifikat + enrollment → completed, satu transaksi
func (s *Service) Issue(ctx context.Context, studentID, courseID uuid.UUID, issuerID string) (*IssueResult, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	var out IssueResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enr, err := s.Enrollments.CompleteInTx(ctx, tx, studentID, courseID)
		if err != nil {
			return err
		}

		cert := model.UserCertificate{
			UserCertStudentID: studentID,
			UserCertCourseID:  courseID,
			UserCertIssuedBy:  issuerID,
			UserCertIssuedAt:  now,
		}
		if err := tx.Create(&cert).Error; err != nil {
			if errs.IsUniqueViolation(err) {
				return errs.InvalidState("sertifikat student %s course %s sudah ada", studentID, courseID)
			}
			return err
		}

		out = IssueResult{Certificate: cert, Enrollment: *enr}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[CERT] 🎓 issued cert=%s student=%s course=%s", out.Certificate.UserCertID, studentID, courseID)
	return &out, nil
}

func (s *Service) ListStudentCertificates(ctx context.Context, studentID uuid.UUID) ([]model.UserCertificate, error) {
	var rows []model.UserCertificate
	err := s.DB.WithContext(ctx).
		Where("user_cert_student_id = ?", studentID).
		Order("user_cert_issued_at DESC").
		Find(&rows).Error
	return rows, err
}
