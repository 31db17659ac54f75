package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	courseModel "lms_backend/internals/features/courses/courses/model"
	feeModel "lms_backend/internals/features/finance/fees/model"
	"lms_backend/internals/features/school/enrollments/model"
	studentModel "lms_backend/internals/features/users/students/model"
	"lms_backend/internals/helpers/dbtime"
	"lms_backend/internals/helpers/errs"
)

type Service struct {
	DB  *gorm.DB
	Now func() time.Time
	Loc *time.Location
}

func New(db *gorm.DB, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{DB: db, Now: time.Now, Loc: loc}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// EnrollmentDetail: enrollment + installment dari ledger yang dirujuk
type EnrollmentDetail struct {
	Enrollment   model.EnrollmentModel          `json:"enrollment"`
	FeeID        uuid.UUID                      `json:"fee_id"`
	FeeStatus    feeModel.FeeStatus             `json:"fee_status"`
	TotalAmount  int64                          `json:"total_amount"`
	PaidAmount   int64                          `json:"paid_amount"`
	Installments []feeModel.FeeInstallmentModel `json:"installments"`
	IsActive     bool                           `json:"is_active"`
}

type CreateInput struct {
	StudentID uuid.UUID
	CourseID  uuid.UUID
	// kosong → satu cicilan seharga fee course, jatuh tempo hari pendaftaran
	Schedule []feeModel.PlannedInstallment
}

/* =========================================================
   CREATE - Fee + Installments + Enrollment dalam satu transaksi
========================================================= */

func (s *Service) CreateEnrollment(ctx context.Context, in CreateInput) (*EnrollmentDetail, error) {
	now := s.now()
	var out *EnrollmentDetail

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student studentModel.StudentModel
		if err := tx.Where("student_id = ?", in.StudentID).Take(&student).Error; err != nil {
			return errs.FromGorm(err, "student %s", in.StudentID)
		}

		var course courseModel.CourseModel
		if err := tx.Where("course_id = ?", in.CourseID).Take(&course).Error; err != nil {
			return errs.FromGorm(err, "course %s", in.CourseID)
		}
		if !course.CourseIsActive {
			return errs.InvalidState("course %s tidak aktif", in.CourseID)
		}

		var exists int64
		if err := tx.Model(&model.EnrollmentModel{}).
			Where("enrollment_student_id = ? AND enrollment_course_id = ?", in.StudentID, in.CourseID).
			Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			return errs.InvalidState("student %s sudah terdaftar di course %s", in.StudentID, in.CourseID)
		}

		plan, err := s.resolvePlan(course, in.Schedule, now)
		if err != nil {
			return err
		}

		fee := feeModel.FeeModel{
			FeeStudentID:   in.StudentID,
			FeeCourseID:    in.CourseID,
			FeeTotalAmount: feeModel.PlanTotal(plan),
			FeeStatus:      feeModel.FeeStatusPending,
		}
		if err := tx.Create(&fee).Error; err != nil {
			if errs.IsUniqueViolation(err) {
				return errs.InvalidState("fee untuk student %s course %s sudah ada", in.StudentID, in.CourseID)
			}
			return err
		}

		insts := feeModel.BuildInstallments(fee.FeeID, 1, plan)
		if err := tx.Create(&insts).Error; err != nil {
			return err
		}

		enr := model.EnrollmentModel{
			EnrollmentStudentID:        in.StudentID,
			EnrollmentCourseID:         in.CourseID,
			EnrollmentFeeID:            fee.FeeID,
			EnrollmentStatus:           model.EnrollmentPending,
			EnrollmentFeeStatus:        model.EnrollmentFeePending,
			EnrollmentRegistrationDate: student.StudentCreatedAt,
		}
		if err := tx.Create(&enr).Error; err != nil {
			if errs.IsUniqueViolation(err) {
				return errs.InvalidState("student %s sudah terdaftar di course %s", in.StudentID, in.CourseID)
			}
			return err
		}

		fee.Installments = insts
		out = buildDetail(enr, fee, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[ENROLL] ✅ student=%s course=%s fee=%s installments=%d",
		in.StudentID, in.CourseID, out.FeeID, len(out.Installments))
	return out, nil
}

func (s *Service) resolvePlan(course courseModel.CourseModel, schedule []feeModel.PlannedInstallment, now time.Time) ([]feeModel.PlannedInstallment, error) {
	if len(schedule) == 0 {
		amount, ok := course.FeeAmount()
		if !ok {
			return nil, errs.InvariantViolation("fee course %s (%q) tidak bisa dipakai sebagai harga", course.CourseID, course.CourseFee)
		}
		return []feeModel.PlannedInstallment{{Amount: amount, DueDate: dbtime.TodayUTC(now, s.Loc)}}, nil
	}

	plan := make([]feeModel.PlannedInstallment, 0, len(schedule))
	for i, p := range schedule {
		if p.Amount <= 0 {
			return nil, errs.InvariantViolation("installment #%d: amount harus > 0", i+1)
		}
		plan = append(plan, feeModel.PlannedInstallment{Amount: p.Amount, DueDate: dbtime.MidnightUTC(p.DueDate)})
	}
	return plan, nil
}

/* =========================================================
   ACTIVATION - dipanggil di dalam transaksi ledger
========================================================= */

// SyncActivation menyelaraskan enrollment milik fee dengan state ledger terbaru.
// tx harus transaksi yang sama dengan perubahan ledger.
func (s *Service) SyncActivation(ctx context.Context, tx *gorm.DB, fee feeModel.FeeModel, insts []feeModel.FeeInstallmentModel, now time.Time) (*model.EnrollmentModel, error) {
	var enr model.EnrollmentModel
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("enrollment_student_id = ? AND enrollment_course_id = ?", fee.FeeStudentID, fee.FeeCourseID).
		Take(&enr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[ENROLL] ⚠️ fee=%s tanpa enrollment, sync dilewati", fee.FeeID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tr := model.NextTransition(enr, fee.FeeStatus, insts, now)
	if !tr.Changed(enr) {
		return &enr, nil
	}

	if tr.FirstActivation {
		// guard null-check: hanya satu pemanggil yang berhasil set enrollment_date
		res := tx.Model(&model.EnrollmentModel{}).
			Where("enrollment_id = ? AND enrollment_date IS NULL", enr.EnrollmentID).
			Update("enrollment_date", now)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			if err := tx.Model(&courseModel.CourseModel{}).
				Where("course_id = ?", enr.EnrollmentCourseID).
				UpdateColumn("course_enrolled_count", gorm.Expr("course_enrolled_count + 1")).Error; err != nil {
				return nil, err
			}
			enr.EnrollmentDate = &now
			log.Printf("[ENROLL] 🎉 aktivasi pertama enrollment=%s course=%s", enr.EnrollmentID, enr.EnrollmentCourseID)
		}
	}

	if err := tx.Model(&model.EnrollmentModel{}).
		Where("enrollment_id = ?", enr.EnrollmentID).
		Updates(map[string]any{
			"enrollment_status":     tr.Status,
			"enrollment_fee_status": tr.FeeStatus,
			"enrollment_is_active":  tr.IsActive,
			"enrollment_updated_at": now,
		}).Error; err != nil {
		return nil, err
	}

	if tr.Status != enr.EnrollmentStatus {
		log.Printf("[ENROLL] enrollment=%s %s → %s (active=%v)", enr.EnrollmentID, enr.EnrollmentStatus, tr.Status, tr.IsActive)
	}
	enr.EnrollmentStatus = tr.Status
	enr.EnrollmentFeeStatus = tr.FeeStatus
	enr.EnrollmentIsActive = tr.IsActive
	enr.EnrollmentUpdatedAt = now
	return &enr, nil
}

/* =========================================================
   COMPLETE - efek penerbitan sertifikat
========================================================= */

func (s *Service) CompleteEnrollment(ctx context.Context, studentID, courseID uuid.UUID) (*model.EnrollmentModel, error) {
	var out *model.EnrollmentModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enr, err := s.CompleteInTx(ctx, tx, studentID, courseID)
		out = enr
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CompleteInTx: enrolled/suspended → completed, isActive dipaksa false
func (s *Service) CompleteInTx(ctx context.Context, tx *gorm.DB, studentID, courseID uuid.UUID) (*model.EnrollmentModel, error) {
	var enr model.EnrollmentModel
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("enrollment_student_id = ? AND enrollment_course_id = ?", studentID, courseID).
		Take(&enr).Error; err != nil {
		return nil, errs.FromGorm(err, "enrollment student %s course %s", studentID, courseID)
	}

	switch enr.EnrollmentStatus {
	case model.EnrollmentEnrolled, model.EnrollmentSuspended:
	default:
		return nil, errs.InvalidState("enrollment %s berstatus %s, tidak bisa diselesaikan", enr.EnrollmentID, enr.EnrollmentStatus)
	}

	now := s.now()
	if err := tx.Model(&model.EnrollmentModel{}).
		Where("enrollment_id = ?", enr.EnrollmentID).
		Updates(map[string]any{
			"enrollment_status":          model.EnrollmentCompleted,
			"enrollment_is_active":       false,
			"enrollment_completion_date": now,
			"enrollment_updated_at":      now,
		}).Error; err != nil {
		return nil, err
	}

	log.Printf("[ENROLL] 🎓 enrollment=%s completed", enr.EnrollmentID)
	enr.EnrollmentStatus = model.EnrollmentCompleted
	enr.EnrollmentIsActive = false
	enr.EnrollmentCompletionDate = &now
	enr.EnrollmentUpdatedAt = now
	return &enr, nil
}

/* =========================================================
   READ
========================================================= */

func (s *Service) GetEnrollment(ctx context.Context, enrollmentID uuid.UUID) (*EnrollmentDetail, error) {
	var enr model.EnrollmentModel
	if err := s.DB.WithContext(ctx).Where("enrollment_id = ?", enrollmentID).Take(&enr).Error; err != nil {
		return nil, errs.FromGorm(err, "enrollment %s", enrollmentID)
	}
	details, err := s.attachFees(ctx, []model.EnrollmentModel{enr})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (s *Service) ListCourseEnrollments(ctx context.Context, courseID uuid.UUID) ([]EnrollmentDetail, error) {
	var rows []model.EnrollmentModel
	if err := s.DB.WithContext(ctx).
		Where("enrollment_course_id = ?", courseID).
		Order("enrollment_created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return s.attachFees(ctx, rows)
}

func (s *Service) ListStudentEnrollments(ctx context.Context, studentID uuid.UUID) ([]EnrollmentDetail, error) {
	var rows []model.EnrollmentModel
	if err := s.DB.WithContext(ctx).
		Where("enrollment_student_id = ?", studentID).
		Order("enrollment_created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return s.attachFees(ctx, rows)
}

func (s *Service) attachFees(ctx context.Context, rows []model.EnrollmentModel) ([]EnrollmentDetail, error) {
	out := make([]EnrollmentDetail, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	feeIDs := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		feeIDs = append(feeIDs, r.EnrollmentFeeID)
	}

	var fees []feeModel.FeeModel
	if err := s.DB.WithContext(ctx).
		Preload("Installments", func(db *gorm.DB) *gorm.DB { return db.Order("fee_installment_seq ASC") }).
		Where("fee_id IN ?", feeIDs).
		Find(&fees).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]feeModel.FeeModel, len(fees))
	for _, f := range fees {
		byID[f.FeeID] = f
	}

	now := s.now()
	for _, r := range rows {
		out = append(out, *buildDetail(r, byID[r.EnrollmentFeeID], now))
	}
	return out, nil
}

// isActive di proyeksi selalu dihitung ulang dari ledger
func buildDetail(enr model.EnrollmentModel, fee feeModel.FeeModel, now time.Time) *EnrollmentDetail {
	insts := feeModel.SortedBySeq(fee.Installments)
	tr := model.NextTransition(enr, fee.FeeStatus, insts, now)
	return &EnrollmentDetail{
		Enrollment:   enr,
		FeeID:        fee.FeeID,
		FeeStatus:    fee.FeeStatus,
		TotalAmount:  fee.FeeTotalAmount,
		PaidAmount:   fee.FeePaidAmount,
		Installments: insts,
		IsActive:     tr.IsActive,
	}
}
