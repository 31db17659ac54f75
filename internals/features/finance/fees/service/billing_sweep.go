package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	certService "lms_backend/internals/features/certificates/user_certificates/service"
	courseModel "lms_backend/internals/features/courses/courses/model"
	"lms_backend/internals/features/finance/fees/model"
	enrollModel "lms_backend/internals/features/school/enrollments/model"
	"lms_backend/internals/helpers/dbtime"
	"lms_backend/internals/helpers/errs"
	"lms_backend/internals/helpers/sweep"
)

const (
	JobInstallmentGenerator = "installment-generator"
	JobOverdueEvaluator     = "overdue-evaluator"
)

type BillingSweepResult struct {
	Generator sweep.Result `json:"generator"`
	Overdue   sweep.Result `json:"overdue"`
}

// RunBillingSweep: generator lalu evaluator. Titik masuk tunggal untuk cron,
// catch-up saat start, dan trigger manual admin.
func (s *LedgerService) RunBillingSweep(ctx context.Context) BillingSweepResult {
	out := BillingSweepResult{
		Generator: s.RunInstallmentGenerator(ctx),
		Overdue:   s.RunOverdueSweep(ctx),
	}
	log.Printf("[BILLING] %s", out.Generator)
	log.Printf("[BILLING] %s", out.Overdue)
	return out
}

/* =========================================================
   INSTALLMENT GENERATOR
========================================================= */

// RunInstallmentGenerator menambah cicilan untuk fee yang cicilan pertamanya verified
// dan jatuh tempo terakhirnya > 30 hari lalu. Fee bersertifikat atau enrollment completed dilewati. Kelayakan dihitung ulang di bawah lock
// sehingga dua run di hari yang sama tidak menggandakan cicilan.
func (s *LedgerService) RunInstallmentGenerator(ctx context.Context) sweep.Result {
	var fees []model.FeeModel
	if err := s.DB.WithContext(ctx).
		Preload("Installments").
		Order("fee_created_at ASC").
		Find(&fees).Error; err != nil {
		log.Printf("[BILLING] ❌ gagal load fee: %v", err)
		return failedResult(JobInstallmentGenerator, err)
	}

	now := s.now()
	return sweep.Run(ctx, JobInstallmentGenerator, fees,
		func(f model.FeeModel) string { return f.FeeID.String() },
		func(ctx context.Context, f model.FeeModel) (sweep.Outcome, error) {
			if !model.NeedsNextInstallment(f.Installments, now) {
				return sweep.Unchanged, nil
			}
			return s.generateNext(ctx, f, now)
		})
}

func (s *LedgerService) generateNext(ctx context.Context, snapshot model.FeeModel, now time.Time) (sweep.Outcome, error) {
	certified, err := certService.HasCertificate(ctx, s.DB, snapshot.FeeStudentID, snapshot.FeeCourseID)
	if err != nil {
		return sweep.Unchanged, err
	}
	if certified {
		return sweep.Skipped, nil
	}

	outcome := sweep.Unchanged
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fee, err := s.loadFee(ctx, tx, snapshot.FeeID, true)
		if err != nil {
			return err
		}
		insts, err := s.listInstallments(ctx, tx, fee.FeeID)
		if err != nil {
			return err
		}
		if !model.NeedsNextInstallment(insts, now) {
			return nil
		}
		// enrollment completed tidak ditagih lagi
		completed, err := enrollmentCompleted(ctx, tx, fee.FeeStudentID, fee.FeeCourseID)
		if err != nil {
			return err
		}
		if completed {
			outcome = sweep.Skipped
			return nil
		}

		amount, err := s.nextInstallmentAmount(ctx, tx, fee.FeeCourseID, insts)
		if err != nil {
			return err
		}

		due := dbtime.TodayUTC(now, s.Loc).Add(model.NextInstallmentDueIn)
		rows := model.BuildInstallments(fee.FeeID, model.LastSeq(insts)+1,
			[]model.PlannedInstallment{{Amount: amount, DueDate: due}})
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}

		insts, err = s.recomputeFee(ctx, tx, fee, now)
		if err != nil {
			return err
		}
		if s.Enrollments != nil {
			if _, err := s.Enrollments.SyncActivation(ctx, tx, *fee, insts, now); err != nil {
				return err
			}
		}

		log.Printf("[BILLING] ➕ fee=%s seq=%d amount=%d due=%s",
			fee.FeeID, rows[0].FeeInstallmentSeq, amount, dbtime.FormatDate(due))
		outcome = sweep.Changed
		return nil
	})
	return outcome, err
}

func enrollmentCompleted(ctx context.Context, tx *gorm.DB, studentID, courseID uuid.UUID) (bool, error) {
	var n int64
	err := tx.WithContext(ctx).Model(&enrollModel.EnrollmentModel{}).
		Where("enrollment_student_id = ? AND enrollment_course_id = ? AND enrollment_status = ?",
			studentID, courseID, enrollModel.EnrollmentCompleted).
		Count(&n).Error
	return n > 0, err
}

// harga dari fee course saat ini, fallback amount cicilan pertama
func (s *LedgerService) nextInstallmentAmount(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, insts []model.FeeInstallmentModel) (int64, error) {
	var course courseModel.CourseModel
	err := tx.WithContext(ctx).Where("course_id = ?", courseID).Take(&course).Error
	if err == nil {
		if amount, ok := course.FeeAmount(); ok {
			return amount, nil
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	if amount := model.FirstAmount(insts); amount > 0 {
		return amount, nil
	}
	return 0, errs.InvariantViolation("tidak ada harga untuk cicilan berikutnya (course %s)", courseID)
}

/* =========================================================
   OVERDUE EVALUATOR
========================================================= */

// RunOverdueSweep memeriksa setiap enrollment aktif. Cicilan unverified yang
// lewat > 7 hari ditandai overdue, lalu state machine enrollment dijalankan.
func (s *LedgerService) RunOverdueSweep(ctx context.Context) sweep.Result {
	var enrollments []enrollModel.EnrollmentModel
	if err := s.DB.WithContext(ctx).
		Where("enrollment_is_active = ? AND enrollment_status = ?", true, enrollModel.EnrollmentEnrolled).
		Order("enrollment_created_at ASC").
		Find(&enrollments).Error; err != nil {
		log.Printf("[OVERDUE] ❌ gagal load enrollment: %v", err)
		return failedResult(JobOverdueEvaluator, err)
	}

	now := s.now()
	return sweep.Run(ctx, JobOverdueEvaluator, enrollments,
		func(e enrollModel.EnrollmentModel) string { return e.EnrollmentID.String() },
		func(ctx context.Context, e enrollModel.EnrollmentModel) (sweep.Outcome, error) {
			return s.evaluateOverdue(ctx, e, now)
		})
}

func (s *LedgerService) evaluateOverdue(ctx context.Context, enr enrollModel.EnrollmentModel, now time.Time) (sweep.Outcome, error) {
	outcome := sweep.Unchanged
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fee, err := s.loadFee(ctx, tx, enr.EnrollmentFeeID, true)
		if err != nil {
			return err
		}
		insts, err := s.listInstallments(ctx, tx, fee.FeeID)
		if err != nil {
			return err
		}

		marked := 0
		for _, it := range insts {
			if it.FeeInstallmentStatus == model.InstallmentOverdue || !model.IsOverdue(it, now) {
				continue
			}
			res := tx.Model(&model.FeeInstallmentModel{}).
				Where("fee_installment_id = ? AND fee_installment_status IN ?", it.FeeInstallmentID, model.OverdueCandidateStatuses).
				Updates(map[string]any{
					"fee_installment_status":     model.InstallmentOverdue,
					"fee_installment_updated_at": now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				marked++
				log.Printf("[OVERDUE] ⏰ fee=%s seq=%d due=%s", fee.FeeID, it.FeeInstallmentSeq, dbtime.FormatDate(it.FeeInstallmentDueDate))
			}
		}

		if marked > 0 {
			if insts, err = s.recomputeFee(ctx, tx, fee, now); err != nil {
				return err
			}
		}

		if s.Enrollments != nil {
			synced, err := s.Enrollments.SyncActivation(ctx, tx, *fee, insts, now)
			if err != nil {
				return err
			}
			if synced != nil && synced.EnrollmentStatus != enr.EnrollmentStatus {
				marked++
			}
		}

		if marked > 0 {
			outcome = sweep.Changed
		}
		return nil
	})
	return outcome, err
}

func failedResult(job string, err error) sweep.Result {
	now := time.Now()
	return sweep.Result{
		Job:        job,
		Failed:     1,
		Errors:     []sweep.ItemError{{Key: "load", Error: err.Error()}},
		StartedAt:  now,
		FinishedAt: now,
	}
}
