package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	courseModel "lms_backend/internals/features/courses/courses/model"
	feeModel "lms_backend/internals/features/finance/fees/model"
	"lms_backend/internals/features/school/enrollments/model"
	studentModel "lms_backend/internals/features/users/students/model"
	"lms_backend/internals/helpers/errs"
	"lms_backend/internals/helpers/testdb"
)

type fixture struct {
	db      *gorm.DB
	svc     *Service
	now     time.Time
	student studentModel.StudentModel
	course  courseModel.CourseModel
}

func newFixture(t *testing.T, fee string) *fixture {
	t.Helper()
	db := testdb.Open(t,
		&studentModel.StudentModel{},
		&courseModel.CourseModel{},
		&feeModel.FeeModel{},
		&feeModel.FeeInstallmentModel{},
		&model.EnrollmentModel{},
	)
	f := &fixture{db: db, now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	f.svc = New(db, time.UTC)
	f.svc.Now = func() time.Time { return f.now }

	f.student = studentModel.StudentModel{StudentName: "Ani", StudentCreatedAt: time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, db.Create(&f.student).Error)
	f.course = courseModel.CourseModel{CourseName: "Tahsin", CourseFee: fee, CourseIsActive: true}
	require.NoError(t, db.Create(&f.course).Error)
	return f
}

// verify: ubah installment jadi verified + sync, seperti yang dilakukan ledger
func (f *fixture) verify(t *testing.T, feeID, instID uuid.UUID) *model.EnrollmentModel {
	t.Helper()
	var out *model.EnrollmentModel
	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&feeModel.FeeInstallmentModel{}).
			Where("fee_installment_id = ?", instID).
			Update("fee_installment_status", feeModel.InstallmentVerified).Error; err != nil {
			return err
		}
		var fee feeModel.FeeModel
		if err := tx.Preload("Installments").Where("fee_id = ?", feeID).Take(&fee).Error; err != nil {
			return err
		}
		fee.FeePaidAmount = feeModel.PaidAmount(fee.Installments)
		fee.FeeStatus = feeModel.DeriveFeeStatus(fee.FeeTotalAmount, fee.FeePaidAmount)
		if err := tx.Model(&fee).Updates(map[string]any{
			"fee_paid_amount": fee.FeePaidAmount,
			"fee_status":      fee.FeeStatus,
		}).Error; err != nil {
			return err
		}
		var err error
		out, err = f.svc.SyncActivation(context.Background(), tx, fee, fee.Installments, f.now)
		return err
	})
	require.NoError(t, err)
	return out
}

func TestCreateEnrollment_DefaultPlanFromCourseFee(t *testing.T) {
	f := newFixture(t, "Rp 3.000")

	d, err := f.svc.CreateEnrollment(context.Background(), CreateInput{StudentID: f.student.StudentID, CourseID: f.course.CourseID})
	require.NoError(t, err)

	assert.Equal(t, model.EnrollmentPending, d.Enrollment.EnrollmentStatus)
	assert.False(t, d.IsActive)
	assert.Nil(t, d.Enrollment.EnrollmentDate)
	assert.True(t, f.student.StudentCreatedAt.Equal(d.Enrollment.EnrollmentRegistrationDate))
	require.Len(t, d.Installments, 1)
	assert.Equal(t, int64(3000), d.Installments[0].FeeInstallmentAmount)
	assert.Equal(t, 1, d.Installments[0].FeeInstallmentSeq)
	assert.True(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC).Equal(d.Installments[0].FeeInstallmentDueDate))
	assert.Equal(t, int64(3000), d.TotalAmount)
	assert.Equal(t, feeModel.FeeStatusPending, d.FeeStatus)
}

func TestCreateEnrollment_Guards(t *testing.T) {
	f := newFixture(t, "3000")
	ctx := context.Background()

	_, err := f.svc.CreateEnrollment(ctx, CreateInput{StudentID: uuid.New(), CourseID: f.course.CourseID})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.svc.CreateEnrollment(ctx, CreateInput{StudentID: f.student.StudentID, CourseID: uuid.New()})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.svc.CreateEnrollment(ctx, CreateInput{
		StudentID: f.student.StudentID,
		CourseID:  f.course.CourseID,
		Schedule:  []feeModel.PlannedInstallment{{Amount: 0, DueDate: f.now}},
	})
	assert.ErrorIs(t, err, errs.ErrInvariantViolation)

	_, err = f.svc.CreateEnrollment(ctx, CreateInput{StudentID: f.student.StudentID, CourseID: f.course.CourseID})
	require.NoError(t, err)
	_, err = f.svc.CreateEnrollment(ctx, CreateInput{StudentID: f.student.StudentID, CourseID: f.course.CourseID})
	assert.ErrorIs(t, err, errs.ErrInvalidState)

	var fees int64
	require.NoError(t, f.db.Model(&feeModel.FeeModel{}).Count(&fees).Error)
	assert.Equal(t, int64(1), fees)
}

func TestCreateEnrollment_InactiveCourseAndBadFee(t *testing.T) {
	f := newFixture(t, "gratis")
	ctx := context.Background()

	_, err := f.svc.CreateEnrollment(ctx, CreateInput{StudentID: f.student.StudentID, CourseID: f.course.CourseID})
	assert.ErrorIs(t, err, errs.ErrInvariantViolation)

	// harga eksplisit tetap bisa walau fee course tidak valid
	_, err = f.svc.CreateEnrollment(ctx, CreateInput{
		StudentID: f.student.StudentID,
		CourseID:  f.course.CourseID,
		Schedule:  []feeModel.PlannedInstallment{{Amount: 1500, DueDate: f.now}},
	})
	require.NoError(t, err)

	closed := courseModel.CourseModel{CourseName: "Closed", CourseFee: "1000", CourseIsActive: true}
	require.NoError(t, f.db.Create(&closed).Error)
	require.NoError(t, f.db.Model(&closed).Update("course_is_active", false).Error)
	_, err = f.svc.CreateEnrollment(ctx, CreateInput{StudentID: f.student.StudentID, CourseID: closed.CourseID})
	assert.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestSyncActivation_FirstVerifiedEnrollsAndCountsOnce(t *testing.T) {
	f := newFixture(t, "3000")
	d, err := f.svc.CreateEnrollment(context.Background(), CreateInput{
		StudentID: f.student.StudentID,
		CourseID:  f.course.CourseID,
		Schedule: []feeModel.PlannedInstallment{
			{Amount: 1000, DueDate: f.now},
			{Amount: 2000, DueDate: f.now.AddDate(0, 1, 0)},
		},
	})
	require.NoError(t, err)

	enr := f.verify(t, d.FeeID, d.Installments[0].FeeInstallmentID)
	require.NotNil(t, enr)
	assert.Equal(t, model.EnrollmentEnrolled, enr.EnrollmentStatus)
	assert.Equal(t, model.EnrollmentFeePartial, enr.EnrollmentFeeStatus)
	assert.True(t, enr.EnrollmentIsActive)
	require.NotNil(t, enr.EnrollmentDate)

	f.verify(t, d.FeeID, d.Installments[1].FeeInstallmentID)

	var course courseModel.CourseModel
	require.NoError(t, f.db.Where("course_id = ?", f.course.CourseID).Take(&course).Error)
	assert.Equal(t, 1, course.CourseEnrolledCount)

	got, err := f.svc.GetEnrollment(context.Background(), d.Enrollment.EnrollmentID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentFeeVerified, got.Enrollment.EnrollmentFeeStatus)
	assert.Equal(t, int64(3000), got.PaidAmount)
	assert.True(t, got.IsActive)
}

func TestSyncActivation_MissingEnrollmentIsIgnored(t *testing.T) {
	f := newFixture(t, "3000")
	fee := feeModel.FeeModel{FeeStudentID: uuid.New(), FeeCourseID: uuid.New()}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		enr, err := f.svc.SyncActivation(context.Background(), tx, fee, nil, f.now)
		assert.Nil(t, enr)
		return err
	})
	assert.NoError(t, err)
}

func TestReadProjection_RecomputesIsActive(t *testing.T) {
	f := newFixture(t, "3000")
	d, err := f.svc.CreateEnrollment(context.Background(), CreateInput{
		StudentID: f.student.StudentID,
		CourseID:  f.course.CourseID,
		Schedule: []feeModel.PlannedInstallment{
			{Amount: 1000, DueDate: f.now},
			{Amount: 2000, DueDate: f.now.AddDate(0, 0, 3)},
		},
	})
	require.NoError(t, err)
	f.verify(t, d.FeeID, d.Installments[0].FeeInstallmentID)

	// belum ada sweep, tapi cicilan #2 sudah lewat grace
	f.now = f.now.AddDate(0, 0, 11)
	list, err := f.svc.ListStudentEnrollments(context.Background(), f.student.StudentID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Enrollment.EnrollmentIsActive)
	assert.False(t, list[0].IsActive)

	byCourse, err := f.svc.ListCourseEnrollments(context.Background(), f.course.CourseID)
	require.NoError(t, err)
	assert.Len(t, byCourse, 1)
}

func TestCompleteEnrollment(t *testing.T) {
	f := newFixture(t, "3000")
	ctx := context.Background()
	d, err := f.svc.CreateEnrollment(ctx, CreateInput{StudentID: f.student.StudentID, CourseID: f.course.CourseID})
	require.NoError(t, err)

	_, err = f.svc.CompleteEnrollment(ctx, f.student.StudentID, f.course.CourseID)
	assert.ErrorIs(t, err, errs.ErrInvalidState)

	f.verify(t, d.FeeID, d.Installments[0].FeeInstallmentID)

	enr, err := f.svc.CompleteEnrollment(ctx, f.student.StudentID, f.course.CourseID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentCompleted, enr.EnrollmentStatus)
	assert.False(t, enr.EnrollmentIsActive)
	assert.NotNil(t, enr.EnrollmentCompletionDate)

	_, err = f.svc.CompleteEnrollment(ctx, f.student.StudentID, f.course.CourseID)
	assert.ErrorIs(t, err, errs.ErrInvalidState)

	_, err = f.svc.CompleteEnrollment(ctx, uuid.New(), f.course.CourseID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
