package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lms_backend/internals/features/certificates/user_certificates/model"
	enrollModel "lms_backend/internals/features/school/enrollments/model"
	"lms_backend/internals/helpers/errs"
	"lms_backend/internals/helpers/testdb"
)

type fakeCompleter struct {
	completed map[uuid.UUID]bool
}

func (f *fakeCompleter) CompleteInTx(ctx context.Context, tx *gorm.DB, studentID, courseID uuid.UUID) (*enrollModel.EnrollmentModel, error) {
	if f.completed[courseID] {
		return nil, errs.InvalidState("sudah completed")
	}
	f.completed[courseID] = true
	return &enrollModel.EnrollmentModel{
		EnrollmentStudentID: studentID,
		EnrollmentCourseID:  courseID,
		EnrollmentStatus:    enrollModel.EnrollmentCompleted,
	}, nil
}

func TestIssue_CreatesCertificateAndCompletes(t *testing.T) {
	db := testdb.Open(t, &model.UserCertificate{})
	svc := New(db, &fakeCompleter{completed: map[uuid.UUID]bool{}})
	ctx := context.Background()
	student, course := uuid.New(), uuid.New()

	res, err := svc.Issue(ctx, student, course, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, enrollModel.EnrollmentCompleted, res.Enrollment.EnrollmentStatus)
	assert.NotEmpty(t, res.Certificate.UserCertSlugURL)
	assert.Equal(t, "admin-1", res.Certificate.UserCertIssuedBy)

	ok, err := HasCertificate(ctx, db, student, course)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = HasCertificate(ctx, db, student, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Issue(ctx, student, course, "admin-1")
	assert.ErrorIs(t, err, errs.ErrInvalidState)

	list, err := svc.ListStudentCertificates(ctx, student)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestIssue_CompletionFailureLeavesNoCertificate(t *testing.T) {
	db := testdb.Open(t, &model.UserCertificate{})
	course := uuid.New()
	svc := New(db, &fakeCompleter{completed: map[uuid.UUID]bool{course: true}})

	_, err := svc.Issue(context.Background(), uuid.New(), course, "admin")
	assert.ErrorIs(t, err, errs.ErrInvalidState)

	var n int64
	require.NoError(t, db.Model(&model.UserCertificate{}).Count(&n).Error)
	assert.Zero(t, n)
}
