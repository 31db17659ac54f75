package seeds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	database "lms_backend/internals/databases"
	courseModel "lms_backend/internals/features/courses/courses/model"
	attModel "lms_backend/internals/features/school/attendance/model"
	studentModel "lms_backend/internals/features/users/students/model"
	"lms_backend/internals/helpers/testdb"
)

func TestRunAllSeeds_Idempotent(t *testing.T) {
	db := testdb.Open(t, database.Models()...)

	RunAllSeeds(db, "data")
	RunAllSeeds(db, "data")

	var students, courses int64
	require.NoError(t, db.Model(&studentModel.StudentModel{}).Count(&students).Error)
	require.NoError(t, db.Model(&courseModel.CourseModel{}).Count(&courses).Error)
	assert.EqualValues(t, 3, students)
	assert.EqualValues(t, 3, courses)

	var h attModel.HolidaySettingModel
	require.NoError(t, db.Take(&h, "holiday_setting_id = ?", attModel.HolidaySettingSingletonID).Error)
	assert.Equal(t, []int{0}, []int(h.HolidaySettingDays))
}
