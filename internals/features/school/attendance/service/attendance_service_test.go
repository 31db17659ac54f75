package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	courseModel "lms_backend/internals/features/courses/courses/model"
	notifService "lms_backend/internals/features/home/notifications/service"
	"lms_backend/internals/features/school/attendance/model"
	enrollModel "lms_backend/internals/features/school/enrollments/model"
	"lms_backend/internals/helpers/errs"
	"lms_backend/internals/helpers/testdb"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifService.Event
}

func (r *recordingNotifier) Publish(ev notifService.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

type AttendanceSuite struct {
	suite.Suite

	db       *gorm.DB
	svc      *Service
	clock    time.Time
	notifier *recordingNotifier
	ctx      context.Context
	course   courseModel.CourseModel
}

func TestAttendanceSuite(t *testing.T) {
	suite.Run(t, new(AttendanceSuite))
}

func (s *AttendanceSuite) SetupTest() {
	s.db = testdb.Open(s.T(),
		&courseModel.CourseModel{},
		&enrollModel.EnrollmentModel{},
		&model.AttendanceDayModel{},
		&model.AttendanceRecordModel{},
		&model.HolidaySettingModel{},
	)
	s.ctx = context.Background()
	s.clock = time.Date(2026, 1, 5, 20, 0, 0, 0, time.UTC) // Senin malam
	s.notifier = &recordingNotifier{}

	s.svc = New(s.db, time.UTC)
	s.svc.Now = func() time.Time { return s.clock }
	s.svc.Notifier = s.notifier

	s.course = s.newCourse("Tahsin")
}

func (s *AttendanceSuite) newCourse(name string) courseModel.CourseModel {
	c := courseModel.CourseModel{CourseName: name, CourseFee: "3000", CourseIsActive: true}
	s.Require().NoError(s.db.Create(&c).Error)
	return c
}

// enroll: baris enrollment langsung dengan status tertentu
func (s *AttendanceSuite) enroll(courseID uuid.UUID, status enrollModel.EnrollmentStatus, active bool) uuid.UUID {
	e := enrollModel.EnrollmentModel{
		EnrollmentStudentID: uuid.New(),
		EnrollmentCourseID:  courseID,
		EnrollmentFeeID:     uuid.New(),
		EnrollmentStatus:    status,
	}
	s.Require().NoError(s.db.Create(&e).Error)
	s.Require().NoError(s.db.Model(&e).Update("enrollment_is_active", active).Error)
	return e.EnrollmentStudentID
}

func (s *AttendanceSuite) recordsByStudent(d *model.AttendanceDayModel) map[uuid.UUID]model.AttendanceRecordModel {
	out := map[uuid.UUID]model.AttendanceRecordModel{}
	for _, r := range d.Records {
		out[r.AttendanceRecordStudentID] = r
	}
	return out
}

/* =========================================================
   Auto-lock
========================================================= */

func (s *AttendanceSuite) TestScenarioD_HolidayYesterdayLocksWithoutRecords() {
	s.enroll(s.course.CourseID, enrollModel.EnrollmentEnrolled, true)
	_, err := s.svc.SetHolidays(s.ctx, []int{0})
	s.Require().NoError(err)

	// 2026-01-04 adalah hari Minggu
	s.clock = time.Date(2026, 1, 5, 0, 5, 0, 0, time.UTC)
	res := s.svc.RunAutoLock(s.ctx)
	s.Equal("2026-01-04", res.Date)
	s.Equal(1, res.Holidays)
	s.Equal(1, res.DaysCreated)
	s.Equal(0, res.AutoMarked)

	d, err := s.svc.GetAttendanceDay(s.ctx, s.course.CourseID, "2026-01-04")
	s.Require().NoError(err)
	s.True(d.AttendanceDayIsHoliday)
	s.True(d.AttendanceDayIsLocked)
	s.NotNil(d.AttendanceDayLockedAt)
	s.Empty(d.Records)

	again := s.svc.RunAutoLock(s.ctx)
	s.Equal(0, again.Holidays)
	s.Equal(1, again.Skipped)
}

func (s *AttendanceSuite) TestScenarioE_UnmarkedActiveStudentsAutoAbsent() {
	a := s.enroll(s.course.CourseID, enrollModel.EnrollmentEnrolled, true)
	b := s.enroll(s.course.CourseID, enrollModel.EnrollmentEnrolled, true)
	c := s.enroll(s.course.CourseID, enrollModel.EnrollmentEnrolled, true)
	pending := s.enroll(s.course.CourseID, enrollModel.EnrollmentPending, false)
	suspended := s.enroll(s.course.CourseID, enrollModel.EnrollmentSuspended, false)

	_, err := s.svc.MarkAttendance(s.ctx, s.course.CourseID, "2026-01-05",
		[]MarkInput{{StudentID: a, Status: model.AttendancePresent}}, "teacher-1")
	s.Require().NoError(err)

	s.clock = time.Date(2026, 1, 6, 0, 5, 0, 0, time.UTC)
	res := s.svc.RunAutoLock(s.ctx)
	s.Equal("2026-01-05", res.Date)
	s.Equal(1, res.Locked)
	s.Equal(2, res.AutoMarked)
	s.Equal(0, res.DaysCreated)
	s.Equal(0, res.Failed)

	d, err := s.svc.GetAttendanceDay(s.ctx, s.course.CourseID, "2026-01-05")
	s.Require().NoError(err)
	s.True(d.AttendanceDayIsLocked)
	s.False(d.AttendanceDayIsHoliday)
	s.Require().Len(d.Records, 3)

	recs := s.recordsByStudent(d)
	s.Equal(model.AttendancePresent, recs[a].AttendanceRecordStatus)
	s.False(recs[a].AttendanceRecordAutoMarked)
	s.Require().NotNil(recs[a].AttendanceRecordMarkedBy)
	s.Equal("teacher-1", *recs[a].AttendanceRecordMarkedBy)
	for _, id := range []uuid.UUID{b, c} {
		s.Equal(model.AttendanceAbsent, recs[id].AttendanceRecordStatus)
		s.True(recs[id].AttendanceRecordAutoMarked)
		s.Nil(recs[id].AttendanceRecordMarkedBy)
	}
	s.NotContains(recs, pending)
	s.NotContains(recs, suspended)

	// idempoten: hari yang sudah terkunci tidak berubah
	again := s.svc.RunAutoLock(s.ctx)
	s.Equal(0, again.Locked)
	s.Equal(0, again.AutoMarked)
	s.Equal(1, again.Skipped)

	d, err = s.svc.GetAttendanceDay(s.ctx, s.course.CourseID, "2026-01-05")
	s.Require().NoError(err)
	s.Len(d.Records, 3)

	s.Len(s.notifier.events, 1)
	s.Equal("attendance_locked", s.notifier.events[0].Type)
}

func (s *AttendanceSuite) TestAutoLock_CreatesMissingDaysAndIgnoresInactiveCourses() {
	s.enroll(s.course.CourseID, enrollModel.EnrollmentEnrolled, true)
	other := s.newCourse("Tajwid")
	s.enroll(other.CourseID, enrollModel.EnrollmentEnrolled, true)
	closed := s.newCourse("Closed")
	s.Require().NoError(s.db.Model(&closed).Update("course_is_active", false).Error)

	res := s.svc.LockDate(s.ctx, time.Date(2026, 1, 2, 15, 0, 0, 0, time.FixedZone("WIB", 7*3600)))
	s.Equal("2026-01-02", res.Date)
	s.Equal(2, res.Processed)
	s.Equal(2, res.DaysCreated)
	s.Equal(2, res.AutoMarked)
	s.Equal(2, res.Locked)

	_, err := s.svc.GetAttendanceDay(s.ctx, closed.CourseID, "2026-01-02")
	s.ErrorIs(err, errs.ErrNotFound)
}

/* =========================================================
   Mark attendance
========================================================= */

func (s *AttendanceSuite) TestMarkAttendance_Guards() {
	active := s.enroll(s.course.CourseID, enrollModel.EnrollmentEnrolled, true)
	inactive := s.enroll(s.course.CourseID, enrollModel.EnrollmentSuspended, false)
	present := []MarkInput{{StudentID: active, Status: model.AttendancePresent}}

	_, err := s.svc.MarkAttendance(s.ctx, s.course.CourseID, "05-01-2026", present, "t")
	s.ErrorIs(err, errs.ErrInvariantViolation)

	_, err = s.svc.MarkAttendance(s.ctx, s.course.CourseID, "2026-01-05", nil, "t")
	s.ErrorIs(err, errs.ErrInvariantViolation)

	_, err = s.svc.MarkAttendance(s.ctx, s.course.CourseID, "2026-01-05",
		[]MarkInput{{StudentID: active, Status: "late"}}, "t")
	s.ErrorIs(err, errs.ErrInvariantViolation)

	_, err = s.svc.MarkAttendance(s.ctx, s.course.CourseID, "2026-01-06", present, "t")
	s.ErrorIs(err, errs.ErrInvalidState, "besok belum boleh diisi")

	_, err = s.svc.MarkAttendance(s.ctx, uuid.New(), "2026-01-05", present, "t")
	s.ErrorIs(err, errs.ErrNotFound)

	_, err = s.svc.MarkAttendance(s.ctx, s.course.CourseID, "2026-01-05",
		[]MarkInput{{StudentID: inactive, Status: model.AttendancePresent}}, "t")
	s.ErrorIs(err, errs.ErrInvalidState)

	_, err = s.svc.SetHolidays(s.ctx, []int{1})
	s.Require().NoError(err)
	_, err = s.svc.MarkAttendance(s.ctx, s.course.CourseID, "2026-01-05", present, "t")
	s.ErrorIs(err, errs.ErrInvalidState, "senin libur")
}

func (s *AttendanceSuite) TestMarkAttendance_UpsertsAndRejectsAfterLock() {
	a := s.enroll(s.course.CourseID, enrollModel.EnrollmentEnrolled, true)

	d, err := s.svc.MarkAttendance(s.ctx, s.course.CourseID, "2026-01-05",
		[]MarkInput{{StudentID: a, Status: model.AttendanceAbsent}}, "t1")
	s.Require().NoError(err)
	s.Require().Len(d.Records, 1)

	d, err = s.svc.MarkAttendance(s.ctx, s.course.CourseID, "2026-01-05",
		[]MarkInput{{StudentID: a, Status: model.AttendancePresent}}, "t2")
	s.Require().NoError(err)
	s.Require().Len(d.Records, 1)
	s.Equal(model.AttendancePresent, d.Records[0].AttendanceRecordStatus)
	s.Equal("t2", *d.Records[0].AttendanceRecordMarkedBy)

	s.svc.LockDate(s.ctx, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	_, err = s.svc.MarkAttendance(s.ctx, s.course.CourseID, "2026-01-05",
		[]MarkInput{{StudentID: a, Status: model.AttendanceAbsent}}, "t3")
	s.ErrorIs(err, errs.ErrInvalidState)
}

/* =========================================================
   Report & holidays
========================================================= */

func (s *AttendanceSuite) TestAttendanceReport() {
	a := s.enroll(s.course.CourseID, enrollModel.EnrollmentEnrolled, true)
	b := s.enroll(s.course.CourseID, enrollModel.EnrollmentEnrolled, true)

	_, err := s.svc.MarkAttendance(s.ctx, s.course.CourseID, "2026-01-05",
		[]MarkInput{{StudentID: a, Status: model.AttendancePresent}, {StudentID: b, Status: model.AttendanceAbsent}}, "t")
	s.Require().NoError(err)
	s.svc.LockDate(s.ctx, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	s.svc.LockDate(s.ctx, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))

	_, err = s.svc.SetHolidays(s.ctx, []int{6})
	s.Require().NoError(err)
	s.svc.LockDate(s.ctx, time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)) // Sabtu

	rep, err := s.svc.GetAttendanceReport(s.ctx, s.course.CourseID)
	s.Require().NoError(err)
	s.Equal(3, rep.Days)
	s.Equal(2, rep.InstructionalDays)
	s.Equal(1, rep.HolidayDays)
	s.Equal(3, rep.LockedDays)
	s.Equal("2026-01-02", *rep.From)
	s.Equal("2026-01-05", *rep.To)

	sums := map[uuid.UUID]StudentAttendanceSummary{}
	for _, r := range rep.Students {
		sums[r.StudentID] = r
	}
	s.Equal(StudentAttendanceSummary{StudentID: a, Present: 1, Absent: 1, AutoAbsent: 1, Total: 2}, sums[a])
	s.Equal(StudentAttendanceSummary{StudentID: b, Present: 0, Absent: 2, AutoAbsent: 1, Total: 2}, sums[b])

	_, err = s.svc.GetAttendanceReport(s.ctx, uuid.New())
	s.ErrorIs(err, errs.ErrNotFound)
}

func (s *AttendanceSuite) TestHolidays() {
	days, err := s.svc.GetHolidays(s.ctx)
	s.Require().NoError(err)
	s.Empty(days)

	days, err = s.svc.SetHolidays(s.ctx, []int{6, 0, 6})
	s.Require().NoError(err)
	s.Equal([]int{0, 6}, days)

	days, err = s.svc.SetHolidays(s.ctx, []int{5})
	s.Require().NoError(err)
	got, err := s.svc.GetHolidays(s.ctx)
	s.Require().NoError(err)
	s.Equal([]int{5}, got)
	s.Equal(days, got)

	_, err = s.svc.SetHolidays(s.ctx, []int{7})
	s.ErrorIs(err, errs.ErrInvariantViolation)
}
