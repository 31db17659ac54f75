package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	courseModel "lms_backend/internals/features/courses/courses/model"
	notifService "lms_backend/internals/features/home/notifications/service"
	"lms_backend/internals/features/school/attendance/model"
	enrollModel "lms_backend/internals/features/school/enrollments/model"
	"lms_backend/internals/helpers/dbtime"
	"lms_backend/internals/helpers/errs"
)

type Service struct {
	DB       *gorm.DB
	Notifier notifService.Notifier // nil = tanpa notifikasi
	Loc      *time.Location
	Now      func() time.Time
}

func New(db *gorm.DB, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{DB: db, Loc: loc, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

type MarkInput struct {
	StudentID uuid.UUID
	Status    model.AttendanceStatus
}

/* =========================================================
   MARK - guru/admin mengisi absensi
========================================================= */

// MarkAttendance: day dibuat kalau belum ada; ditolak kalau locked, libur, atau tanggal masa depan.
// Record di-upsert per student (autoMarked=false, markedBy=actor).
func (s *Service) MarkAttendance(ctx context.Context, courseID uuid.UUID, date string, records []MarkInput, actorID string) (*model.AttendanceDayModel, error) {
	day, err := dbtime.ParseDateUTC(date)
	if err != nil {
		return nil, errs.InvariantViolation("tanggal %q harus YYYY-MM-DD", date)
	}
	if len(records) == 0 {
		return nil, errs.InvariantViolation("records tidak boleh kosong")
	}

	// satu baris per student, input terakhir yang dipakai
	byStudent := make(map[uuid.UUID]model.AttendanceStatus, len(records))
	order := make([]uuid.UUID, 0, len(records))
	for _, r := range records {
		if !r.Status.Valid() {
			return nil, errs.InvariantViolation("status %q tidak dikenal", r.Status)
		}
		if _, seen := byStudent[r.StudentID]; !seen {
			order = append(order, r.StudentID)
		}
		byStudent[r.StudentID] = r.Status
	}

	now := s.now()
	if day.After(dbtime.TodayUTC(now, s.Loc)) {
		return nil, errs.InvalidState("tanggal %s belum terjadi", dbtime.FormatDate(day))
	}

	var markedBy *string
	if a := strings.TrimSpace(actorID); a != "" {
		markedBy = &a
	}

	var dayID uuid.UUID
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireCourse(ctx, tx, courseID); err != nil {
			return err
		}

		holidays, err := s.loadHolidays(ctx, tx)
		if err != nil {
			return err
		}
		if model.IsHoliday(holidays, day.Weekday()) {
			return errs.InvalidState("%s adalah hari libur", dbtime.FormatDate(day))
		}

		d, _, err := s.findOrCreateDay(ctx, tx, courseID, day)
		if err != nil {
			return err
		}
		if d.AttendanceDayIsLocked {
			return errs.InvalidState("absensi %s sudah dikunci", dbtime.FormatDate(day))
		}
		if d.AttendanceDayIsHoliday {
			return errs.InvalidState("%s adalah hari libur", dbtime.FormatDate(day))
		}

		roster, err := activeRoster(ctx, tx, courseID)
		if err != nil {
			return err
		}
		active := make(map[uuid.UUID]struct{}, len(roster))
		for _, id := range roster {
			active[id] = struct{}{}
		}

		rows := make([]model.AttendanceRecordModel, 0, len(order))
		for _, sid := range order {
			if _, ok := active[sid]; !ok {
				return errs.InvalidState("student %s tidak aktif di course %s", sid, courseID)
			}
			rows = append(rows, model.AttendanceRecordModel{
				AttendanceRecordDayID:     d.AttendanceDayID,
				AttendanceRecordStudentID: sid,
				AttendanceRecordStatus:    byStudent[sid],
				AttendanceRecordMarkedBy:  markedBy,
				AttendanceRecordMarkedAt:  now,
			})
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "attendance_record_day_id"}, {Name: "attendance_record_student_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"attendance_record_status",
				"attendance_record_marked_by",
				"attendance_record_marked_at",
				"attendance_record_auto_marked",
				"attendance_record_updated_at",
			}),
		}).Create(&rows).Error; err != nil {
			return err
		}

		dayID = d.AttendanceDayID
		return tx.Model(&model.AttendanceDayModel{}).
			Where("attendance_day_id = ?", dayID).
			Update("attendance_day_updated_at", now).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[ATTENDANCE] ✍️ course=%s date=%s records=%d by=%s", courseID, dbtime.FormatDate(day), len(order), actorID)
	return s.loadDay(ctx, s.DB, dayID)
}

/* =========================================================
   READ
========================================================= */

func (s *Service) GetAttendanceDay(ctx context.Context, courseID uuid.UUID, date string) (*model.AttendanceDayModel, error) {
	day, err := dbtime.ParseDateUTC(date)
	if err != nil {
		return nil, errs.InvariantViolation("tanggal %q harus YYYY-MM-DD", date)
	}

	var d model.AttendanceDayModel
	if err := s.DB.WithContext(ctx).
		Where("attendance_day_course_id = ? AND attendance_day_date = ?", courseID, day).
		Take(&d).Error; err != nil {
		return nil, errs.FromGorm(err, "absensi course %s tanggal %s", courseID, date)
	}
	return s.loadDay(ctx, s.DB, d.AttendanceDayID)
}

type StudentAttendanceSummary struct {
	StudentID  uuid.UUID `json:"student_id"`
	Present    int       `json:"present"`
	Absent     int       `json:"absent"`
	AutoAbsent int       `json:"auto_absent"`
	Total      int       `json:"total"`
}

type AttendanceReport struct {
	CourseID          uuid.UUID                  `json:"course_id"`
	Days              int                        `json:"days"`
	InstructionalDays int                        `json:"instructional_days"`
	HolidayDays       int                        `json:"holiday_days"`
	LockedDays        int                        `json:"locked_days"`
	From              *string                    `json:"from,omitempty"`
	To                *string                    `json:"to,omitempty"`
	Students          []StudentAttendanceSummary `json:"students"`
}

// GetAttendanceReport: rekap per student untuk seluruh hari course.
// Student aktif tanpa record tetap muncul dengan hitungan nol.
func (s *Service) GetAttendanceReport(ctx context.Context, courseID uuid.UUID) (*AttendanceReport, error) {
	db := s.DB.WithContext(ctx)
	if err := s.requireCourse(ctx, db, courseID); err != nil {
		return nil, err
	}

	var days []model.AttendanceDayModel
	if err := db.Preload("Records").
		Where("attendance_day_course_id = ?", courseID).
		Order("attendance_day_date ASC").
		Find(&days).Error; err != nil {
		return nil, err
	}

	rep := &AttendanceReport{CourseID: courseID, Days: len(days)}
	summaries := map[uuid.UUID]*StudentAttendanceSummary{}
	get := func(id uuid.UUID) *StudentAttendanceSummary {
		sum, ok := summaries[id]
		if !ok {
			sum = &StudentAttendanceSummary{StudentID: id}
			summaries[id] = sum
		}
		return sum
	}

	for _, d := range days {
		if d.AttendanceDayIsLocked {
			rep.LockedDays++
		}
		if d.AttendanceDayIsHoliday {
			rep.HolidayDays++
			continue
		}
		rep.InstructionalDays++
		for _, r := range d.Records {
			sum := get(r.AttendanceRecordStudentID)
			sum.Total++
			switch {
			case r.AttendanceRecordStatus == model.AttendancePresent:
				sum.Present++
			case r.AttendanceRecordAutoMarked:
				sum.Absent++
				sum.AutoAbsent++
			default:
				sum.Absent++
			}
		}
	}
	if len(days) > 0 {
		from := dbtime.FormatDate(days[0].AttendanceDayDate)
		to := dbtime.FormatDate(days[len(days)-1].AttendanceDayDate)
		rep.From, rep.To = &from, &to
	}

	roster, err := activeRoster(ctx, db, courseID)
	if err != nil {
		return nil, err
	}
	for _, id := range roster {
		get(id)
	}

	rep.Students = make([]StudentAttendanceSummary, 0, len(summaries))
	for _, sum := range summaries {
		rep.Students = append(rep.Students, *sum)
	}
	sort.Slice(rep.Students, func(i, j int) bool {
		return rep.Students[i].StudentID.String() < rep.Students[j].StudentID.String()
	})
	return rep, nil
}

/* =========================================================
   HOLIDAYS
========================================================= */

func (s *Service) GetHolidays(ctx context.Context) ([]int, error) {
	return s.loadHolidays(ctx, s.DB.WithContext(ctx))
}

// SetHolidays: 0..6, duplikat dibuang, diurutkan
func (s *Service) SetHolidays(ctx context.Context, days []int) ([]int, error) {
	seen := map[int]bool{}
	clean := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, errs.InvariantViolation("hari libur %d di luar 0..6", d)
		}
		if !seen[d] {
			seen[d] = true
			clean = append(clean, d)
		}
	}
	sort.Ints(clean)

	row := model.HolidaySettingModel{
		HolidaySettingID:        model.HolidaySettingSingletonID,
		HolidaySettingDays:      clean,
		HolidaySettingUpdatedAt: s.now(),
	}
	if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "holiday_setting_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"holiday_setting_days", "holiday_setting_updated_at"}),
	}).Create(&row).Error; err != nil {
		return nil, err
	}

	log.Printf("[ATTENDANCE] 🏖️ hari libur: %v", clean)
	return clean, nil
}

/* =========================================================
   Internal helpers
========================================================= */

func (s *Service) requireCourse(ctx context.Context, db *gorm.DB, courseID uuid.UUID) error {
	var n int64
	if err := db.WithContext(ctx).Model(&courseModel.CourseModel{}).
		Where("course_id = ?", courseID).
		Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return errs.NotFound("course %s", courseID)
	}
	return nil
}

// loadHolidays: baris belum ada → tidak ada hari libur
func (s *Service) loadHolidays(ctx context.Context, db *gorm.DB) ([]int, error) {
	var row model.HolidaySettingModel
	err := db.WithContext(ctx).
		Where("holiday_setting_id = ?", model.HolidaySettingSingletonID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []int{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []int(row.HolidaySettingDays), nil
}

// findOrCreateDay: insert-or-ignore lalu baca ulang dengan lock; aman untuk dua penulis paralel
func (s *Service) findOrCreateDay(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, date time.Time) (*model.AttendanceDayModel, bool, error) {
	candidate := model.AttendanceDayModel{
		AttendanceDayCourseID: courseID,
		AttendanceDayDate:     date,
	}
	res := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attendance_day_course_id"}, {Name: "attendance_day_date"}},
		DoNothing: true,
	}).Create(&candidate)
	if res.Error != nil {
		return nil, false, res.Error
	}

	var d model.AttendanceDayModel
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("attendance_day_course_id = ? AND attendance_day_date = ?", courseID, date).
		Take(&d).Error; err != nil {
		return nil, false, err
	}
	return &d, res.RowsAffected == 1, nil
}

func (s *Service) loadDay(ctx context.Context, db *gorm.DB, dayID uuid.UUID) (*model.AttendanceDayModel, error) {
	var d model.AttendanceDayModel
	if err := db.WithContext(ctx).
		Preload("Records", func(q *gorm.DB) *gorm.DB { return q.Order("attendance_record_student_id ASC") }).
		Where("attendance_day_id = ?", dayID).
		Take(&d).Error; err != nil {
		return nil, errs.FromGorm(err, "attendance day %s", dayID)
	}
	return &d, nil
}

// activeRoster: student dengan enrollment enrolled + aktif di course
func activeRoster(ctx context.Context, db *gorm.DB, courseID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.WithContext(ctx).Model(&enrollModel.EnrollmentModel{}).
		Where("enrollment_course_id = ? AND enrollment_status = ? AND enrollment_is_active = ?",
			courseID, enrollModel.EnrollmentEnrolled, true).
		Order("enrollment_student_id ASC").
		Pluck("enrollment_student_id", &ids).Error
	return ids, err
}
