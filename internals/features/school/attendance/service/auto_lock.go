package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	courseModel "lms_backend/internals/features/courses/courses/model"
	notifModel "lms_backend/internals/features/home/notifications/model"
	notifService "lms_backend/internals/features/home/notifications/service"
	"lms_backend/internals/features/school/attendance/model"
	"lms_backend/internals/helpers/dbtime"
	"lms_backend/internals/helpers/sweep"
)

const JobAttendanceLock = "attendance-lock"

// LockResult: agregat satu run auto-lock (per course)
type LockResult struct {
	Date        string            `json:"date"`
	Processed   int               `json:"processed"`
	DaysCreated int               `json:"days_created"`
	AutoMarked  int               `json:"auto_marked"`
	Holidays    int               `json:"holidays"`
	Locked      int               `json:"locked"`
	Skipped     int               `json:"skipped"`
	Failed      int               `json:"failed"`
	Errors      []sweep.ItemError `json:"errors,omitempty"`
}

type courseLock struct {
	created    bool
	holiday    bool
	locked     bool
	autoMarked int
}

// RunAutoLock: kunci absensi "kemarin" menurut zona aplikasi
func (s *Service) RunAutoLock(ctx context.Context) LockResult {
	return s.LockDate(ctx, dbtime.YesterdayUTC(s.now(), s.Loc))
}

// LockDate menjalankan langkah auto-lock untuk setiap course aktif pada tanggal date.
// Kegagalan satu course dicatat lalu lanjut ke course berikutnya.
func (s *Service) LockDate(ctx context.Context, date time.Time) LockResult {
	date = dbtime.MidnightUTC(date)
	out := LockResult{Date: dbtime.FormatDate(date)}

	holidays, err := s.loadHolidays(ctx, s.DB)
	if err != nil {
		log.Printf("[ATT-LOCK] ❌ gagal load hari libur: %v", err)
		out.Failed = 1
		out.Errors = []sweep.ItemError{{Key: "holiday_settings", Error: err.Error()}}
		return out
	}
	isHoliday := model.IsHoliday(holidays, date.Weekday())

	var courses []courseModel.CourseModel
	if err := s.DB.WithContext(ctx).
		Where("course_is_active = ?", true).
		Order("course_created_at ASC").
		Find(&courses).Error; err != nil {
		log.Printf("[ATT-LOCK] ❌ gagal load course: %v", err)
		out.Failed = 1
		out.Errors = []sweep.ItemError{{Key: "courses", Error: err.Error()}}
		return out
	}

	now := s.now()
	res := sweep.Run(ctx, JobAttendanceLock, courses,
		func(c courseModel.CourseModel) string { return c.CourseID.String() },
		func(ctx context.Context, c courseModel.CourseModel) (sweep.Outcome, error) {
			cl, err := s.lockCourseDay(ctx, c.CourseID, date, isHoliday, now)
			if err != nil {
				return sweep.Unchanged, err
			}
			if cl.created {
				out.DaysCreated++
			}
			out.AutoMarked += cl.autoMarked
			if !cl.locked {
				return sweep.Skipped, nil
			}
			if cl.holiday {
				out.Holidays++
			}
			out.Locked++
			s.publishLocked(c, date, cl)
			return sweep.Changed, nil
		})

	out.Processed = res.Processed()
	out.Skipped = res.Skipped
	out.Failed = res.Failed
	out.Errors = res.Errors
	log.Printf("[ATT-LOCK] 🔒 date=%s courses=%d locked=%d holidays=%d created=%d auto_absent=%d skipped=%d failed=%d",
		out.Date, res.Total, out.Locked, out.Holidays, out.DaysCreated, out.AutoMarked, out.Skipped, out.Failed)
	return out
}

func (s *Service) lockCourseDay(ctx context.Context, courseID uuid.UUID, date time.Time, isHoliday bool, now time.Time) (courseLock, error) {
	var cl courseLock
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, created, err := s.findOrCreateDay(ctx, tx, courseID, date)
		if err != nil {
			return err
		}
		cl.created = created

		if isHoliday {
			// libur: tandai + kunci, record tidak disentuh
			if d.AttendanceDayIsHoliday && d.AttendanceDayIsLocked {
				return nil
			}
			if err := tx.Model(&model.AttendanceDayModel{}).
				Where("attendance_day_id = ?", d.AttendanceDayID).
				Updates(map[string]any{
					"attendance_day_is_holiday": true,
					"attendance_day_is_locked":  true,
					"attendance_day_locked_at":  now,
					"attendance_day_updated_at": now,
				}).Error; err != nil {
				return err
			}
			cl.holiday, cl.locked = true, true
			return nil
		}

		if d.AttendanceDayIsLocked {
			return nil
		}

		roster, err := activeRoster(ctx, tx, courseID)
		if err != nil {
			return err
		}

		var marked []uuid.UUID
		if err := tx.Model(&model.AttendanceRecordModel{}).
			Where("attendance_record_day_id = ?", d.AttendanceDayID).
			Pluck("attendance_record_student_id", &marked).Error; err != nil {
			return err
		}
		has := make(map[uuid.UUID]struct{}, len(marked))
		for _, id := range marked {
			has[id] = struct{}{}
		}

		absent := make([]model.AttendanceRecordModel, 0, len(roster))
		for _, sid := range roster {
			if _, ok := has[sid]; ok {
				continue
			}
			absent = append(absent, model.AttendanceRecordModel{
				AttendanceRecordDayID:      d.AttendanceDayID,
				AttendanceRecordStudentID:  sid,
				AttendanceRecordStatus:     model.AttendanceAbsent,
				AttendanceRecordMarkedAt:   now,
				AttendanceRecordAutoMarked: true,
			})
		}
		if len(absent) > 0 {
			ins := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "attendance_record_day_id"}, {Name: "attendance_record_student_id"}},
				DoNothing: true,
			}).Create(&absent)
			if ins.Error != nil {
				return ins.Error
			}
			cl.autoMarked = int(ins.RowsAffected)
		}

		upd := tx.Model(&model.AttendanceDayModel{}).
			Where("attendance_day_id = ? AND attendance_day_is_locked = ?", d.AttendanceDayID, false).
			Updates(map[string]any{
				"attendance_day_is_locked":  true,
				"attendance_day_locked_at":  now,
				"attendance_day_updated_at": now,
			})
		if upd.Error != nil {
			return upd.Error
		}
		cl.locked = upd.RowsAffected == 1
		return nil
	})
	if err != nil {
		return courseLock{}, err
	}
	return cl, nil
}

func (s *Service) publishLocked(c courseModel.CourseModel, date time.Time, cl courseLock) {
	if s.Notifier == nil {
		return
	}
	desc := "Absensi dikunci otomatis"
	if cl.holiday {
		desc = "Hari libur, absensi dikunci tanpa record"
	}
	s.Notifier.Publish(notifService.Event{
		Type:        notifModel.TypeAttendanceLocked,
		Title:       "Absensi " + c.CourseName + " " + dbtime.FormatDate(date),
		Description: desc,
		Tags:        []string{"attendance", "auto-lock"},
		Payload: map[string]any{
			"course_id":   c.CourseID,
			"date":        dbtime.FormatDate(date),
			"holiday":     cl.holiday,
			"auto_marked": cl.autoMarked,
		},
	})
}
