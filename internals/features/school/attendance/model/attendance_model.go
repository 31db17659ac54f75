// file: internals/features/school/attendance/model/attendance_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)

func (s AttendanceStatus) Valid() bool {
	return s == AttendancePresent || s == AttendanceAbsent
}

// =========================================================
// attendance_days - satu per (course, tanggal midnight UTC)
// =========================================================

type AttendanceDayModel struct {
	AttendanceDayID       uuid.UUID `gorm:"column:attendance_day_id;type:uuid;primaryKey" json:"attendance_day_id"`
	AttendanceDayCourseID uuid.UUID `gorm:"column:attendance_day_course_id;type:uuid;not null;uniqueIndex:uq_attendance_days_course_date,priority:1;index" json:"attendance_day_course_id"`
	// selalu 00:00:00 UTC, lihat dbtime.MidnightUTC
	AttendanceDayDate time.Time `gorm:"column:attendance_day_date;not null;uniqueIndex:uq_attendance_days_course_date,priority:2;index" json:"attendance_day_date"`

	AttendanceDayIsHoliday bool       `gorm:"column:attendance_day_is_holiday;not null;default:false" json:"attendance_day_is_holiday"`
	AttendanceDayIsLocked  bool       `gorm:"column:attendance_day_is_locked;not null;default:false;index" json:"attendance_day_is_locked"`
	AttendanceDayLockedAt  *time.Time `gorm:"column:attendance_day_locked_at" json:"attendance_day_locked_at,omitempty"`

	AttendanceDayCreatedAt time.Time `gorm:"column:attendance_day_created_at;not null" json:"attendance_day_created_at"`
	AttendanceDayUpdatedAt time.Time `gorm:"column:attendance_day_updated_at;not null" json:"attendance_day_updated_at"`

	Records []AttendanceRecordModel `gorm:"foreignKey:AttendanceRecordDayID;references:AttendanceDayID;constraint:OnDelete:CASCADE" json:"records,omitempty"`
}

func (AttendanceDayModel) TableName() string { return "attendance_days" }

func (m *AttendanceDayModel) BeforeCreate(tx *gorm.DB) error {
	if m.AttendanceDayID == uuid.Nil {
		m.AttendanceDayID = uuid.New()
	}
	now := time.Now()
	if m.AttendanceDayCreatedAt.IsZero() {
		m.AttendanceDayCreatedAt = now
	}
	m.AttendanceDayUpdatedAt = now
	return nil
}

// =========================================================
// attendance_records - satu per (day, student)
// =========================================================

type AttendanceRecordModel struct {
	AttendanceRecordID        uuid.UUID        `gorm:"column:attendance_record_id;type:uuid;primaryKey" json:"attendance_record_id"`
	AttendanceRecordDayID     uuid.UUID        `gorm:"column:attendance_record_day_id;type:uuid;not null;uniqueIndex:uq_attendance_records_day_student,priority:1;index" json:"attendance_record_day_id"`
	AttendanceRecordStudentID uuid.UUID        `gorm:"column:attendance_record_student_id;type:uuid;not null;uniqueIndex:uq_attendance_records_day_student,priority:2;index" json:"attendance_record_student_id"`
	AttendanceRecordStatus    AttendanceStatus `gorm:"column:attendance_record_status;type:varchar(16);not null" json:"attendance_record_status"`

	// null = diisi sistem (auto-lock)
	AttendanceRecordMarkedBy   *string   `gorm:"column:attendance_record_marked_by;type:varchar(64)" json:"attendance_record_marked_by,omitempty"`
	AttendanceRecordMarkedAt   time.Time `gorm:"column:attendance_record_marked_at;not null" json:"attendance_record_marked_at"`
	AttendanceRecordAutoMarked bool      `gorm:"column:attendance_record_auto_marked;not null;default:false" json:"attendance_record_auto_marked"`

	AttendanceRecordCreatedAt time.Time `gorm:"column:attendance_record_created_at;not null" json:"attendance_record_created_at"`
	AttendanceRecordUpdatedAt time.Time `gorm:"column:attendance_record_updated_at;not null" json:"attendance_record_updated_at"`
}

func (AttendanceRecordModel) TableName() string { return "attendance_records" }

func (m *AttendanceRecordModel) BeforeCreate(tx *gorm.DB) error {
	if m.AttendanceRecordID == uuid.Nil {
		m.AttendanceRecordID = uuid.New()
	}
	now := time.Now()
	if m.AttendanceRecordMarkedAt.IsZero() {
		m.AttendanceRecordMarkedAt = now
	}
	if m.AttendanceRecordCreatedAt.IsZero() {
		m.AttendanceRecordCreatedAt = now
	}
	m.AttendanceRecordUpdatedAt = now
	return nil
}

// =========================================================
// holiday_settings - baris tunggal (id=1), hari libur mingguan global
// =========================================================

const HolidaySettingSingletonID = 1

type HolidaySettingModel struct {
	HolidaySettingID        int                      `gorm:"column:holiday_setting_id;primaryKey;autoIncrement:false" json:"holiday_setting_id"`
	HolidaySettingDays      datatypes.JSONSlice[int] `gorm:"column:holiday_setting_days;not null" json:"holiday_setting_days"`
	HolidaySettingUpdatedAt time.Time                `gorm:"column:holiday_setting_updated_at;not null" json:"holiday_setting_updated_at"`
}

func (HolidaySettingModel) TableName() string { return "holiday_settings" }

// IsHoliday: weekday (0=Minggu … 6=Sabtu) termasuk hari libur
func IsHoliday(days []int, wd time.Weekday) bool {
	for _, d := range days {
		if d == int(wd) {
			return true
		}
	}
	return false
}
