// file: internals/features/school/attendance/dto/attendance_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	"lms_backend/internals/features/school/attendance/model"
	"lms_backend/internals/features/school/attendance/service"
	"lms_backend/internals/helpers/dbtime"
)

type MarkRecordItem struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	Status    string `json:"status" validate:"required,oneof=present absent"`
}

type MarkAttendanceRequest struct {
	Date    string           `json:"date" validate:"required,datetime=2006-01-02"`
	Records []MarkRecordItem `json:"records" validate:"required,min=1,dive"`
}

func (r MarkAttendanceRequest) ToInputs() []service.MarkInput {
	out := make([]service.MarkInput, 0, len(r.Records))
	for _, it := range r.Records {
		out = append(out, service.MarkInput{
			StudentID: uuid.MustParse(it.StudentID),
			Status:    model.AttendanceStatus(it.Status),
		})
	}
	return out
}

type SetHolidaysRequest struct {
	Days []int `json:"days" validate:"dive,min=0,max=6"`
}

type AttendanceRecordResponse struct {
	StudentID  uuid.UUID              `json:"student_id"`
	Status     model.AttendanceStatus `json:"status"`
	MarkedBy   *string                `json:"marked_by,omitempty"`
	MarkedAt   time.Time              `json:"marked_at"`
	AutoMarked bool                   `json:"auto_marked"`
}

type AttendanceDayResponse struct {
	ID        uuid.UUID                  `json:"attendance_day_id"`
	CourseID  uuid.UUID                  `json:"course_id"`
	Date      string                     `json:"date"`
	IsHoliday bool                       `json:"is_holiday"`
	IsLocked  bool                       `json:"is_locked"`
	LockedAt  *time.Time                 `json:"locked_at,omitempty"`
	Records   []AttendanceRecordResponse `json:"records"`
}

func FromDay(m model.AttendanceDayModel) AttendanceDayResponse {
	recs := make([]AttendanceRecordResponse, 0, len(m.Records))
	for _, r := range m.Records {
		recs = append(recs, AttendanceRecordResponse{
			StudentID:  r.AttendanceRecordStudentID,
			Status:     r.AttendanceRecordStatus,
			MarkedBy:   r.AttendanceRecordMarkedBy,
			MarkedAt:   r.AttendanceRecordMarkedAt,
			AutoMarked: r.AttendanceRecordAutoMarked,
		})
	}
	return AttendanceDayResponse{
		ID:        m.AttendanceDayID,
		CourseID:  m.AttendanceDayCourseID,
		Date:      dbtime.FormatDate(m.AttendanceDayDate),
		IsHoliday: m.AttendanceDayIsHoliday,
		IsLocked:  m.AttendanceDayIsLocked,
		LockedAt:  m.AttendanceDayLockedAt,
		Records:   recs,
	}
}
