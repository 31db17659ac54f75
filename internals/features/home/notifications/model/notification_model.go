package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	TypePaymentSubmitted = "payment_submitted"
	TypePaymentVerified  = "payment_verified"
	TypePaymentRejected  = "payment_rejected"
	TypeAttendanceLocked = "attendance_locked"
)

type NotificationModel struct {
	NotificationID          uuid.UUID      `gorm:"column:notification_id;primaryKey;type:uuid" json:"notification_id"`
	NotificationTitle       string         `gorm:"column:notification_title;type:varchar(255);not null" json:"notification_title"`
	NotificationDescription string         `gorm:"column:notification_description;type:text" json:"notification_description"`
	NotificationType        string         `gorm:"column:notification_type;type:varchar(40);not null;index" json:"notification_type"`
	NotificationStudentID   *uuid.UUID     `gorm:"column:notification_student_id;type:uuid;index" json:"notification_student_id,omitempty"` // nullable = broadcast admin
	NotificationTags        Tags           `gorm:"column:notification_tags" json:"notification_tags"`
	NotificationPayload     datatypes.JSON `gorm:"column:notification_payload" json:"notification_payload,omitempty"`
	NotificationCreatedAt   time.Time      `gorm:"column:notification_created_at;not null" json:"notification_created_at"`
}

func (NotificationModel) TableName() string {
	return "notifications"
}

func (m *NotificationModel) BeforeCreate(tx *gorm.DB) error {
	if m.NotificationID == uuid.Nil {
		m.NotificationID = uuid.New()
	}
	if m.NotificationCreatedAt.IsZero() {
		m.NotificationCreatedAt = time.Now()
	}
	return nil
}

// Tags: text[] di Postgres (pq.StringArray), literal array di kolom text untuk dialect lain
type Tags pq.StringArray

func (t Tags) Value() (driver.Value, error) { return pq.StringArray(t).Value() }

func (t *Tags) Scan(src any) error { return (*pq.StringArray)(t).Scan(src) }

func (Tags) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}
