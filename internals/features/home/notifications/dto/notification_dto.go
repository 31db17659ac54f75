package dto

import (
	"encoding/json"

	"lms_backend/internals/features/home/notifications/model"

	"github.com/google/uuid"
)

// ================== RESPONSE ==================
type NotificationResponse struct {
	NotificationID          uuid.UUID       `json:"notification_id"`
	NotificationTitle       string          `json:"notification_title"`
	NotificationDescription string          `json:"notification_description"`
	NotificationType        string          `json:"notification_type"`
	NotificationStudentID   *uuid.UUID      `json:"notification_student_id"` // nullable
	NotificationTags        []string        `json:"notification_tags"`
	NotificationPayload     json.RawMessage `json:"notification_payload,omitempty"`
	NotificationCreatedAt   string          `json:"notification_created_at"`
}

// ================ CONVERSION =================
func ToNotificationResponse(m *model.NotificationModel) *NotificationResponse {
	tags := []string(m.NotificationTags)
	if tags == nil {
		tags = []string{}
	}
	var payload json.RawMessage
	if len(m.NotificationPayload) > 0 {
		payload = json.RawMessage(m.NotificationPayload)
	}
	return &NotificationResponse{
		NotificationID:          m.NotificationID,
		NotificationTitle:       m.NotificationTitle,
		NotificationDescription: m.NotificationDescription,
		NotificationType:        m.NotificationType,
		NotificationStudentID:   m.NotificationStudentID,
		NotificationTags:        tags,
		NotificationPayload:     payload,
		NotificationCreatedAt:   m.NotificationCreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func ToNotificationResponseList(models []model.NotificationModel) []NotificationResponse {
	result := make([]NotificationResponse, 0, len(models))
	for i := range models {
		result = append(result, *ToNotificationResponse(&models[i]))
	}
	return result
}
