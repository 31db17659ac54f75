package controller

import (
	"log"
	"strconv"
	"strings"

	"lms_backend/internals/features/home/notifications/dto"
	"lms_backend/internals/features/home/notifications/model"
	helper "lms_backend/internals/helpers"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type NotificationController struct {
	DB *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{DB: db}
}

func limitFromQuery(c *fiber.Ctx) int {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return limit
}

// 🟢 GET /api/u/notifications → notifikasi milik murid yang login
func (ctrl *NotificationController) GetMyNotifications(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}

	var rows []model.NotificationModel
	if err := ctrl.DB.WithContext(c.Context()).
		Where("notification_student_id = ?", userID).
		Order("notification_created_at DESC").
		Limit(limitFromQuery(c)).
		Find(&rows).Error; err != nil {
		log.Printf("[ERROR] Gagal ambil notifikasi: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil notifikasi")
	}

	return helper.JsonList(c, "Daftar notifikasi", dto.ToNotificationResponseList(rows))
}

// 🟢 GET /api/a/notifications?type=attendance_locked
func (ctrl *NotificationController) GetAllNotifications(c *fiber.Ctx) error {
	q := ctrl.DB.WithContext(c.Context()).Model(&model.NotificationModel{})
	if typ := strings.TrimSpace(c.Query("type")); typ != "" {
		q = q.Where("notification_type = ?", typ)
	}

	var rows []model.NotificationModel
	if err := q.Order("notification_created_at DESC").Limit(limitFromQuery(c)).Find(&rows).Error; err != nil {
		log.Printf("[ERROR] Gagal ambil notifikasi: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil notifikasi")
	}

	return helper.JsonList(c, "Daftar notifikasi", dto.ToNotificationResponseList(rows))
}
