package route

import (
	"lms_backend/internals/features/home/notifications/controller"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func NotificationUserRoutes(user fiber.Router, db *gorm.DB) {
	ctrl := controller.NewNotificationController(db)

	notification := user.Group("/notifications")
	notification.Get("/", ctrl.GetMyNotifications) // 🟢 notifikasi milik murid
}

func NotificationAdminRoutes(admin fiber.Router, db *gorm.DB) {
	ctrl := controller.NewNotificationController(db)

	notification := admin.Group("/notifications")
	notification.Get("/", ctrl.GetAllNotifications)
}
