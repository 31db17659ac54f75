package details

import (
	"github.com/gofiber/fiber/v2"

	NotificationRoute "lms_backend/internals/features/home/notifications/route"
)

func HomeUserRoutes(r fiber.Router, d Deps) {
	NotificationRoute.NotificationUserRoutes(r, d.DB)
}

func HomeAdminRoutes(r fiber.Router, d Deps) {
	NotificationRoute.NotificationAdminRoutes(r, d.DB)
}
