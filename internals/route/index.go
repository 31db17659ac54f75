// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"lms_backend/internals/configs"
	"lms_backend/internals/constants"
	authMiddleware "lms_backend/internals/middlewares/auth"
	routeDetails "lms_backend/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, d routeDetails.Deps) {
	startTime = time.Now()

	BaseRoutes(app, d.DB)

	// ===================== GROUPS =====================

	// PUBLIC → tanpa JWT (webhook gateway)
	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api/public")

	jwt := authMiddleware.AuthMiddleware(configs.JWTSecret)

	log.Println("[INFO] Setting up USER (student) group...")
	user := app.Group("/api/u", jwt,
		authMiddleware.RoleMiddlewareWithCustomError(constants.StudentOnly, constants.RoleErrorStudent("ini")),
	)

	log.Println("[INFO] Setting up TEACHER group...")
	teacher := app.Group("/api/t", jwt,
		authMiddleware.RoleMiddlewareWithCustomError(constants.TeacherAndAbove, constants.RoleErrorTeacher("absensi")),
	)

	log.Println("[INFO] Setting up ADMIN group...")
	admin := app.Group("/api/a", jwt,
		authMiddleware.OnlyRoles(constants.RoleErrorAdmin("admin"), constants.AdminAndAbove...),
	)

	// ===================== MOUNT ROUTES =====================

	log.Println("[INFO] Mounting Finance routes...")
	routeDetails.FinancePublicRoutes(public, d)
	routeDetails.FinanceUserRoutes(user, d)
	routeDetails.FinanceAdminRoutes(admin, d)

	log.Println("[INFO] Mounting School routes...")
	routeDetails.SchoolUserRoutes(user, d)
	routeDetails.SchoolTeacherRoutes(teacher, d)
	routeDetails.SchoolAdminRoutes(admin, d)

	log.Println("[INFO] Mounting Home routes...")
	routeDetails.HomeUserRoutes(user, d)
	routeDetails.HomeAdminRoutes(admin, d)

	routeDetails.SchedulerAdminRoutes(admin, d)
}
