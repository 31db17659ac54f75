package route

import (
	"github.com/gofiber/fiber/v2"

	"lms_backend/internals/features/finance/fees/controller"
)

// FeeUserRoutes: /api/u (murid hanya melihat fee miliknya)
func FeeUserRoutes(user fiber.Router, ctrl *controller.FeeController) {
	grp := user.Group("/fees")
	grp.Get("/", ctrl.ListMine)
	grp.Get("/:fee_id", ctrl.GetMine)
	grp.Post("/:fee_id/installments/:installment_id/submit", ctrl.Submit)
}

// FeeAdminRoutes: /api/a
func FeeAdminRoutes(admin fiber.Router, ctrl *controller.FeeController) {
	grp := admin.Group("/fees")

	// sweep manual didaftarkan sebelum /:fee_id
	grp.Post("/check-overdue", ctrl.CheckOverdue)

	grp.Get("/:fee_id", ctrl.Get)
	grp.Put("/:fee_id/installments", ctrl.SetPlan)
	grp.Post("/:fee_id/installments/:installment_id/verify", ctrl.Verify)
	grp.Post("/:fee_id/installments/:installment_id/reject", ctrl.Reject)
}
