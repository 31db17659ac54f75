// file: internals/route/details/finance_routes.go
package details

import (
	"github.com/gofiber/fiber/v2"

	FeeController "lms_backend/internals/features/finance/fees/controller"
	FeeRoute "lms_backend/internals/features/finance/fees/route"
	PaymentController "lms_backend/internals/features/finance/payments/controller"
	PaymentRoute "lms_backend/internals/features/finance/payments/route"
	"lms_backend/internals/middlewares"
)

func FinancePublicRoutes(r fiber.Router, d Deps) {
	PaymentRoute.PaymentPublicRoutes(r, PaymentController.NewPaymentController(d.Payments))
}

func FinanceUserRoutes(r fiber.Router, d Deps) {
	FeeRoute.FeeUserRoutes(r, FeeController.NewFeeController(d.Ledger, d.Receipts))
	PaymentRoute.PaymentUserRoutes(r, PaymentController.NewPaymentController(d.Payments))
}

func FinanceAdminRoutes(r fiber.Router, d Deps) {
	r.Use("/fees/check-overdue", middlewares.SweepTriggerRateLimiter())
	FeeRoute.FeeAdminRoutes(r, FeeController.NewFeeController(d.Ledger, d.Receipts))
}
