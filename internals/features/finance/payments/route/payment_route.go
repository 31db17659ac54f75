package route

import (
	"github.com/gofiber/fiber/v2"

	"lms_backend/internals/features/finance/payments/controller"
)

// PaymentUserRoutes: /api/u
func PaymentUserRoutes(user fiber.Router, ctrl *controller.PaymentController) {
	user.Post("/fees/:fee_id/installments/:installment_id/checkout", ctrl.Checkout)
}

// PaymentPublicRoutes: /api/public (dipanggil server Midtrans, tanpa JWT)
func PaymentPublicRoutes(pub fiber.Router, ctrl *controller.PaymentController) {
	pub.Post("/payments/midtrans/notification", ctrl.MidtransWebhook)
}
