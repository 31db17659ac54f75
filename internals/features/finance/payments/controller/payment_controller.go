// file: internals/features/finance/payments/controller/payment_controller.go
package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"lms_backend/internals/features/finance/payments/dto"
	"lms_backend/internals/features/finance/payments/service"
	helper "lms_backend/internals/helpers"
)

type PaymentController struct {
	Svc *service.PaymentService
}

func NewPaymentController(svc *service.PaymentService) *PaymentController {
	return &PaymentController{Svc: svc}
}

// 💳 POST /api/u/fees/:fee_id/installments/:installment_id/checkout
func (ctrl *PaymentController) Checkout(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	feeID, err := helper.ParseUUIDParam(c, "fee_id")
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	instID, err := helper.ParseUUIDParam(c, "installment_id")
	if err != nil {
		return helper.JsonServiceError(c, err)
	}

	var req dto.CheckoutRequest
	if len(c.Body()) > 0 {
		if ok, err := helper.BindAndValidate(c, &req); !ok {
			return err
		}
	}

	res, err := ctrl.Svc.Checkout(c.Context(), feeID, instID, userID, req.ToCustomer())
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	return helper.JsonCreated(c, "Checkout berhasil dibuat", res)
}

/* =======================================================================
   Webhook Midtrans
======================================================================= */

// 🔔 POST /api/public/payments/midtrans/notification
func (ctrl *PaymentController) MidtransWebhook(c *fiber.Ctx) error {
	var notif service.Notification
	if err := c.BodyParser(&notif); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload: "+err.Error())
	}

	res, err := ctrl.Svc.HandleNotification(c.Context(), notif)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid signature")
		}
		// non-2xx → Midtrans akan retry
		return helper.JsonServiceError(c, err)
	}
	return c.JSON(res)
}
