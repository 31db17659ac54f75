// file: internals/features/finance/fees/controller/fee_controller.go
package controller

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"lms_backend/internals/features/finance/fees/dto"
	"lms_backend/internals/features/finance/fees/service"
	helper "lms_backend/internals/helpers"
	osshelper "lms_backend/internals/helpers/oss"
)

type FeeController struct {
	Ledger *service.LedgerService
	// nil → submit hanya menerima receipt_ref JSON
	Receipts osshelper.ReceiptStore
	// batas waktu sweep manual
	SweepTimeout time.Duration
}

func NewFeeController(ledger *service.LedgerService, receipts osshelper.ReceiptStore) *FeeController {
	return &FeeController{Ledger: ledger, Receipts: receipts, SweepTimeout: 4 * time.Minute}
}

func (ctrl *FeeController) now() time.Time {
	if ctrl.Ledger != nil && ctrl.Ledger.Now != nil {
		return ctrl.Ledger.Now()
	}
	return time.Now()
}

func feeAndInstallmentParams(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	feeID, err := helper.ParseUUIDParam(c, "fee_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	instID, err := helper.ParseUUIDParam(c, "installment_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return feeID, instID, nil
}

/* =========================================================
   USER (murid)
========================================================= */

// 🟢 GET /api/u/fees
func (ctrl *FeeController) ListMine(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	fees, err := ctrl.Ledger.ListStudentFees(c.Context(), userID)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	return helper.JsonList(c, "Daftar tagihan", dto.FromFees(fees, ctrl.now()))
}

// 🟢 GET /api/u/fees/:fee_id
func (ctrl *FeeController) GetMine(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	feeID, err := helper.ParseUUIDParam(c, "fee_id")
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	fee, err := ctrl.Ledger.GetStudentFee(c.Context(), userID, feeID)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	return helper.JsonOK(c, "Detail tagihan", dto.FromFee(*fee, ctrl.now()))
}

// 📨 POST /api/u/fees/:fee_id/installments/:installment_id/submit
// JSON {receipt_ref, slip_id} atau multipart dengan file "receipt".
func (ctrl *FeeController) Submit(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	feeID, instID, err := feeAndInstallmentParams(c)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}

	var req dto.SubmitPaymentRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}

	// pastikan fee milik murid sebelum upload apa pun
	if _, err := ctrl.Ledger.GetStudentFee(c.Context(), userID, feeID); err != nil {
		return helper.JsonServiceError(c, err)
	}

	ref := strings.TrimSpace(req.ReceiptRef)
	uploaded := false
	if fh := osshelper.GetReceiptFile(c); fh != nil {
		if ctrl.Receipts == nil {
			return helper.JsonError(c, fiber.StatusServiceUnavailable, "Penyimpanan bukti pembayaran belum dikonfigurasi")
		}
		if ref, err = ctrl.Receipts.UploadReceipt(c.Context(), fh, "fees/"+feeID.String()); err != nil {
			return helper.JsonServiceError(c, err)
		}
		uploaded = true
	}

	inst, err := ctrl.Ledger.SubmitPayment(c.Context(), feeID, instID, service.SubmitInput{
		ReceiptRef: ref,
		SlipID:     req.SlipID,
		StudentID:  &userID,
	})
	if err != nil {
		if uploaded {
			ctrl.discardUpload(ref)
		}
		return helper.JsonServiceError(c, err)
	}
	return helper.JsonUpdated(c, "Bukti pembayaran terkirim", dto.FromInstallment(*inst, ctrl.now()))
}

// upload sudah terjadi tapi submit ditolak: objeknya yatim
func (ctrl *FeeController) discardUpload(ref string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := ctrl.Receipts.DeleteReceipt(ctx, ref); err != nil {
		log.Printf("[OSS] ⚠️ gagal hapus upload yatim %s: %v", ref, err)
	}
}

/* =========================================================
   ADMIN
========================================================= */

// 🔎 GET /api/a/fees/:fee_id
func (ctrl *FeeController) Get(c *fiber.Ctx) error {
	feeID, err := helper.ParseUUIDParam(c, "fee_id")
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	fee, err := ctrl.Ledger.GetFee(c.Context(), feeID)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	return helper.JsonOK(c, "Detail tagihan", dto.FromFee(*fee, ctrl.now()))
}

// ✅ POST /api/a/fees/:fee_id/installments/:installment_id/verify
func (ctrl *FeeController) Verify(c *fiber.Ctx) error {
	feeID, instID, err := feeAndInstallmentParams(c)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	res, err := ctrl.Ledger.VerifyInstallment(c.Context(), feeID, instID, helper.ActorID(c))
	if err != nil {
		return helper.JsonServiceError(c, err)
	}

	now := ctrl.now()
	return helper.JsonUpdated(c, "Cicilan terverifikasi", fiber.Map{
		"fee":         dto.FromFee(res.Fee, now),
		"installment": dto.FromInstallment(res.Installment, now),
		"roll_no":     res.RollNo,
		"enrollment":  res.Enrollment,
	})
}

// ❌ POST /api/a/fees/:fee_id/installments/:installment_id/reject
func (ctrl *FeeController) Reject(c *fiber.Ctx) error {
	feeID, instID, err := feeAndInstallmentParams(c)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	inst, err := ctrl.Ledger.RejectInstallment(c.Context(), feeID, instID)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	return helper.JsonUpdated(c, "Bukti pembayaran ditolak", dto.FromInstallment(*inst, ctrl.now()))
}

// 🗓️ PUT /api/a/fees/:fee_id/installments
func (ctrl *FeeController) SetPlan(c *fiber.Ctx) error {
	feeID, err := helper.ParseUUIDParam(c, "fee_id")
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	var req dto.SetInstallmentPlanRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	plan, err := dto.ToPlan(req.Installments)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "due_date tidak valid")
	}

	fee, err := ctrl.Ledger.SetInstallmentPlan(c.Context(), feeID, plan)
	if err != nil {
		return helper.JsonServiceError(c, err)
	}
	return helper.JsonUpdated(c, "Jadwal cicilan diperbarui", dto.FromFee(*fee, ctrl.now()))
}

// ⏰ POST /api/a/fees/check-overdue (trigger manual, fungsi yang sama dengan cron)
func (ctrl *FeeController) CheckOverdue(c *fiber.Ctx) error {
	timeout := ctrl.SweepTimeout
	if timeout <= 0 {
		timeout = 4 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	res := ctrl.Ledger.RunBillingSweep(ctx)
	return helper.JsonOK(c, "Billing sweep selesai", res)
}
