// file: internals/features/finance/payments/service/payment_service.go
package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	feeModel "lms_backend/internals/features/finance/fees/model"
	feeService "lms_backend/internals/features/finance/fees/service"
	"lms_backend/internals/features/finance/payments/model"
	studentModel "lms_backend/internals/features/users/students/model"
	"lms_backend/internals/helpers/errs"
)

// VerifierMidtrans: verifier id yang dicatat ledger untuk pembayaran via gateway
const VerifierMidtrans = "midtrans"

var ErrInvalidSignature = errors.New("invalid signature")

// Checkout gateway hanya untuk cicilan yang bisa langsung diverifikasi saat settlement.
// Cicilan rejected tetap lewat submit bukti manual.
var CheckoutStatuses = []feeModel.InstallmentStatus{feeModel.InstallmentPending, feeModel.InstallmentOverdue}

type PaymentService struct {
	DB     *gorm.DB
	Ledger *feeService.LedgerService
	// nil → checkout menjawab TransientDependency
	Snap      SnapCreator
	ServerKey string
	Now       func() time.Time
}

func New(db *gorm.DB, ledger *feeService.LedgerService, snapClient SnapCreator, serverKey string) *PaymentService {
	return &PaymentService{DB: db, Ledger: ledger, Snap: snapClient, ServerKey: serverKey}
}

func (s *PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

/* =========================================================
   CHECKOUT (Snap)
========================================================= */

type CheckoutResult struct {
	OrderID       string    `json:"order_id"`
	Token         string    `json:"token"`
	RedirectURL   string    `json:"redirect_url"`
	Amount        int64     `json:"amount"`
	FeeID         uuid.UUID `json:"fee_id"`
	InstallmentID uuid.UUID `json:"installment_id"`
}

func (s *PaymentService) Checkout(ctx context.Context, feeID, installmentID, studentID uuid.UUID, cust CustomerInput) (*CheckoutResult, error) {
	if s.Snap == nil {
		return nil, errs.Transient("payment gateway belum dikonfigurasi")
	}

	fee, err := s.Ledger.GetStudentFee(ctx, studentID, feeID)
	if err != nil {
		return nil, err
	}
	var inst *feeModel.FeeInstallmentModel
	for i := range fee.Installments {
		if fee.Installments[i].FeeInstallmentID == installmentID {
			inst = &fee.Installments[i]
			break
		}
	}
	if inst == nil {
		return nil, errs.NotFound("installment %s", installmentID)
	}
	if !slices.Contains(CheckoutStatuses, inst.FeeInstallmentStatus) {
		return nil, errs.InvalidState("installment %s berstatus %s, tidak bisa checkout", installmentID, inst.FeeInstallmentStatus)
	}

	cust = s.fillCustomer(ctx, studentID, cust)
	orderID := OrderID(installmentID, s.now().Unix())
	req := buildSnapRequest(orderID, inst.FeeInstallmentAmount, "Cicilan ke-"+strconv.Itoa(inst.FeeInstallmentSeq), cust)

	resp, mErr := s.Snap.CreateTransaction(req)
	if mErr != nil {
		return nil, errs.Transient("midtrans: %s", mErr.Error())
	}
	if resp == nil || resp.Token == "" {
		return nil, errs.Transient("midtrans: token kosong")
	}

	log.Printf("[PAYMENT] 💳 checkout order=%s amount=%d", orderID, inst.FeeInstallmentAmount)
	return &CheckoutResult{
		OrderID:       orderID,
		Token:         resp.Token,
		RedirectURL:   resp.RedirectURL,
		Amount:        inst.FeeInstallmentAmount,
		FeeID:         feeID,
		InstallmentID: installmentID,
	}, nil
}

// fillCustomer: kosongnya nama/email/telepon diisi dari data murid
func (s *PaymentService) fillCustomer(ctx context.Context, studentID uuid.UUID, cust CustomerInput) CustomerInput {
	var st studentModel.StudentModel
	if err := s.DB.WithContext(ctx).Where("student_id = ?", studentID).Take(&st).Error; err != nil {
		return cust
	}
	if cust.FirstName == "" && cust.LastName == "" {
		cust.FirstName = st.StudentName
	}
	if cust.Email == "" && st.StudentEmail != nil {
		cust.Email = *st.StudentEmail
	}
	if cust.Phone == "" && st.StudentPhone != nil {
		cust.Phone = *st.StudentPhone
	}
	return cust
}

/* =========================================================
   WEBHOOK
========================================================= */

type Notification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"` // capture, settlement, pending, deny, cancel, expire, refund, failure
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"` // string dari Midtrans, mis. "3000.00"
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"` // accept / challenge / deny
	TransactionID     string `json:"transaction_id"`
	SettlementTime    string `json:"settlement_time"`
}

const (
	OutcomeProcessed       = "processed"
	OutcomeAlreadyVerified = "already_verified"
	OutcomeIgnored         = "ignored"
)

type NotificationResult struct {
	Status        string     `json:"status"`
	Reason        string     `json:"reason,omitempty"`
	InstallmentID *uuid.UUID `json:"installment_id,omitempty"`
	RollNo        *string    `json:"roll_no,omitempty"`
}

// HandleNotification: signature salah → ErrInvalidSignature.
// Order yang tidak dikenal dijawab "ignored" supaya Midtrans berhenti retry.
func (s *PaymentService) HandleNotification(ctx context.Context, n Notification) (*NotificationResult, error) {
	if !s.validSignature(n) {
		return nil, ErrInvalidSignature
	}

	ev := s.logEvent(ctx, n)

	instID, err := uuid.Parse(ParseOrderInstallment(n.OrderID))
	if err != nil {
		return s.finish(ctx, ev, model.GatewayEventIgnored, &NotificationResult{Status: OutcomeIgnored, Reason: "order tidak dikenal"}), nil
	}

	var inst feeModel.FeeInstallmentModel
	if err := s.DB.WithContext(ctx).Where("fee_installment_id = ?", instID).Take(&inst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.finish(ctx, ev, model.GatewayEventIgnored, &NotificationResult{Status: OutcomeIgnored, Reason: "installment tidak ditemukan"}), nil
		}
		s.fail(ctx, ev, err)
		return nil, err
	}
	s.attach(ctx, ev, inst)

	res := &NotificationResult{InstallmentID: &inst.FeeInstallmentID}
	if ok, reason := settles(n); !ok {
		res.Status, res.Reason = OutcomeIgnored, reason
		return s.finish(ctx, ev, model.GatewayEventIgnored, res), nil
	}
	if !amountMatches(n.GrossAmount, inst.FeeInstallmentAmount) {
		res.Status, res.Reason = OutcomeIgnored, "gross_amount tidak sesuai"
		log.Printf("[PAYMENT] ⚠️ amount mismatch order=%s gross=%s expected=%d", n.OrderID, n.GrossAmount, inst.FeeInstallmentAmount)
		return s.finish(ctx, ev, model.GatewayEventFailed, res), nil
	}

	vr, err := s.Ledger.VerifyInstallment(ctx, inst.FeeInstallmentFeeID, inst.FeeInstallmentID, VerifierMidtrans)
	switch {
	case err == nil:
		res.Status = OutcomeProcessed
		res.RollNo = vr.RollNo
		log.Printf("[PAYMENT] ✅ installment %s verified via midtrans order=%s", inst.FeeInstallmentID, n.OrderID)
		return s.finish(ctx, ev, model.GatewayEventProcessed, res), nil
	case errors.Is(err, errs.ErrInvalidState):
		// notifikasi ulang untuk cicilan yang sudah lunas
		if s.isVerified(ctx, inst.FeeInstallmentID) {
			res.Status = OutcomeAlreadyVerified
			return s.finish(ctx, ev, model.GatewayEventProcessed, res), nil
		}
		res.Status, res.Reason = OutcomeIgnored, err.Error()
		return s.finish(ctx, ev, model.GatewayEventIgnored, res), nil
	default:
		s.fail(ctx, ev, err)
		return nil, err
	}
}

func (s *PaymentService) validSignature(n Notification) bool {
	if s.ServerKey == "" || n.SignatureKey == "" {
		return false
	}
	want := Signature(n.OrderID, n.StatusCode, n.GrossAmount, s.ServerKey)
	got := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// settles: capture+accept atau settlement = uang sudah masuk
func settles(n Notification) (bool, string) {
	ts := strings.ToLower(n.TransactionStatus)
	switch ts {
	case "settlement":
		return true, ""
	case "capture":
		if strings.ToLower(n.FraudStatus) == "accept" {
			return true, ""
		}
		return false, "capture dengan fraud_status " + n.FraudStatus
	default:
		return false, "status " + ts
	}
}

func amountMatches(gross string, want int64) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(gross), 64)
	if err != nil {
		return false
	}
	return int64(math.Round(f)) == want
}

func (s *PaymentService) isVerified(ctx context.Context, instID uuid.UUID) bool {
	var cur feeModel.FeeInstallmentModel
	if err := s.DB.WithContext(ctx).
		Select("fee_installment_id", "fee_installment_status").
		Where("fee_installment_id = ?", instID).
		Take(&cur).Error; err != nil {
		return false
	}
	return cur.FeeInstallmentStatus == feeModel.InstallmentVerified
}

/* =========================================================
   Gateway event log (best-effort)
========================================================= */

func (s *PaymentService) logEvent(ctx context.Context, n Notification) *model.PaymentGatewayEventModel {
	payload, _ := json.Marshal(n)
	ev := &model.PaymentGatewayEventModel{
		GatewayEventProvider:    model.GatewayProviderMidtrans,
		GatewayEventType:        strPtr(n.TransactionStatus),
		GatewayEventExternalID:  strPtr(n.OrderID),
		GatewayEventExternalRef: strPtr(n.TransactionID),
		GatewayEventPayload:     payload,
		GatewayEventSignature:   strPtr(n.SignatureKey),
		GatewayEventStatus:      model.GatewayEventReceived,
		GatewayEventReceivedAt:  s.now(),
	}
	if err := s.DB.WithContext(ctx).Create(ev).Error; err != nil {
		log.Printf("[PAYMENT] ⚠️ gagal simpan gateway event order=%s: %v", n.OrderID, err)
		return nil
	}
	return ev
}

func (s *PaymentService) attach(ctx context.Context, ev *model.PaymentGatewayEventModel, inst feeModel.FeeInstallmentModel) {
	if ev == nil {
		return
	}
	if err := s.DB.WithContext(ctx).Model(ev).Updates(map[string]any{
		"gateway_event_fee_id":         inst.FeeInstallmentFeeID,
		"gateway_event_installment_id": inst.FeeInstallmentID,
	}).Error; err != nil {
		log.Printf("[PAYMENT] ⚠️ gagal update gateway event %s: %v", ev.GatewayEventID, err)
	}
}

func (s *PaymentService) finish(ctx context.Context, ev *model.PaymentGatewayEventModel, status model.GatewayEventStatus, res *NotificationResult) *NotificationResult {
	s.markEvent(ctx, ev, status, res.Reason)
	return res
}

func (s *PaymentService) fail(ctx context.Context, ev *model.PaymentGatewayEventModel, err error) {
	s.markEvent(ctx, ev, model.GatewayEventFailed, err.Error())
}

func (s *PaymentService) markEvent(ctx context.Context, ev *model.PaymentGatewayEventModel, status model.GatewayEventStatus, reason string) {
	if ev == nil {
		return
	}
	now := s.now()
	if err := s.DB.WithContext(ctx).Model(ev).Updates(map[string]any{
		"gateway_event_status":       status,
		"gateway_event_error":        strPtr(reason),
		"gateway_event_processed_at": now,
	}).Error; err != nil {
		log.Printf("[PAYMENT] ⚠️ gagal update gateway event %s: %v", ev.GatewayEventID, err)
	}
}
