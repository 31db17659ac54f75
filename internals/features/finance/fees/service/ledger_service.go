package service

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	counterService "lms_backend/internals/features/finance/counters/service"
	"lms_backend/internals/features/finance/fees/model"
	notifModel "lms_backend/internals/features/home/notifications/model"
	notifService "lms_backend/internals/features/home/notifications/service"
	enrollModel "lms_backend/internals/features/school/enrollments/model"
	studentModel "lms_backend/internals/features/users/students/model"
	"lms_backend/internals/helpers/dbtime"
	"lms_backend/internals/helpers/errs"
)

const DefaultRollNoCounter = "student_roll_no"

// ActivationSyncer: state machine enrollment, dijalankan di transaksi ledger
type ActivationSyncer interface {
	SyncActivation(ctx context.Context, tx *gorm.DB, fee model.FeeModel, insts []model.FeeInstallmentModel, now time.Time) (*enrollModel.EnrollmentModel, error)
}

// ReceiptDeleter: hapus objek bukti pembayaran (best-effort)
type ReceiptDeleter interface {
	DeleteReceipt(ctx context.Context, ref string) error
}

type LedgerService struct {
	DB            *gorm.DB
	Enrollments   ActivationSyncer
	Receipts      ReceiptDeleter        // nil = penghapusan objek dilewati
	Notifier      notifService.Notifier // nil = tanpa notifikasi
	RollNoCounter string
	Loc           *time.Location
	Now           func() time.Time

	// timeout hapus objek di background
	ReceiptDeleteTimeout time.Duration

	bg sync.WaitGroup
}

func NewLedgerService(db *gorm.DB, enrollments ActivationSyncer, loc *time.Location) *LedgerService {
	if loc == nil {
		loc = time.UTC
	}
	return &LedgerService{
		DB:                   db,
		Enrollments:          enrollments,
		RollNoCounter:        DefaultRollNoCounter,
		Loc:                  loc,
		Now:                  time.Now,
		ReceiptDeleteTimeout: 15 * time.Second,
	}
}

func (s *LedgerService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// WaitBackground menunggu penghapusan receipt yang masih berjalan
func (s *LedgerService) WaitBackground() { s.bg.Wait() }

type SubmitInput struct {
	ReceiptRef string
	SlipID     *string
	// diisi kalau pemanggil adalah murid: fee harus miliknya
	StudentID *uuid.UUID
}

type VerifyResult struct {
	Fee         model.FeeModel               `json:"fee"`
	Installment model.FeeInstallmentModel    `json:"installment"`
	RollNo      *string                      `json:"roll_no,omitempty"`
	Enrollment  *enrollModel.EnrollmentModel `json:"enrollment,omitempty"`
}

/* =========================================================
   SUBMIT - murid mengirim bukti pembayaran
========================================================= */

func (s *LedgerService) SubmitPayment(ctx context.Context, feeID, installmentID uuid.UUID, in SubmitInput) (*model.FeeInstallmentModel, error) {
	ref := strings.TrimSpace(in.ReceiptRef)
	if ref == "" {
		return nil, errs.InvariantViolation("receipt_ref wajib diisi")
	}

	fee, err := s.loadFee(ctx, s.DB, feeID, false)
	if err != nil {
		return nil, err
	}
	if in.StudentID != nil && *in.StudentID != fee.FeeStudentID {
		return nil, errs.NotFound("fee %s", feeID)
	}

	now := s.now()
	res := s.DB.WithContext(ctx).Model(&model.FeeInstallmentModel{}).
		Where("fee_installment_id = ? AND fee_installment_fee_id = ? AND fee_installment_status IN ?",
			installmentID, feeID, model.PayableStatuses).
		Updates(map[string]any{
			"fee_installment_status":      model.InstallmentSubmitted,
			"fee_installment_receipt_ref": ref,
			"fee_installment_slip_id":     in.SlipID,
			"fee_installment_paid_at":     now,
			"fee_installment_updated_at":  now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, s.classifyMiss(ctx, s.DB, feeID, installmentID, "submit")
	}

	inst, err := s.loadInstallment(ctx, s.DB, feeID, installmentID)
	if err != nil {
		return nil, err
	}

	log.Printf("[LEDGER] 📨 submitted fee=%s seq=%d amount=%d", feeID, inst.FeeInstallmentSeq, inst.FeeInstallmentAmount)
	s.publish(notifService.Event{
		Type:        notifModel.TypePaymentSubmitted,
		Title:       "Bukti pembayaran diterima",
		Description: "Menunggu verifikasi admin",
		StudentID:   &fee.FeeStudentID,
		Tags:        []string{"fee", "installment"},
		Payload: map[string]any{
			"fee_id":         feeID,
			"installment_id": installmentID,
			"seq":            inst.FeeInstallmentSeq,
			"amount":         inst.FeeInstallmentAmount,
		},
	})
	return inst, nil
}

/* =========================================================
   VERIFY - satu transaksi: status, total, roll number, aktivasi
========================================================= */

func (s *LedgerService) VerifyInstallment(ctx context.Context, feeID, installmentID uuid.UUID, verifierID string) (*VerifyResult, error) {
	now := s.now()
	var (
		out      VerifyResult
		priorRef *string
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fee, err := s.loadFee(ctx, tx, feeID, true)
		if err != nil {
			return err
		}

		// lock baris: submit yang berjalan bersamaan menunggu, ref yang dibaca = ref yang dihapus
		var before model.FeeInstallmentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("fee_installment_id = ? AND fee_installment_fee_id = ?", installmentID, feeID).
			Take(&before).Error; err != nil {
			return errs.FromGorm(err, "installment %s pada fee %s", installmentID, feeID)
		}
		priorRef = before.FeeInstallmentReceiptRef

		var verifiedBy *string
		if v := strings.TrimSpace(verifierID); v != "" {
			verifiedBy = &v
		}

		res := tx.Model(&model.FeeInstallmentModel{}).
			Where("fee_installment_id = ? AND fee_installment_fee_id = ? AND fee_installment_status IN ?",
				installmentID, feeID, model.VerifiableStatuses).
			Updates(map[string]any{
				"fee_installment_status":      model.InstallmentVerified,
				"fee_installment_verified_by": verifiedBy,
				"fee_installment_verified_at": now,
				"fee_installment_receipt_ref": nil,
				"fee_installment_updated_at":  now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return s.classifyMiss(ctx, tx, feeID, installmentID, "verify")
		}

		insts, err := s.recomputeFee(ctx, tx, fee, now)
		if err != nil {
			return err
		}

		rollNo, err := s.ensureRollNo(ctx, tx, fee)
		if err != nil {
			return err
		}

		var enr *enrollModel.EnrollmentModel
		if s.Enrollments != nil {
			if enr, err = s.Enrollments.SyncActivation(ctx, tx, *fee, insts, now); err != nil {
				return err
			}
		}

		for _, it := range insts {
			if it.FeeInstallmentID == installmentID {
				out.Installment = it
			}
		}
		fee.Installments = insts
		out.Fee = *fee
		out.RollNo = rollNo
		out.Enrollment = enr
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[LEDGER] ✅ verified fee=%s seq=%d paid=%d/%d status=%s",
		feeID, out.Installment.FeeInstallmentSeq, out.Fee.FeePaidAmount, out.Fee.FeeTotalAmount, out.Fee.FeeStatus)

	if priorRef != nil {
		s.deleteReceiptAsync(*priorRef)
	}
	s.publish(notifService.Event{
		Type:      notifModel.TypePaymentVerified,
		Title:     "Pembayaran terverifikasi",
		StudentID: &out.Fee.FeeStudentID,
		Tags:      []string{"fee", "installment"},
		Payload: map[string]any{
			"fee_id":         feeID,
			"installment_id": installmentID,
			"fee_status":     out.Fee.FeeStatus,
		},
	})
	return &out, nil
}

// ensureRollNo: roll number per student, diberikan sekali.
// Baris student dikunci sehingga verifikasi paralel (course berbeda) tetap satu nomor.
func (s *LedgerService) ensureRollNo(ctx context.Context, tx *gorm.DB, fee *model.FeeModel) (*string, error) {
	var student studentModel.StudentModel
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ?", fee.FeeStudentID).
		Take(&student).Error; err != nil {
		return nil, errs.FromGorm(err, "student %s", fee.FeeStudentID)
	}

	if student.StudentRollNo == nil {
		rollNo, err := counterService.AssignNextRollNo(ctx, tx, s.counterName())
		if err != nil {
			return nil, err
		}
		if err := tx.Model(&studentModel.StudentModel{}).
			Where("student_id = ? AND student_roll_no IS NULL", student.StudentID).
			Updates(map[string]any{
				"student_roll_no":    rollNo,
				"student_updated_at": s.now(),
			}).Error; err != nil {
			return nil, err
		}
		student.StudentRollNo = &rollNo
		log.Printf("[LEDGER] 🎫 roll number %s → student=%s", rollNo, student.StudentID)
	}

	if !fee.FeeRollNoAssigned {
		if err := tx.Model(&model.FeeModel{}).
			Where("fee_id = ?", fee.FeeID).
			Update("fee_roll_no_assigned", true).Error; err != nil {
			return nil, err
		}
		fee.FeeRollNoAssigned = true
	}
	return student.StudentRollNo, nil
}

func (s *LedgerService) counterName() string {
	if strings.TrimSpace(s.RollNoCounter) == "" {
		return DefaultRollNoCounter
	}
	return s.RollNoCounter
}

/* =========================================================
   REJECT - bukti ditolak, total fee tidak berubah
========================================================= */

func (s *LedgerService) RejectInstallment(ctx context.Context, feeID, installmentID uuid.UUID) (*model.FeeInstallmentModel, error) {
	now := s.now()
	var (
		out      *model.FeeInstallmentModel
		priorRef *string
		fee      *model.FeeModel
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if fee, err = s.loadFee(ctx, tx, feeID, false); err != nil {
			return err
		}

		var before model.FeeInstallmentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("fee_installment_id = ? AND fee_installment_fee_id = ?", installmentID, feeID).
			Take(&before).Error; err != nil {
			return errs.FromGorm(err, "installment %s", installmentID)
		}
		priorRef = before.FeeInstallmentReceiptRef

		res := tx.Model(&model.FeeInstallmentModel{}).
			Where("fee_installment_id = ? AND fee_installment_fee_id = ? AND fee_installment_status IN ?",
				installmentID, feeID, model.RejectableStatuses).
			Updates(map[string]any{
				"fee_installment_status":      model.InstallmentRejected,
				"fee_installment_receipt_ref": nil,
				"fee_installment_slip_id":     nil,
				"fee_installment_paid_at":     nil,
				"fee_installment_updated_at":  now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return s.classifyMiss(ctx, tx, feeID, installmentID, "reject")
		}

		out, err = s.loadInstallment(ctx, tx, feeID, installmentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[LEDGER] ❌ rejected fee=%s seq=%d", feeID, out.FeeInstallmentSeq)
	if priorRef != nil {
		s.deleteReceiptAsync(*priorRef)
	}
	s.publish(notifService.Event{
		Type:      notifModel.TypePaymentRejected,
		Title:     "Bukti pembayaran ditolak",
		StudentID: &fee.FeeStudentID,
		Tags:      []string{"fee", "installment"},
		Payload:   map[string]any{"fee_id": feeID, "installment_id": installmentID},
	})
	return out, nil
}

/* =========================================================
   PLAN - ganti jadwal cicilan yang belum dibayar
========================================================= */

// SetInstallmentPlan: installment submitted/verified (atau yang masih membawa bukti bayar)
// dipertahankan apa adanya, sisanya diganti schedule[k:] dengan k = jumlah yang dipertahankan.
func (s *LedgerService) SetInstallmentPlan(ctx context.Context, feeID uuid.UUID, schedule []model.PlannedInstallment) (*model.FeeModel, error) {
	if len(schedule) == 0 {
		return nil, errs.InvariantViolation("jadwal cicilan tidak boleh kosong")
	}
	for i, p := range schedule {
		if p.Amount <= 0 {
			return nil, errs.InvariantViolation("installment #%d: amount harus > 0", i+1)
		}
	}

	now := s.now()
	var out *model.FeeModel

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fee, err := s.loadFee(ctx, tx, feeID, true)
		if err != nil {
			return err
		}

		// overdue yang masih membawa bukti bayar (submitted lalu lewat grace) ikut dipertahankan
		if err := tx.Where("fee_installment_fee_id = ? AND fee_installment_status NOT IN ?", feeID, model.PreservedStatuses).
			Where("fee_installment_receipt_ref IS NULL AND fee_installment_paid_at IS NULL").
			Delete(&model.FeeInstallmentModel{}).Error; err != nil {
			return err
		}

		// baca ulang setelah delete: submit yang lolos di antara keduanya ikut terhitung
		preserved, err := s.listInstallments(ctx, tx, feeID)
		if err != nil {
			return err
		}
		k := len(preserved)
		if len(schedule) < k {
			return errs.InvariantViolation("jadwal baru berisi %d cicilan, minimal %d (sudah dibayar/diajukan)", len(schedule), k)
		}

		plan := make([]model.PlannedInstallment, 0, len(schedule)-k)
		for _, p := range schedule[k:] {
			plan = append(plan, model.PlannedInstallment{Amount: p.Amount, DueDate: dbtime.MidnightUTC(p.DueDate)})
		}
		if len(plan) > 0 {
			rows := model.BuildInstallments(feeID, model.LastSeq(preserved)+1, plan)
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		insts, err := s.recomputeFee(ctx, tx, fee, now)
		if err != nil {
			return err
		}
		if s.Enrollments != nil {
			if _, err := s.Enrollments.SyncActivation(ctx, tx, *fee, insts, now); err != nil {
				return err
			}
		}

		fee.Installments = insts
		out = fee
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[LEDGER] 🗓️ plan updated fee=%s installments=%d total=%d", feeID, len(out.Installments), out.FeeTotalAmount)
	return out, nil
}

/* =========================================================
   READ
========================================================= */

func (s *LedgerService) GetFee(ctx context.Context, feeID uuid.UUID) (*model.FeeModel, error) {
	fee, err := s.loadFee(ctx, s.DB, feeID, false)
	if err != nil {
		return nil, err
	}
	if fee.Installments, err = s.listInstallments(ctx, s.DB, feeID); err != nil {
		return nil, err
	}
	return fee, nil
}

// GetStudentFee: seperti GetFee tapi hanya kalau fee milik studentID
func (s *LedgerService) GetStudentFee(ctx context.Context, studentID, feeID uuid.UUID) (*model.FeeModel, error) {
	fee, err := s.GetFee(ctx, feeID)
	if err != nil {
		return nil, err
	}
	if fee.FeeStudentID != studentID {
		return nil, errs.NotFound("fee %s", feeID)
	}
	return fee, nil
}

func (s *LedgerService) ListStudentFees(ctx context.Context, studentID uuid.UUID) ([]model.FeeModel, error) {
	var fees []model.FeeModel
	if err := s.DB.WithContext(ctx).
		Preload("Installments", func(db *gorm.DB) *gorm.DB { return db.Order("fee_installment_seq ASC") }).
		Where("fee_student_id = ?", studentID).
		Order("fee_created_at ASC").
		Find(&fees).Error; err != nil {
		return nil, err
	}
	return fees, nil
}

/* =========================================================
   Internal helpers
========================================================= */

func (s *LedgerService) loadFee(ctx context.Context, db *gorm.DB, feeID uuid.UUID, lock bool) (*model.FeeModel, error) {
	q := db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var fee model.FeeModel
	if err := q.Where("fee_id = ?", feeID).Take(&fee).Error; err != nil {
		return nil, errs.FromGorm(err, "fee %s", feeID)
	}
	return &fee, nil
}

func (s *LedgerService) loadInstallment(ctx context.Context, db *gorm.DB, feeID, installmentID uuid.UUID) (*model.FeeInstallmentModel, error) {
	var inst model.FeeInstallmentModel
	if err := db.WithContext(ctx).
		Where("fee_installment_id = ? AND fee_installment_fee_id = ?", installmentID, feeID).
		Take(&inst).Error; err != nil {
		return nil, errs.FromGorm(err, "installment %s pada fee %s", installmentID, feeID)
	}
	return &inst, nil
}

func (s *LedgerService) listInstallments(ctx context.Context, db *gorm.DB, feeID uuid.UUID) ([]model.FeeInstallmentModel, error) {
	var insts []model.FeeInstallmentModel
	err := db.WithContext(ctx).
		Where("fee_installment_fee_id = ?", feeID).
		Order("fee_installment_seq ASC").
		Find(&insts).Error
	return insts, err
}

// classifyMiss: conditional update tidak mengenai baris → NotFound atau InvalidState
func (s *LedgerService) classifyMiss(ctx context.Context, db *gorm.DB, feeID, installmentID uuid.UUID, op string) error {
	inst, err := s.loadInstallment(ctx, db, feeID, installmentID)
	if err != nil {
		return err
	}
	return errs.InvalidState("%s tidak diizinkan: installment #%d berstatus %s", op, inst.FeeInstallmentSeq, inst.FeeInstallmentStatus)
}

// recomputeFee: paid = Σ verified, total = Σ semua installment, status turunan
func (s *LedgerService) recomputeFee(ctx context.Context, tx *gorm.DB, fee *model.FeeModel, now time.Time) ([]model.FeeInstallmentModel, error) {
	insts, err := s.listInstallments(ctx, tx, fee.FeeID)
	if err != nil {
		return nil, err
	}
	fee.FeePaidAmount = model.PaidAmount(insts)
	fee.FeeTotalAmount = model.TotalAmount(insts)
	fee.FeeStatus = model.DeriveFeeStatus(fee.FeeTotalAmount, fee.FeePaidAmount)
	fee.FeeUpdatedAt = now

	if err := tx.Model(&model.FeeModel{}).
		Where("fee_id = ?", fee.FeeID).
		Updates(map[string]any{
			"fee_paid_amount":  fee.FeePaidAmount,
			"fee_total_amount": fee.FeeTotalAmount,
			"fee_status":       fee.FeeStatus,
			"fee_updated_at":   now,
		}).Error; err != nil {
		return nil, err
	}
	return insts, nil
}

// deleteReceiptAsync: ref sudah dilepas dari ledger, kegagalan hanya dicatat
func (s *LedgerService) deleteReceiptAsync(ref string) {
	if s.Receipts == nil || strings.TrimSpace(ref) == "" {
		return
	}
	timeout := s.ReceiptDeleteTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.Receipts.DeleteReceipt(ctx, ref); err != nil {
			log.Printf("[OSS] ⚠️ gagal hapus receipt %s: %v", ref, errs.Transient("%v", err))
			return
		}
		log.Printf("[OSS] 🗑️ receipt dihapus: %s", ref)
	}()
}

func (s *LedgerService) publish(ev notifService.Event) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Publish(ev)
}
