package model

import (
	"time"

	feeModel "lms_backend/internals/features/finance/fees/model"
)

// Transition: hasil state machine aktivasi untuk satu enrollment
type Transition struct {
	Status    EnrollmentStatus
	FeeStatus EnrollmentFeeStatus
	IsActive  bool
	// true kalau ini aktivasi pertama (enrollment_date masih null)
	FirstActivation bool
}

// Changed: ada kolom yang berbeda dari baris saat ini
func (t Transition) Changed(cur EnrollmentModel) bool {
	return t.Status != cur.EnrollmentStatus ||
		t.FeeStatus != cur.EnrollmentFeeStatus ||
		t.IsActive != cur.EnrollmentIsActive ||
		t.FirstActivation
}

// NextTransition: pending → enrolled saat cicilan pertama verified,
// enrolled ⇄ suspended mengikuti isActive, completed tidak pernah berubah.
func NextTransition(cur EnrollmentModel, feeStatus feeModel.FeeStatus, insts []feeModel.FeeInstallmentModel, now time.Time) Transition {
	overdue := feeModel.HasOverdue(insts, now)

	fs := EnrollmentFeeStatus(feeStatus)
	if overdue {
		fs = EnrollmentFeeOverdue
	}

	if cur.EnrollmentStatus == EnrollmentCompleted {
		return Transition{Status: EnrollmentCompleted, FeeStatus: fs, IsActive: false}
	}

	firstVerified := feeModel.FirstInstallmentVerified(insts)
	active := firstVerified && !overdue

	next := Transition{Status: cur.EnrollmentStatus, FeeStatus: fs, IsActive: active}

	switch cur.EnrollmentStatus {
	case EnrollmentPending:
		if firstVerified {
			next.Status = EnrollmentEnrolled
			if !active {
				next.Status = EnrollmentSuspended
			}
		}
	case EnrollmentEnrolled:
		if !active {
			next.Status = EnrollmentSuspended
		}
	case EnrollmentSuspended:
		if active {
			next.Status = EnrollmentEnrolled
		}
	}

	next.FirstActivation = firstVerified && cur.EnrollmentDate == nil
	return next
}
