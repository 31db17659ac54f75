// file: internals/features/finance/fees/model/fee_rules.go
package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Fungsi murni turunan state ledger. Dipakai ledger, sweep, dan enrollment
// sehingga jalur request dan jalur scheduler menghitung hal yang sama.

const (
	OverdueGrace          = 7 * 24 * time.Hour
	NextInstallmentWindow = 30 * 24 * time.Hour
	NextInstallmentDueIn  = 7 * 24 * time.Hour
)

func statusIn(s InstallmentStatus, set []InstallmentStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func (s InstallmentStatus) In(set ...InstallmentStatus) bool { return statusIn(s, set) }

func (s InstallmentStatus) Valid() bool {
	return statusIn(s, []InstallmentStatus{
		InstallmentPending, InstallmentSubmitted, InstallmentVerified, InstallmentRejected, InstallmentOverdue,
	})
}

// SortedBySeq: salinan terurut seq naik (input tidak diubah)
func SortedBySeq(in []FeeInstallmentModel) []FeeInstallmentModel {
	out := make([]FeeInstallmentModel, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].FeeInstallmentSeq < out[j].FeeInstallmentSeq })
	return out
}

// PaidAmount = Σ amount installment berstatus verified
func PaidAmount(insts []FeeInstallmentModel) int64 {
	var sum int64
	for _, it := range insts {
		if it.FeeInstallmentStatus == InstallmentVerified {
			sum += it.FeeInstallmentAmount
		}
	}
	return sum
}

// TotalAmount = Σ amount semua installment
func TotalAmount(insts []FeeInstallmentModel) int64 {
	var sum int64
	for _, it := range insts {
		sum += it.FeeInstallmentAmount
	}
	return sum
}

func DeriveFeeStatus(total, paid int64) FeeStatus {
	switch {
	case paid <= 0:
		return FeeStatusPending
	case paid < total:
		return FeeStatusPartial
	default:
		return FeeStatusVerified
	}
}

// IsOverdue: sudah ditandai overdue, atau belum terverifikasi dan lewat > 7 hari dari jatuh tempo
func IsOverdue(it FeeInstallmentModel, now time.Time) bool {
	if it.FeeInstallmentStatus == InstallmentOverdue {
		return true
	}
	if !it.FeeInstallmentStatus.In(OverdueCandidateStatuses...) {
		return false
	}
	return now.Sub(it.FeeInstallmentDueDate) > OverdueGrace
}

func HasOverdue(insts []FeeInstallmentModel, now time.Time) bool {
	for _, it := range insts {
		if IsOverdue(it, now) {
			return true
		}
	}
	return false
}

// FirstInstallmentVerified: installment dengan seq terkecil sudah verified
func FirstInstallmentVerified(insts []FeeInstallmentModel) bool {
	if len(insts) == 0 {
		return false
	}
	return SortedBySeq(insts)[0].FeeInstallmentStatus == InstallmentVerified
}

// ComputeIsActive = firstInstallmentVerified AND NOT overdue.
// Cicilan jatuh tempo berurutan, jadi installment overdue yang ada selalu
// installment terakhir yang sudah jatuh tempo.
func ComputeIsActive(insts []FeeInstallmentModel, now time.Time) bool {
	return FirstInstallmentVerified(insts) && !HasOverdue(insts, now)
}

// NeedsNextInstallment: syarat ledger untuk generator (tanpa cek sertifikat)
func NeedsNextInstallment(insts []FeeInstallmentModel, now time.Time) bool {
	if !FirstInstallmentVerified(insts) {
		return false
	}
	sorted := SortedBySeq(insts)
	last := sorted[len(sorted)-1]
	return now.Sub(last.FeeInstallmentDueDate) > NextInstallmentWindow
}

// LastSeq: seq terbesar (0 kalau kosong)
func LastSeq(insts []FeeInstallmentModel) int {
	maxSeq := 0
	for _, it := range insts {
		if it.FeeInstallmentSeq > maxSeq {
			maxSeq = it.FeeInstallmentSeq
		}
	}
	return maxSeq
}

// FirstAmount: amount installment pertama (fallback harga generator)
func FirstAmount(insts []FeeInstallmentModel) int64 {
	if len(insts) == 0 {
		return 0
	}
	return SortedBySeq(insts)[0].FeeInstallmentAmount
}

// PlannedInstallment: satu baris rencana cicilan (amount + jatuh tempo)
type PlannedInstallment struct {
	Amount  int64
	DueDate time.Time
}

// BuildInstallments: rencana → baris installment berstatus pending, seq mulai dari firstSeq
func BuildInstallments(feeID uuid.UUID, firstSeq int, plan []PlannedInstallment) []FeeInstallmentModel {
	out := make([]FeeInstallmentModel, 0, len(plan))
	for i, p := range plan {
		out = append(out, FeeInstallmentModel{
			FeeInstallmentFeeID:   feeID,
			FeeInstallmentSeq:     firstSeq + i,
			FeeInstallmentAmount:  p.Amount,
			FeeInstallmentDueDate: p.DueDate,
			FeeInstallmentStatus:  InstallmentPending,
		})
	}
	return out
}

func PlanTotal(plan []PlannedInstallment) int64 {
	var sum int64
	for _, p := range plan {
		sum += p.Amount
	}
	return sum
}
