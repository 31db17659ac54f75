package scheduler

import (
	"context"

	feeService "lms_backend/internals/features/finance/fees/service"
	attService "lms_backend/internals/features/school/attendance/service"
)

type BillingSweeper interface {
	RunBillingSweep(ctx context.Context) feeService.BillingSweepResult
}

type AttendanceLocker interface {
	RunAutoLock(ctx context.Context) attService.LockResult
}

type Specs struct {
	AttendanceLock string
	BillingSweep   string
}

// DefaultSpecs: 00:05 dan 00:15 waktu aplikasi
var DefaultSpecs = Specs{
	AttendanceLock: "5 0 * * *",
	BillingSweep:   "15 0 * * *",
}

// RegisterDefaults mendaftarkan dua job harian
func RegisterDefaults(s *Scheduler, specs Specs, billing BillingSweeper, attendance AttendanceLocker) error {
	if specs.AttendanceLock == "" {
		specs.AttendanceLock = DefaultSpecs.AttendanceLock
	}
	if specs.BillingSweep == "" {
		specs.BillingSweep = DefaultSpecs.BillingSweep
	}
	if err := s.Register(JobAttendanceLock, specs.AttendanceLock, func(ctx context.Context) any {
		return attendance.RunAutoLock(ctx)
	}); err != nil {
		return err
	}
	return s.Register(JobBillingSweep, specs.BillingSweep, func(ctx context.Context) any {
		return billing.RunBillingSweep(ctx)
	})
}
