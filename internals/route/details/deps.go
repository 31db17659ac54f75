package details

import (
	"gorm.io/gorm"

	certService "lms_backend/internals/features/certificates/user_certificates/service"
	feeService "lms_backend/internals/features/finance/fees/service"
	paymentService "lms_backend/internals/features/finance/payments/service"
	attService "lms_backend/internals/features/school/attendance/service"
	enrollService "lms_backend/internals/features/school/enrollments/service"
	osshelper "lms_backend/internals/helpers/oss"
	"lms_backend/internals/scheduler"
)

// Deps: service yang sudah dirakit di main, dibagikan ke semua group route
type Deps struct {
	DB           *gorm.DB
	Ledger       *feeService.LedgerService
	Enrollments  *enrollService.Service
	Certificates *certService.Service
	Attendance   *attService.Service
	Payments     *paymentService.PaymentService
	Receipts     osshelper.ReceiptStore // nil → upload bukti dimatikan
	Scheduler    *scheduler.Scheduler
}
