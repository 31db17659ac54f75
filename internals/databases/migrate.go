package database

import (
	"log"

	"gorm.io/gorm"

	certModel "lms_backend/internals/features/certificates/user_certificates/model"
	courseModel "lms_backend/internals/features/courses/courses/model"
	counterModel "lms_backend/internals/features/finance/counters/model"
	feeModel "lms_backend/internals/features/finance/fees/model"
	paymentModel "lms_backend/internals/features/finance/payments/model"
	notifModel "lms_backend/internals/features/home/notifications/model"
	attModel "lms_backend/internals/features/school/attendance/model"
	enrollModel "lms_backend/internals/features/school/enrollments/model"
	studentModel "lms_backend/internals/features/users/students/model"
)

// Models: urutan mengikuti dependensi FK (fees sebelum installments, days sebelum records)
func Models() []any {
	return []any{
		&studentModel.StudentModel{},
		&courseModel.CourseModel{},
		&counterModel.CounterModel{},
		&feeModel.FeeModel{},
		&feeModel.FeeInstallmentModel{},
		&enrollModel.EnrollmentModel{},
		&certModel.UserCertificate{},
		&attModel.AttendanceDayModel{},
		&attModel.AttendanceRecordModel{},
		&attModel.HolidaySettingModel{},
		&notifModel.NotificationModel{},
		&paymentModel.PaymentGatewayEventModel{},
	}
}

// AutoMigrate dijalankan saat start kalau DB_AUTO_MIGRATE=true
func AutoMigrate(db *gorm.DB) error {
	log.Println("🧱 AutoMigrate schema...")
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	log.Println("✅ AutoMigrate selesai")
	return nil
}
