package service

import (
	"context"
	"time"

	certModel "lms_backend/internals/features/certificates/user_certificates/model"
	"lms_backend/internals/features/finance/fees/model"
	enrollModel "lms_backend/internals/features/school/enrollments/model"
)

/* =========================================================
   Overdue evaluator
========================================================= */

func (s *LedgerSuite) TestScenarioB_OnTimeSingleInstallmentStaysActive() {
	st := s.newStudent("Kiki")
	d := s.newEnrollment(st.StudentID, s.newCourse("3000").CourseID,
		model.PlannedInstallment{Amount: 3000, DueDate: day("2026-01-01")})

	_, err := s.ledger.VerifyInstallment(s.ctx, d.FeeID, d.Installments[0].FeeInstallmentID, "admin")
	s.Require().NoError(err)

	s.at("2026-01-10")
	res := s.ledger.RunOverdueSweep(s.ctx)
	s.Equal(1, res.Total)
	s.Equal(0, res.Changed)
	s.Equal(0, res.Failed)

	enr := s.reloadEnrollment(d.Enrollment.EnrollmentID)
	s.Equal(enrollModel.EnrollmentEnrolled, enr.EnrollmentStatus)
	s.True(enr.EnrollmentIsActive)
}

func (s *LedgerSuite) TestScenarioC_OverdueSecondInstallmentSuspendsThenPaymentRestores() {
	s.at("2025-12-01")
	st := s.newStudent("Lina")
	course := s.newCourse("3000")
	d := s.newEnrollment(st.StudentID, course.CourseID,
		model.PlannedInstallment{Amount: 3000, DueDate: day("2025-12-01")},
		model.PlannedInstallment{Amount: 3000, DueDate: day("2026-01-01")},
	)
	_, err := s.ledger.VerifyInstallment(s.ctx, d.FeeID, d.Installments[0].FeeInstallmentID, "admin")
	s.Require().NoError(err)

	s.at("2026-01-10")
	res := s.ledger.RunOverdueSweep(s.ctx)
	s.Equal(1, res.Total)
	s.Equal(1, res.Changed)

	fee := s.assertPaidInvariant(d.FeeID)
	s.Equal(model.InstallmentOverdue, fee.Installments[1].FeeInstallmentStatus)
	s.Equal(int64(3000), fee.FeePaidAmount)

	enr := s.reloadEnrollment(d.Enrollment.EnrollmentID)
	s.Equal(enrollModel.EnrollmentSuspended, enr.EnrollmentStatus)
	s.Equal(enrollModel.EnrollmentFeeOverdue, enr.EnrollmentFeeStatus)
	s.False(enr.EnrollmentIsActive)

	// idempoten: enrollment sudah suspended, tidak ada yang diproses
	again := s.ledger.RunOverdueSweep(s.ctx)
	s.Equal(0, again.Total)
	s.Equal(0, again.Changed)

	// overdue tetap bisa dibayar
	_, err = s.ledger.SubmitPayment(s.ctx, d.FeeID, d.Installments[1].FeeInstallmentID, SubmitInput{ReceiptRef: "receipts/late.png"})
	s.Require().NoError(err)
	vr, err := s.ledger.VerifyInstallment(s.ctx, d.FeeID, d.Installments[1].FeeInstallmentID, "admin")
	s.Require().NoError(err)
	s.Equal(model.FeeStatusVerified, vr.Fee.FeeStatus)

	enr = s.reloadEnrollment(d.Enrollment.EnrollmentID)
	s.Equal(enrollModel.EnrollmentEnrolled, enr.EnrollmentStatus)
	s.True(enr.EnrollmentIsActive)
	s.Equal(1, s.reloadCourse(course.CourseID).CourseEnrolledCount)
}

func (s *LedgerSuite) TestOverdue_GraceBoundaryIsExclusive() {
	s.at("2025-12-01")
	st := s.newStudent("Mira")
	d := s.newEnrollment(st.StudentID, s.newCourse("3000").CourseID,
		model.PlannedInstallment{Amount: 1000, DueDate: day("2025-12-01")},
		model.PlannedInstallment{Amount: 1000, DueDate: day("2026-01-01")},
	)
	_, err := s.ledger.VerifyInstallment(s.ctx, d.FeeID, d.Installments[0].FeeInstallmentID, "admin")
	s.Require().NoError(err)

	// tepat 7 hari setelah jatuh tempo: belum overdue
	s.clock = day("2026-01-08")
	res := s.ledger.RunOverdueSweep(s.ctx)
	s.Equal(0, res.Changed)

	s.clock = day("2026-01-08").Add(time.Second)
	res = s.ledger.RunOverdueSweep(s.ctx)
	s.Equal(1, res.Changed)
}

func (s *LedgerSuite) TestOverdue_CancelledContextCountsFailed() {
	st := s.newStudent("Nia")
	d := s.newEnrollment(st.StudentID, s.newCourse("3000").CourseID)
	_, err := s.ledger.VerifyInstallment(s.ctx, d.FeeID, d.Installments[0].FeeInstallmentID, "admin")
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	res := s.ledger.RunOverdueSweep(ctx)
	s.Equal(1, res.Failed)
	s.Len(res.Errors, 1)
}

/* =========================================================
   Installment generator
========================================================= */

func (s *LedgerSuite) TestGenerator_AddsNextInstallmentOncePerWindow() {
	st := s.newStudent("Oki")
	course := s.newCourse("Rp 3.500")
	d := s.newEnrollment(st.StudentID, course.CourseID,
		model.PlannedInstallment{Amount: 3000, DueDate: day("2026-01-01")})
	_, err := s.ledger.VerifyInstallment(s.ctx, d.FeeID, d.Installments[0].FeeInstallmentID, "admin")
	s.Require().NoError(err)

	// belum lewat 30 hari
	s.at("2026-01-31")
	s.Equal(0, s.ledger.RunInstallmentGenerator(s.ctx).Changed)

	s.at("2026-02-01")
	res := s.ledger.RunInstallmentGenerator(s.ctx)
	s.Equal(1, res.Changed)

	fee := s.assertPaidInvariant(d.FeeID)
	s.Require().Len(fee.Installments, 2)
	next := fee.Installments[1]
	s.Equal(2, next.FeeInstallmentSeq)
	s.Equal(int64(3500), next.FeeInstallmentAmount)
	s.Equal(model.InstallmentPending, next.FeeInstallmentStatus)
	s.True(day("2026-02-08").Equal(next.FeeInstallmentDueDate.UTC()))
	s.Equal(int64(6500), fee.FeeTotalAmount)
	s.Equal(model.FeeStatusPartial, fee.FeeStatus)

	enr := s.reloadEnrollment(d.Enrollment.EnrollmentID)
	s.Equal(enrollModel.EnrollmentFeePartial, enr.EnrollmentFeeStatus)
	s.True(enr.EnrollmentIsActive)

	// run kedua di hari yang sama tidak menggandakan
	s.Equal(0, s.ledger.RunInstallmentGenerator(s.ctx).Changed)
	fee = s.assertPaidInvariant(d.FeeID)
	s.Len(fee.Installments, 2)
}

func (s *LedgerSuite) TestGenerator_FallsBackToFirstAmount() {
	st := s.newStudent("Putri")
	d := s.newEnrollment(st.StudentID, s.newCourse("3000").CourseID,
		model.PlannedInstallment{Amount: 2500, DueDate: day("2026-01-01")})
	_, err := s.ledger.VerifyInstallment(s.ctx, d.FeeID, d.Installments[0].FeeInstallmentID, "admin")
	s.Require().NoError(err)

	s.Require().NoError(s.db.Exec("UPDATE courses SET course_fee = ?", "gratis").Error)

	s.at("2026-02-15")
	s.Equal(1, s.ledger.RunInstallmentGenerator(s.ctx).Changed)
	fee := s.assertPaidInvariant(d.FeeID)
	s.Require().Len(fee.Installments, 2)
	s.Equal(int64(2500), fee.Installments[1].FeeInstallmentAmount)
}

func (s *LedgerSuite) TestGenerator_SkipsCertifiedAndUnpaid() {
	course := s.newCourse("3000")

	certified := s.newStudent("Qori")
	dc := s.newEnrollment(certified.StudentID, course.CourseID,
		model.PlannedInstallment{Amount: 3000, DueDate: day("2026-01-01")})
	_, err := s.ledger.VerifyInstallment(s.ctx, dc.FeeID, dc.Installments[0].FeeInstallmentID, "admin")
	s.Require().NoError(err)
	s.Require().NoError(s.db.Create(&certModel.UserCertificate{
		UserCertStudentID: certified.StudentID,
		UserCertCourseID:  course.CourseID,
		UserCertIssuedBy:  "admin",
		UserCertIssuedAt:  s.clock,
	}).Error)

	// cicilan pertama belum verified → tidak pernah digenerate
	unpaid := s.newStudent("Rudi")
	du := s.newEnrollment(unpaid.StudentID, course.CourseID,
		model.PlannedInstallment{Amount: 3000, DueDate: day("2026-01-01")})

	s.at("2026-03-01")
	res := s.ledger.RunInstallmentGenerator(s.ctx)
	s.Equal(2, res.Total)
	s.Equal(1, res.Skipped)
	s.Equal(0, res.Changed)

	fee, err := s.ledger.GetFee(s.ctx, dc.FeeID)
	s.Require().NoError(err)
	s.Len(fee.Installments, 1)
	fee, err = s.ledger.GetFee(s.ctx, du.FeeID)
	s.Require().NoError(err)
	s.Len(fee.Installments, 1)
}

func (s *LedgerSuite) TestGenerator_SkipsCompletedEnrollment() {
	s.at("2025-11-01")
	st := s.newStudent("Tono")
	course := s.newCourse("3000")
	d := s.newEnrollment(st.StudentID, course.CourseID,
		model.PlannedInstallment{Amount: 3000, DueDate: day("2025-11-01")})
	_, err := s.ledger.VerifyInstallment(s.ctx, d.FeeID, d.Installments[0].FeeInstallmentID, "admin")
	s.Require().NoError(err)

	// selesai tanpa sertifikat
	_, err = s.enroll.CompleteEnrollment(s.ctx, st.StudentID, course.CourseID)
	s.Require().NoError(err)

	s.at("2026-01-10")
	res := s.ledger.RunInstallmentGenerator(s.ctx)
	s.Equal(0, res.Changed)
	s.Equal(1, res.Skipped)

	fee := s.assertPaidInvariant(d.FeeID)
	s.Len(fee.Installments, 1)
	s.Equal(model.FeeStatusVerified, fee.FeeStatus)
	s.Equal(enrollModel.EnrollmentCompleted, s.reloadEnrollment(d.Enrollment.EnrollmentID).EnrollmentStatus)
}

func (s *LedgerSuite) TestBillingSweep_GeneratedInstallmentLaterGoesOverdue() {
	st := s.newStudent("Sari")
	d := s.newEnrollment(st.StudentID, s.newCourse("3000").CourseID,
		model.PlannedInstallment{Amount: 3000, DueDate: day("2026-01-01")})
	_, err := s.ledger.VerifyInstallment(s.ctx, d.FeeID, d.Installments[0].FeeInstallmentID, "admin")
	s.Require().NoError(err)

	s.at("2026-02-01")
	out := s.ledger.RunBillingSweep(s.ctx)
	s.Equal(1, out.Generator.Changed)
	s.Equal(0, out.Overdue.Changed)

	// jatuh tempo 2026-02-08, lewat grace 7 hari
	s.at("2026-02-16")
	out = s.ledger.RunBillingSweep(s.ctx)
	s.Equal(0, out.Generator.Changed)
	s.Equal(1, out.Overdue.Changed)

	enr := s.reloadEnrollment(d.Enrollment.EnrollmentID)
	s.Equal(enrollModel.EnrollmentSuspended, enr.EnrollmentStatus)
	s.False(enr.EnrollmentIsActive)
}
