package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	certModel "lms_backend/internals/features/certificates/user_certificates/model"
	courseModel "lms_backend/internals/features/courses/courses/model"
	counterModel "lms_backend/internals/features/finance/counters/model"
	feeModel "lms_backend/internals/features/finance/fees/model"
	feeService "lms_backend/internals/features/finance/fees/service"
	"lms_backend/internals/features/finance/payments/model"
	enrollModel "lms_backend/internals/features/school/enrollments/model"
	enrollService "lms_backend/internals/features/school/enrollments/service"
	studentModel "lms_backend/internals/features/users/students/model"
	"lms_backend/internals/helpers/errs"
	"lms_backend/internals/helpers/testdb"
)

const testServerKey = "SB-Mid-server-test"

type fakeSnap struct {
	reqs []*snap.Request
	err  *midtrans.Error
}

func (f *fakeSnap) CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &snap.Response{Token: "snap-token", RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/snap-token"}, nil
}

type fixture struct {
	db      *gorm.DB
	svc     *PaymentService
	snap    *fakeSnap
	student studentModel.StudentModel
	detail  *enrollService.EnrollmentDetail
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t,
		&studentModel.StudentModel{},
		&courseModel.CourseModel{},
		&counterModel.CounterModel{},
		&feeModel.FeeModel{},
		&feeModel.FeeInstallmentModel{},
		&enrollModel.EnrollmentModel{},
		&certModel.UserCertificate{},
		&model.PaymentGatewayEventModel{},
	)
	now := func() time.Time { return time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC) }

	enroll := enrollService.New(db, time.UTC)
	enroll.Now = now
	ledger := feeService.NewLedgerService(db, enroll, time.UTC)
	ledger.Now = now

	email := "ani@example.com"
	st := studentModel.StudentModel{StudentName: "Ani", StudentEmail: &email}
	require.NoError(t, db.Create(&st).Error)
	course := courseModel.CourseModel{CourseName: "Tahsin", CourseFee: "3000", CourseIsActive: true}
	require.NoError(t, db.Create(&course).Error)
	d, err := enroll.CreateEnrollment(context.Background(), enrollService.CreateInput{StudentID: st.StudentID, CourseID: course.CourseID})
	require.NoError(t, err)

	fs := &fakeSnap{}
	svc := New(db, ledger, fs, testServerKey)
	svc.Now = now
	return &fixture{db: db, svc: svc, snap: fs, student: st, detail: d}
}

func (f *fixture) inst() feeModel.FeeInstallmentModel { return f.detail.Installments[0] }

func (f *fixture) notif(orderID, status, fraud, gross string) Notification {
	return Notification{
		OrderID:           orderID,
		StatusCode:        "200",
		GrossAmount:       gross,
		TransactionStatus: status,
		FraudStatus:       fraud,
		TransactionID:     "trx-" + status,
		SignatureKey:      Signature(orderID, "200", gross, testServerKey),
	}
}

func (f *fixture) events(t *testing.T) []model.PaymentGatewayEventModel {
	t.Helper()
	var evs []model.PaymentGatewayEventModel
	require.NoError(t, f.db.Find(&evs).Error)
	return evs
}

func TestOrderID_RoundTrip(t *testing.T) {
	id := uuid.MustParse("6f1c2d3e-4b5a-4c6d-8e7f-90a1b2c3d4e5")
	oid := OrderID(id, 1767261600)
	assert.Equal(t, "INST-6f1c2d3e-4b5a-4c6d-8e7f-90a1b2c3d4e5-1767261600", oid)
	assert.Equal(t, id.String(), ParseOrderInstallment(oid))

	assert.Empty(t, ParseOrderInstallment("SPP-123"))
	assert.Empty(t, ParseOrderInstallment("INST-short"))
	assert.Empty(t, ParseOrderInstallment("INST-"+id.String()))
}

func TestCheckout_BuildsSnapRequest(t *testing.T) {
	f := newFixture(t)
	inst := f.inst()

	res, err := f.svc.Checkout(context.Background(), f.detail.FeeID, inst.FeeInstallmentID, f.student.StudentID, CustomerInput{})
	require.NoError(t, err)
	assert.Equal(t, "snap-token", res.Token)
	assert.Equal(t, int64(3000), res.Amount)
	assert.Equal(t, OrderID(inst.FeeInstallmentID, f.svc.Now().Unix()), res.OrderID)

	require.Len(t, f.snap.reqs, 1)
	req := f.snap.reqs[0]
	assert.Equal(t, res.OrderID, req.TransactionDetails.OrderID)
	assert.Equal(t, int64(3000), req.TransactionDetails.GrossAmt)
	assert.Equal(t, "Ani", req.CustomerDetail.FName)
	assert.Equal(t, "ani@example.com", req.CustomerDetail.Email)
	assert.Equal(t, "IDN", req.CustomerDetail.BillAddr.CountryCode)
}

func TestCheckout_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inst := f.inst()

	_, err := f.svc.Checkout(ctx, f.detail.FeeID, inst.FeeInstallmentID, uuid.New(), CustomerInput{})
	assert.ErrorIs(t, err, errs.ErrNotFound, "fee milik murid lain")

	_, err = f.svc.Checkout(ctx, f.detail.FeeID, uuid.New(), f.student.StudentID, CustomerInput{})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.svc.Ledger.SubmitPayment(ctx, f.detail.FeeID, inst.FeeInstallmentID, feeService.SubmitInput{ReceiptRef: "https://cdn.test/r.webp"})
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, f.detail.FeeID, inst.FeeInstallmentID, f.student.StudentID, CustomerInput{})
	assert.ErrorIs(t, err, errs.ErrInvalidState, "submitted tidak bisa checkout")
	assert.Empty(t, f.snap.reqs)
}

func TestCheckout_GatewayErrors(t *testing.T) {
	f := newFixture(t)
	inst := f.inst()

	f.snap.err = &midtrans.Error{Message: "service unavailable", StatusCode: 503}
	_, err := f.svc.Checkout(context.Background(), f.detail.FeeID, inst.FeeInstallmentID, f.student.StudentID, CustomerInput{})
	assert.ErrorIs(t, err, errs.ErrTransientDependency)

	f.svc.Snap = nil
	_, err = f.svc.Checkout(context.Background(), f.detail.FeeID, inst.FeeInstallmentID, f.student.StudentID, CustomerInput{})
	assert.ErrorIs(t, err, errs.ErrTransientDependency)
}

func TestNotification_InvalidSignature(t *testing.T) {
	f := newFixture(t)
	n := f.notif(OrderID(f.inst().FeeInstallmentID, 1), "settlement", "", "3000.00")
	n.SignatureKey = "deadbeef"

	_, err := f.svc.HandleNotification(context.Background(), n)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Empty(t, f.events(t), "notifikasi palsu tidak dicatat")
}

func TestNotification_SettlementVerifiesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inst := f.inst()
	n := f.notif(OrderID(inst.FeeInstallmentID, 1767261600), "settlement", "", "3000.00")

	res, err := f.svc.HandleNotification(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, res.Status)
	require.NotNil(t, res.RollNo)
	assert.Equal(t, "0001", *res.RollNo)

	var got feeModel.FeeInstallmentModel
	require.NoError(t, f.db.Where("fee_installment_id = ?", inst.FeeInstallmentID).Take(&got).Error)
	assert.Equal(t, feeModel.InstallmentVerified, got.FeeInstallmentStatus)
	require.NotNil(t, got.FeeInstallmentVerifiedBy)
	assert.Equal(t, VerifierMidtrans, *got.FeeInstallmentVerifiedBy)

	var enr enrollModel.EnrollmentModel
	require.NoError(t, f.db.Where("enrollment_id = ?", f.detail.Enrollment.EnrollmentID).Take(&enr).Error)
	assert.Equal(t, enrollModel.EnrollmentEnrolled, enr.EnrollmentStatus)

	// retry dari Midtrans
	res, err = f.svc.HandleNotification(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyVerified, res.Status)

	evs := f.events(t)
	require.Len(t, evs, 2)
	for _, ev := range evs {
		assert.Equal(t, model.GatewayEventProcessed, ev.GatewayEventStatus)
		require.NotNil(t, ev.GatewayEventInstallmentID)
		assert.Equal(t, inst.FeeInstallmentID, *ev.GatewayEventInstallmentID)
	}
}

func TestNotification_CaptureNeedsFraudAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	oid := OrderID(f.inst().FeeInstallmentID, 1)

	res, err := f.svc.HandleNotification(ctx, f.notif(oid, "capture", "challenge", "3000.00"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Status)

	res, err = f.svc.HandleNotification(ctx, f.notif(oid, "pending", "", "3000.00"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Status)

	res, err = f.svc.HandleNotification(ctx, f.notif(oid, "capture", "accept", "3000.00"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, res.Status)
}

func TestNotification_IgnoresUnknownOrAmountMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.HandleNotification(ctx, f.notif("DON-42", "settlement", "", "3000.00"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Status)

	res, err = f.svc.HandleNotification(ctx, f.notif(OrderID(uuid.New(), 1), "settlement", "", "3000.00"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Status)

	res, err = f.svc.HandleNotification(ctx, f.notif(OrderID(f.inst().FeeInstallmentID, 1), "settlement", "", "1000.00"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Status)

	var got feeModel.FeeInstallmentModel
	require.NoError(t, f.db.Where("fee_installment_id = ?", f.inst().FeeInstallmentID).Take(&got).Error)
	assert.Equal(t, feeModel.InstallmentPending, got.FeeInstallmentStatus)

	byStatus := map[model.GatewayEventStatus]int{}
	for _, ev := range f.events(t) {
		byStatus[ev.GatewayEventStatus]++
	}
	assert.Equal(t, 2, byStatus[model.GatewayEventIgnored])
	assert.Equal(t, 1, byStatus[model.GatewayEventFailed])
}
