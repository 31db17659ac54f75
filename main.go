package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"

	"lms_backend/internals/configs"
	database "lms_backend/internals/databases"
	certService "lms_backend/internals/features/certificates/user_certificates/service"
	feeService "lms_backend/internals/features/finance/fees/service"
	paymentService "lms_backend/internals/features/finance/payments/service"
	notifService "lms_backend/internals/features/home/notifications/service"
	attService "lms_backend/internals/features/school/attendance/service"
	enrollService "lms_backend/internals/features/school/enrollments/service"
	helper "lms_backend/internals/helpers"
	osshelper "lms_backend/internals/helpers/oss"
	middlewares "lms_backend/internals/middlewares"
	"lms_backend/internals/middlewares/logger"
	routes "lms_backend/internals/route"
	routeDetails "lms_backend/internals/route/details"
	"lms_backend/internals/scheduler"
	"lms_backend/internals/seeds"
)

func main() {
	configs.LoadEnv()

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
		BodyLimit:               8 * 1024 * 1024, // upload bukti pembayaran
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			if code == fiber.StatusInternalServerError {
				log.Printf("[ERROR] %s %s: %v", c.Method(), c.Path(), err)
				return helper.JsonError(c, code, "Terjadi kesalahan pada server")
			}
			return helper.JsonError(c, code, err.Error())
		},
	})

	// ⚙️ middleware dasar + performa
	app.Use(middlewares.RecoveryMiddleware())
	app.Use(logger.RequestIDMiddleware())
	app.Use(logger.LoggerMiddleware())
	app.Use(middlewares.CorsMiddleware())
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault})) // gzip
	app.Use(etag.New())                                                  // 304 caching
	app.Use(middlewares.GlobalRateLimiter())

	// 🔌 DB connect + pool + warm-up
	database.ConnectDB()
	database.TunePool()
	database.WarmUpQueries()
	db := database.DB

	if configs.GetEnvBool("DB_AUTO_MIGRATE", false) {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("❌ AutoMigrate gagal: %v", err)
		}
	}
	if configs.GetEnvBool("SEED_ON_START", false) {
		seeds.RunAllSeeds(db, configs.GetEnv("SEED_DIR", "internals/seeds/data"))
	}

	// 🧩 services
	loc := configs.Location()
	publisher := notifService.NewPublisher(db)

	enrollments := enrollService.New(db, loc)

	ledger := feeService.NewLedgerService(db, enrollments, loc)
	ledger.Notifier = publisher
	ledger.RollNoCounter = configs.GetEnv("ROLL_NO_COUNTER", feeService.DefaultRollNoCounter)

	var receipts osshelper.ReceiptStore
	if store, err := osshelper.NewOSSReceiptStoreFromEnv(); err != nil {
		log.Printf("⚠️ OSS tidak aktif, upload bukti dimatikan: %v", err)
	} else {
		receipts = store
		ledger.Receipts = store
	}

	certificates := certService.New(db, enrollments)

	attendance := attService.New(db, loc)
	attendance.Notifier = publisher

	// ✅ MIDTRANS
	serverKey := configs.GetEnv("MIDTRANS_SERVER_KEY")
	var snapClient paymentService.SnapCreator
	if serverKey != "" {
		snapClient = paymentService.NewSnapClient(serverKey, configs.GetEnvBool("MIDTRANS_USE_PROD", false))
	} else {
		log.Println("⚠️ MIDTRANS_SERVER_KEY kosong, checkout gateway dimatikan")
	}
	payments := paymentService.New(db, ledger, snapClient, serverKey)

	// ⏱ scheduler setelah DB siap
	var catchUp []string
	if configs.GetEnvBool("BILLING_CATCHUP_ON_START", true) {
		catchUp = append(catchUp, scheduler.JobBillingSweep)
	}
	sched := scheduler.New(scheduler.Config{
		Location: loc,
		Timeout:  configs.GetEnvDuration("SWEEP_TIMEOUT", 4*time.Minute),
		CatchUp:  catchUp,
	})
	if err := scheduler.RegisterDefaults(sched, scheduler.Specs{
		AttendanceLock: configs.GetEnv("CRON_ATTENDANCE_LOCK", scheduler.DefaultSpecs.AttendanceLock),
		BillingSweep:   configs.GetEnv("CRON_BILLING_SWEEP", scheduler.DefaultSpecs.BillingSweep),
	}, ledger, attendance); err != nil {
		log.Fatalf("❌ scheduler: %v", err)
	}
	sched.Start()

	// ✅ Routes
	routes.SetupRoutes(app, routeDetails.Deps{
		DB:           db,
		Ledger:       ledger,
		Enrollments:  enrollments,
		Certificates: certificates,
		Attendance:   attendance,
		Payments:     payments,
		Receipts:     receipts,
		Scheduler:    sched,
	})

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 5 * time.Minute // sweep manual bisa lama
	app.Server().IdleTimeout = 90 * time.Second

	port := configs.GetEnv("PORT", "3000")

	// Start server non-blocking
	go func() {
		log.Printf("✅ Listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown: http → cron → pekerjaan background → pool DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
	sched.Stop(ctx)
	ledger.WaitBackground()
	publisher.Wait()

	database.Close()
	log.Println("👋 bye")
}
