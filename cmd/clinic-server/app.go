package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/config"
	"github.com/clinicdesk/clinicdesk/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk/internal/domain/diagnostics"
	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/domain/medication"
	"github.com/clinicdesk/clinicdesk/internal/domain/records"
	"github.com/clinicdesk/clinicdesk/internal/domain/scheduling"
	"github.com/clinicdesk/clinicdesk/internal/platform/apierr"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/blobstore"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/internal/platform/export"
	"github.com/clinicdesk/clinicdesk/internal/platform/metrics"
	"github.com/clinicdesk/clinicdesk/internal/platform/middleware"
	"github.com/clinicdesk/clinicdesk/internal/platform/reportgen"
	"github.com/clinicdesk/clinicdesk/internal/platform/reporting"
	"github.com/clinicdesk/clinicdesk/internal/platform/sandbox"
	"github.com/clinicdesk/clinicdesk/internal/platform/store"
	"github.com/clinicdesk/clinicdesk/internal/platform/webhook"
	"github.com/clinicdesk/clinicdesk/pkg/clinicdate"
)

const version = "0.1.0"

// app holds the wired services shared by the server and the CLI commands.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	now     clinicdate.Clock
	loc     *time.Location
	pool    *pgxpool.Pool
	store   store.Store
	metrics *metrics.Collector

	patients      *identity.Service
	appointments  *scheduling.Service
	prescriptions *medication.Service
	reports       *diagnostics.Service
	bills         *billing.Service
	records       *records.Service
	dashboard     *reporting.Dashboard
	exports       *export.Service
	seeder        *sandbox.Seeder
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(stdout).With().Timestamp().Logger()
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, *pgxpool.Pool, error) {
	if cfg.StorageDriver != "postgres" {
		return store.NewMemoryStore(), nil, nil
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return store.NewPostgresStore(pool), pool, nil
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	strategy, err := records.ParseJoinStrategy(cfg.JoinStrategy)
	if err != nil {
		return nil, err
	}

	raw, pool, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, now: time.Now, loc: loc, pool: pool, metrics: metrics.NewCollector("clinicdesk")}
	a.store = store.WithObserver(raw, a.metrics)

	patientRepo := identity.NewPatientRepoStore(a.store)
	prescriptionRepo := medication.NewPrescriptionRepoStore(a.store)
	reportRepo := diagnostics.NewReportRepoStore(a.store)
	medicineRepo := billing.NewMedicineBillRepoStore(a.store)
	hospitalRepo := billing.NewHospitalBillRepoStore(a.store)

	a.patients = identity.NewService(patientRepo, a.now, loc)
	a.appointments = scheduling.NewService(scheduling.NewAppointmentRepoStore(a.store), patientRepo, a.now, loc)
	a.prescriptions = medication.NewService(prescriptionRepo, a.now, loc)
	a.reports = diagnostics.NewService(reportRepo, a.now, loc)
	a.bills = billing.NewService(medicineRepo, hospitalRepo, a.now, loc)
	a.records = records.NewService(records.Sources{
		Patients:      patientRepo,
		Prescriptions: prescriptionRepo,
		Reports:       reportRepo,
		MedicineBills: medicineRepo,
		HospitalBills: hospitalRepo,
	}, strategy, a.now, loc)
	a.dashboard = reporting.NewDashboard(a.store, a.now, loc)

	blobs, err := openBlobs(cfg.ExportDir)
	if err != nil {
		a.close()
		return nil, err
	}
	sharer, err := webhook.NewSender(cfg.ShareWebhookURL, cfg.ShareWebhookSecret, log)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("share webhook: %w", err)
	}
	gen := reportgen.NewGenerator(reportgen.Letterhead{
		Name:  cfg.ClinicName,
		Phone: cfg.ClinicPhone,
		Email: cfg.ClinicEmail,
	}, a.now, loc)
	a.exports = export.NewService(a.records, gen, blobs, sharer, "/api/v1/exports/", a.now, log)

	a.seeder = sandbox.NewSeeder(a.store, sandbox.DefaultSeedConfig(), a.now, loc, log)
	return a, nil
}

// openBlobs keeps exported documents under EXPORT_DIR/archive, or in memory
// when no export directory is configured.
func openBlobs(exportDir string) (blobstore.BlobStore, error) {
	if exportDir == "" {
		return blobstore.NewInMemoryBlobStore(), nil
	}
	return blobstore.NewDirBlobStore(filepath.Join(exportDir, "archive"))
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *app) jwtConfig() auth.JWTConfig {
	return auth.JWTConfig{
		Issuer:     a.cfg.AuthIssuer,
		Audience:   a.cfg.AuthAudience,
		SigningKey: []byte(a.cfg.AuthSigningKey),
		Skipper:    auth.AuthSkipper,
	}
}

// router builds the HTTP surface. Middleware order matters: request ids
// first so every later log line carries one, auth before audit so the
// audit entry knows the user.
func (a *app) router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = a.errorHandler

	e.Use(middleware.RequestID())
	e.Use(middleware.Recovery(a.log))
	e.Use(middleware.Logger(a.log))
	e.Use(middleware.Metrics(a.metrics))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: a.cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(a.cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(a.cfg.RequestTimeout))

	if a.cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware(a.jwtConfig()))
	} else {
		e.Use(auth.JWTMiddleware(a.jwtConfig()))
	}
	e.Use(middleware.Audit(a.log))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	if a.pool != nil {
		e.GET("/health/db", db.HealthHandler(a.pool, 5*time.Second))
	}
	e.GET("/metrics", echo.WrapHandler(a.metrics.Handler()))

	api := e.Group("/api/v1")
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: a.cfg.RateLimitRPS,
		BurstSize:         a.cfg.RateLimitBurst,
	}))

	identity.NewHandler(a.patients, a.metrics).RegisterRoutes(api)
	scheduling.NewHandler(a.appointments, a.metrics).RegisterRoutes(api)
	medication.NewHandler(a.prescriptions, a.metrics).RegisterRoutes(api)
	diagnostics.NewHandler(a.reports).RegisterRoutes(api)
	billing.NewHandler(a.bills).RegisterRoutes(api)
	records.NewHandler(a.records).RegisterRoutes(api)
	reporting.NewHandler(a.dashboard).RegisterRoutes(api)
	export.NewHandler(a.exports, a.metrics).RegisterRoutes(api)
	if a.cfg.IsDev() {
		sandbox.NewSeedHandler(a.seeder).RegisterRoutes(api)
	}
	return e
}

// errorHandler maps plain errors that escaped a handler through apierr so
// clients never see raw storage messages.
func (a *app) errorHandler(err error, c echo.Context) {
	if _, ok := err.(*echo.HTTPError); !ok {
		err = apierr.HTTP(err)
	}
	c.Echo().DefaultHTTPErrorHandler(err, c)
}
