package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"hospital-management-server/internal/apperr"
	"hospital-management-server/internal/config"
	"hospital-management-server/internal/handlers"
	"hospital-management-server/internal/logger"
	"hospital-management-server/internal/middleware"
	"hospital-management-server/internal/models"
	"hospital-management-server/internal/repository"
	"hospital-management-server/internal/routes"
	"hospital-management-server/internal/services"
	"hospital-management-server/internal/utils"
)

var defaultSpecializations = []struct{ name, description string }{
	{"General Medicine", "Primary care and general consultations"},
	{"Cardiology", "Heart and blood vessel disorders"},
	{"Dermatology", "Skin, hair and nail conditions"},
	{"Pediatrics", "Medical care for children"},
	{"Orthopedics", "Bones, joints and muscles"},
	{"Neurology", "Brain and nervous system disorders"},
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "hospital-server",
		Short: "Hospital management API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd(), migrateCmd(), seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := models.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("Database schema is up to date")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert default specializations and the bootstrap admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := models.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			return seed(cmd.Context(), cfg, log, db)
		},
	}
}

// bootstrap loads configuration, builds the logger and opens the database.
func bootstrap() (*config.Config, *logrus.Logger, *gorm.DB, error) {
	// A missing .env is fine; the environment may already be populated.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	db, err := models.InitDB(models.DatabaseConfig{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	log.WithField("driver", cfg.Database.Driver).Info("Connected to database")

	return cfg, log, db, nil
}

type app struct {
	accounts     *services.AccountService
	doctors      *services.DoctorService
	appointments *services.AppointmentService
	lab          *services.LabService
}

func newApp(cfg *config.Config, log *logrus.Logger, db *gorm.DB) *app {
	users := repository.NewUserRepository(db)
	doctorStore := repository.NewDoctorRepository(db)
	appointmentStore := repository.NewAppointmentRepository(db)
	labStore := repository.NewLabRepository(db)

	doctors := services.NewDoctorService(doctorStore, log.WithField("component", "doctors"))
	return &app{
		accounts:     services.NewAccountService(users, doctors, utils.NewTokenIssuer(cfg), log.WithField("component", "accounts")),
		doctors:      doctors,
		appointments: services.NewAppointmentService(appointmentStore, doctorStore, users, log.WithField("component", "appointments")),
		lab:          services.NewLabService(labStore, appointmentStore, users, log.WithField("component", "lab")),
	}
}

func runServer() error {
	cfg, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	if err := models.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	a := newApp(cfg, log, db)

	ctx := context.Background()
	created, err := a.doctors.ReconcileProfiles(ctx)
	if err != nil {
		return fmt.Errorf("reconcile doctor profiles: %w", err)
	}
	if created > 0 {
		log.WithField("created", created).Info("Created missing doctor profiles")
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery(log), middleware.RequestLogger(log))

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, routes.Handlers{
		Auth:         handlers.NewAuthHandler(a.accounts, cfg, log),
		Users:        handlers.NewUserHandler(a.accounts, log),
		Doctors:      handlers.NewDoctorHandler(a.doctors, log),
		Appointments: handlers.NewAppointmentHandler(a.appointments, a.doctors, log),
		Lab:          handlers.NewLabHandler(a.lab, a.accounts, log),
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

func seed(ctx context.Context, cfg *config.Config, log *logrus.Logger, db *gorm.DB) error {
	a := newApp(cfg, log, db)

	for _, s := range defaultSpecializations {
		_, err := a.doctors.CreateSpecialization(ctx, s.name, s.description)
		switch {
		case err == nil:
			log.WithField("specialization", s.name).Info("Seeded specialization")
		case apperr.Is(err, apperr.KindConflict):
			log.WithField("specialization", s.name).Debug("Specialization already present")
		default:
			return fmt.Errorf("seed specialization %q: %w", s.name, err)
		}
	}

	if cfg.Seed.AdminPassword == "" {
		log.Warn("SEED_ADMIN_PASSWORD is empty, skipping admin account")
		return nil
	}

	active, confirmed := true, true
	_, err := a.accounts.CreateUser(ctx, services.CreateUserInput{
		RegisterInput: services.RegisterInput{
			FirstName: "System",
			LastName:  "Administrator",
			Email:     cfg.Seed.AdminEmail,
			Password:  cfg.Seed.AdminPassword,
		},
		Role:        models.RoleAdmin,
		IsActive:    &active,
		IsConfirmed: &confirmed,
	})
	switch {
	case err == nil:
		log.WithField("email", cfg.Seed.AdminEmail).Info("Seeded admin account")
	case apperr.Is(err, apperr.KindConflict):
		log.WithField("email", cfg.Seed.AdminEmail).Info("Admin account already exists")
	default:
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}
