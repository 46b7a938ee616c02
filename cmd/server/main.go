// Command server runs the repairhub API and its maintenance tasks.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/repairhub/internal/auth"
	"github.com/iliyamo/repairhub/internal/config"
	"github.com/iliyamo/repairhub/internal/database"
	"github.com/iliyamo/repairhub/internal/logging"
	"github.com/iliyamo/repairhub/internal/memstore"
	"github.com/iliyamo/repairhub/internal/middleware"
	"github.com/iliyamo/repairhub/internal/repository"
	"github.com/iliyamo/repairhub/internal/router"
	"github.com/iliyamo/repairhub/internal/service"
	"github.com/iliyamo/repairhub/internal/storage"
)

// defaultTaskTypes seeds a fresh install.
var defaultTaskTypes = []string{
	"Air conditioner", "Plumbing", "Electrical", "Appliance", "Roofing", "Painting", "Other",
}

// env is loaded once by the root command before any subcommand runs.
type env struct {
	cfg config.Config
	log *zap.Logger
}

func main() {
	e := &env{}
	root := &cobra.Command{
		Use:           "repairhub",
		Short:         "Repair service marketplace API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Env)
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(log)
			e.cfg, e.log = cfg, log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.log != nil {
				_ = e.log.Sync()
			}
		},
	}
	root.AddCommand(serveCmd(e), migrateCmd(e), seedCmd(e), createAdminCmd(e))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd(e *env) *cobra.Command {
	var memory bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return e.serve(ctx, memory)
		},
	}
	cmd.Flags().BoolVar(&memory, "memory", false, "keep all data in memory instead of MySQL")
	return cmd
}

func (e *env) serve(ctx context.Context, memory bool) error {
	var (
		stores   service.Stores
		sessions auth.SessionStore
	)
	if memory {
		mem := memstore.New()
		if _, err := mem.TaskTypes().Seed(ctx, defaultTaskTypes); err != nil {
			return err
		}
		stores, sessions = service.MemoryStores(mem), mem.Sessions()
		e.log.Warn("running with in-memory storage; data is lost on exit")
	} else {
		db, err := e.openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		stores, sessions = service.SQLStores(db), repository.NewSessionRepo(db)
	}

	authn, err := auth.New(auth.Config{
		Secret:     []byte(e.cfg.JWTSecret),
		AccessTTL:  e.cfg.AccessTTL,
		RefreshTTL: e.cfg.RefreshTTL,
	}, sessions)
	if err != nil {
		return err
	}
	svc := service.New(stores, storage.NewDiskStore(e.cfg.UploadDir), authn, service.Options{
		BcryptCost:        e.cfg.BcryptCost,
		LegacyTransitions: e.cfg.LegacyTransitions,
	})

	rl := config.LoadRateLimitConfig()
	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		e.log.Warn("redis unreachable; rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	srv := echo.New()
	srv.HideBanner = true
	srv.Use(echomw.Recover())
	srv.Use(middleware.RequestLogger(e.log))
	router.RegisterRoutes(srv, router.Deps{
		Services:     svc,
		Auth:         authn,
		Limit:        middleware.RateLimit(rl, rdb),
		CookieSecure: e.cfg.CookieSecure,
		UploadDir:    e.cfg.UploadDir,
	})

	errc := make(chan error, 1)
	go func() {
		e.log.Info("listening", zap.String("addr", ":"+e.cfg.Port), zap.String("env", e.cfg.Env),
			zap.Bool("legacy_transitions", e.cfg.LegacyTransitions))
		errc <- srv.Start(":" + e.cfg.Port)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	e.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openDB connects to MySQL and applies pending migrations.
func (e *env) openDB(ctx context.Context) (*sql.DB, error) {
	db, err := database.Open(ctx, e.cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	n, err := database.Migrate(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if n > 0 {
		e.log.Info("applied migrations", zap.Int("count", n))
	}
	return db, nil
}
