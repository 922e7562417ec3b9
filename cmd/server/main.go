package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/inu-notice/notice-server/auth"
	"github.com/inu-notice/notice-server/middleware/authware"
	"github.com/inu-notice/notice-server/notice"
	"github.com/inu-notice/notice-server/provider/firebase"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		os.Stderr.WriteString("logger error: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *AppConfig, logger *zapLogger) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := createSchema(context.Background(), db); err != nil {
		return err
	}

	repo := auth.NewRepositoryManager(db)
	repo.MustValidate()

	tokens := auth.NewTokenServiceFromConfig(tokenConfig{cfg: cfg}, logger)
	resolver := auth.NewIdentityResolver(repo).WithLogger(logger)

	var federated auth.FederatedValidator
	if cfg.Firebase.ProjectID != "" {
		validator, err := firebase.NewTokenValidator(firebase.Config{
			ProjectID: cfg.Firebase.ProjectID,
		}, logger)
		if err != nil {
			return err
		}
		defer validator.Close()
		federated = validator
	} else {
		logger.Warn("firebase project id not set, federated login disabled")
	}

	var mailer auth.Mailer
	if cfg.SMTP.Host != "" {
		mailer = newSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		logger.Warn("smtp host not set, mail delivery goes to the log")
		mailer = auth.NewLogMailer(logger)
	}

	app := fiber.New(fiber.Config{
		AppName:      "notice-server",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	app.Use(authware.New(authware.Config{
		TokenService: tokens,
		Federated:    federated,
		Resolver:     resolver,
		Logger:       logger,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authCtl := auth.NewHTTPController(repo, tokens, resolver, federated, mailer, logger)
	authCtl.RegisterRoutes(app, authware.RequireAuth())

	noticeCtl := notice.NewHTTPController(notice.NewStore(db))
	noticeCtl.RegisterRoutes(app, authware.RequireAuth())

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		errCh <- app.Listen(cfg.Addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}

func openDatabase(cfg *AppConfig) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DB.DSN)
	if err != nil {
		return nil, err
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func createSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*auth.User)(nil),
		(*auth.SingleUseToken)(nil),
		(*notice.Notice)(nil),
		(*notice.Bookmark)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
