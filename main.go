package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"zipline_manager/config"
	"zipline_manager/database"
	"zipline_manager/helper"
	"zipline_manager/router"
	"zipline_manager/utils"
)

func main() {
	flags := pflag.NewFlagSet("zipline", pflag.ContinueOnError)
	envFile := flags.String("env-file", ".env", "environment file to load before reading the configuration")
	seasonsFile := flags.String("seasons", "", "season calendar YAML (embedded default when empty)")
	addr := flags.String("addr", "", "listen address, overrides PORT")
	hashPassword := flags.String("hash-password", "", "print the bcrypt hash of a password and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if *hashPassword != "" {
		hash, err := helper.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	config.LoadEnv(*envFile)
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("loading configuration")
	}
	setupLogger(cfg)

	seasons, err := config.LoadSeasons(*seasonsFile)
	if err != nil {
		logrus.WithError(err).Fatal("loading season calendar")
	}

	rdb := setupServices(cfg, seasons)
	if rdb != nil {
		defer rdb.Close()
	}

	if *addr == "" {
		*addr = fmt.Sprintf(":%d", cfg.Port)
	}
	if err := run(*addr, cfg); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

func setupLogger(cfg *config.AppConfig) {
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("unknown LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// setupServices fills the helper globals. Missing credentials disable the
// matching feature instead of stopping the site.
func setupServices(cfg *config.AppConfig, seasons *config.SeasonCalendar) *redis.Client {
	helper.Settings = cfg
	helper.Schedule = helper.NewCalendar(seasons)

	docs, err := database.OpenStore(cfg)
	if err != nil {
		logrus.WithError(err).Error("document store unavailable, ticket and closure routes will fail")
		docs = database.Unconfigured{Reason: err}
	}
	helper.Tickets = helper.NewTicketStore(docs, cfg.TicketsPath,
		helper.WithClock(helper.Clock),
		helper.WithLocation(seasons.Location()),
	)
	helper.Closures = helper.NewClosureStore(docs, cfg.ClosuresPath)

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logrus.WithError(err).Warn("redis unreachable, webhook dedupe and scan fan-out run locally")
			rdb.Close()
			rdb = nil
		}
		cancel()
	}
	helper.Events = helper.NewEventClaimer(rdb)
	helper.Scans = helper.NewScanFeed(rdb)

	if cfg.StripeSecretKey != "" {
		helper.Payments = utils.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.Currency)
		helper.Fulfiller = helper.NewFulfillment(helper.Payments, helper.Tickets)
	} else {
		logrus.Warn("STRIPE_SECRET_KEY is empty, online sales are disabled")
	}

	if cfg.SMTP.Enabled() {
		helper.Mailer = utils.NewMailer(cfg.SMTP)
		if cfg.ContactEmail != "" {
			helper.Contact = utils.NewContactMailer(cfg.SMTP, cfg.ContactEmail)
		}
	} else {
		logrus.Warn("SMTP is not configured, emails are disabled")
	}

	if cfg.Cloudinary.Enabled() {
		archive, err := helper.InitCloudinary(cfg.Cloudinary)
		if err != nil {
			logrus.WithError(err).Warn("voucher archive disabled")
		} else {
			helper.Archive = archive
		}
	}
	return rdb
}

func run(addr string, cfg *config.AppConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AppURL,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, Stripe-Signature",
		AllowCredentials: true,
		ExposeHeaders:    "Set-Cookie, Content-Disposition",
		MaxAge:           600,
	}))
	router.SetupRoutes(app)

	if err := helper.StartDigestScheduler(); err != nil {
		logrus.WithError(err).Error("starting digest scheduler")
	}
	if helper.Fulfiller != nil {
		if err := helper.StartReconcileScheduler(); err != nil {
			logrus.WithError(err).Error("starting reconcile scheduler")
		}
	}
	defer helper.StopSchedulers()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return helper.Scans.Run(ctx)
	})
	g.Go(func() error {
		logrus.WithField("addr", addr).Info("starting server")
		return app.Listen(addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		logrus.Info("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	})
	return g.Wait()
}
