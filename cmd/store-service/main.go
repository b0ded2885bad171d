package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/store-service-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/media"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/sequence"
)

const serviceName = "store-service"

func main() {
	app := &cli.App{
		Name:  serviceName,
		Usage: "storefront backend: catalog, carts, orders and customers",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply pending database migrations and exit",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "down", Usage: "revert the latest migration instead"},
				},
				Action: migrate,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("store-service exited")
	}
}

func setup() (config.Config, *logrus.Entry, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := logging.New(logging.Options{
		Service: serviceName,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	return cfg, logger, nil
}

func migrate(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if c.Bool("down") {
		return db.RollbackMigration(cfg.DatabaseDSN, logger)
	}
	return db.RunMigrations(cfg.DatabaseDSN, logger)
}

func serve(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		return errors.Wrap(err, "db connect")
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			return errors.Wrap(err, "db migrate")
		}
	}

	// --- AMQP ---
	publisher, closePublisher, err := newPublisher(cfg, pool, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	orders := order.NewService(order.NewPostgresRepository(pool), publisher, logger.WithField("component", "orders"))

	// --- HTTP ---
	router := httpapi.NewRouter(httpapi.Deps{
		Catalog:          catalog.NewPostgresRepository(pool),
		Carts:            cart.NewPostgresRepository(pool),
		Customers:        customer.NewPostgresRepository(pool),
		Orders:           orders,
		Users:            auth.NewPostgresUserRepository(pool),
		Tokens:           auth.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Media:            media.NewStorage(cfg.MediaRoot),
		DB:               pool,
		Logger:           logger,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", cfg.HTTPAddr).Info("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// newPublisher connects to RabbitMQ when event publishing is enabled and
// falls back to a logging no-op otherwise.
func newPublisher(cfg config.Config, pool sequence.Querier, logger *logrus.Entry) (order.Publisher, func(), error) {
	if !cfg.PublishEvents {
		logger.Info("event publishing disabled")
		return events.NopPublisher{Logger: logger}, func() {}, nil
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "rabbitmq dial")
	}
	pub, err := events.NewPublisher(conn, sequence.NewCounter(pool))
	if err != nil {
		_ = conn.Close()
		return nil, nil, errors.Wrap(err, "rabbitmq publisher")
	}
	cleanup := func() {
		if err := pub.Close(); err != nil {
			logger.WithError(err).Warn("publisher close")
		}
		if err := conn.Close(); err != nil {
			logger.WithError(err).Warn("rabbitmq close")
		}
	}
	return pub, cleanup, nil
}
