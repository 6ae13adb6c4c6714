package main

import (
	"context"
	"time"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/repositories/configuration"
	"github.com/Ramsey-B/clover/internal/repositories/patient"
	"github.com/Ramsey-B/clover/pkg/analysis"
	"github.com/Ramsey-B/clover/pkg/blocking"
	"github.com/Ramsey-B/clover/pkg/cache"
	"github.com/Ramsey-B/clover/pkg/comparator"
	"github.com/Ramsey-B/clover/pkg/container"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/estimator"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/logging"
	configroutes "github.com/Ramsey-B/clover/pkg/routes/configuration"
	recordroutes "github.com/Ramsey-B/clover/pkg/routes/records"
	"github.com/Ramsey-B/clover/pkg/schema"
	"github.com/Ramsey-B/clover/pkg/startup"
	"github.com/Ramsey-B/clover/pkg/strategy"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// app holds the process-wide dependencies shared by the commands
type app struct {
	cfg     *config.Config
	logger  ectologger.Logger
	startup *startup.Startup

	db       *database.DatabaseInstance
	redis    *cache.RedisStore
	producer *kafka.Producer

	service     *strategy.Service
	containerID string
}

type appOptions struct {
	migrate bool // apply migrations before anything else runs
	service bool
	cache   bool
	events  bool
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.AppName, cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		startup: startup.NewStartup(logger, cfg.StartupMaxAttempts),
	}
	a.addDependencies(opts)

	if err := a.startup.Start(ctx); err != nil {
		_ = a.startup.Stop(context.Background())
		return nil, err
	}

	if opts.service {
		a.service = a.buildService()
		if err := a.registerDependencies(); err != nil {
			a.close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) addDependencies(opts appOptions) {
	cfg := a.cfg

	var tracingShutdown tracing.Shutdown
	a.startup.AddDependency(&startup.Dependency{
		Name: "tracing",
		StartFunc: func(ctx context.Context) (err error) {
			tracingShutdown, err = tracing.Setup(ctx, tracing.Config{
				Enabled:     cfg.OTLPEnabled,
				ServiceName: cfg.AppName,
				Endpoint:    cfg.OTLPEndpoint,
				Protocol:    cfg.OTLPProtocol,
				Insecure:    cfg.OTLPInsecure,
				Timeout:     cfg.OTLPTimeout,
				SampleRatio: cfg.OTLPSampleRatio,
			})
			return err
		},
		StopFunc: func(ctx context.Context) error {
			if tracingShutdown == nil {
				return nil
			}
			return tracingShutdown(ctx)
		},
	})

	a.startup.AddDependency(&startup.Dependency{
		Name:     "database",
		Requires: []string{"tracing"},
		StartFunc: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			db, err := database.Connect(ctx, database.ConnectionConfig{
				Driver:          cfg.DatabaseDriver,
				Host:            cfg.DatabaseHost,
				Port:            cfg.DatabasePort,
				User:            cfg.DatabaseUserName,
				Password:        cfg.DatabasePassword,
				Name:            cfg.DatabaseName,
				SSLMode:         cfg.DatabaseSSLMode,
				MaxOpenConns:    cfg.DatabaseMaxOpenConns,
				MaxIdleConns:    cfg.DatabaseMaxIdleConns,
				ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
			}, a.logger)
			if err != nil {
				return err
			}
			a.db = db
			return nil
		},
		StopFunc: func(context.Context) error {
			if a.db == nil {
				return nil
			}
			return a.db.Close()
		},
	})

	if opts.migrate {
		a.startup.AddDependency(&startup.Dependency{
			Name:     "migrations",
			Requires: []string{"database"},
			StartFunc: func(context.Context) error {
				svc := database.NewMigrationService(a.logger, &database.MigrationConfig{
					MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
					Version:             uint(cfg.DatabaseMigrationVersion),
					Force:               cfg.DatabaseMigrationForce,
					AutoRollback:        cfg.DatabaseMigrationAutoRollback,
				})
				return svc.MigratePostgres(a.db.DB.DB, cfg.DatabaseName)
			},
		})
	}

	if opts.cache && cfg.RedisEnabled {
		a.startup.AddDependency(&startup.Dependency{
			Name: "redis",
			StartFunc: func(ctx context.Context) error {
				store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
					Host:     cfg.RedisHost,
					Port:     cfg.RedisPort,
					Password: cfg.RedisPassword,
					DB:       cfg.RedisDB,
				}, a.logger)
				if err != nil {
					return err
				}
				a.redis = store
				return nil
			},
			StopFunc: func(context.Context) error {
				if a.redis == nil {
					return nil
				}
				return a.redis.Close()
			},
		})
	}

	if opts.events && cfg.KafkaEnabled {
		a.startup.AddDependency(&startup.Dependency{
			Name: "kafka",
			StartFunc: func(context.Context) error {
				a.producer = kafka.NewProducer(kafka.ProducerConfig{
					Brokers:      cfg.KafkaBrokers,
					Topic:        cfg.KafkaOutputTopic,
					BatchSize:    cfg.KafkaBatchSize,
					BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
					RequiredAcks: cfg.KafkaRequiredAcks,
					Compression:  cfg.KafkaCompression,
				}, a.logger)
				return nil
			},
			StopFunc: func(context.Context) error {
				if a.producer == nil {
					return nil
				}
				return a.producer.Close()
			},
		})
	}
}

func (a *app) buildService() *strategy.Service {
	registry := schema.Default()
	repo := configuration.NewRepository(a.db, a.logger)

	var counter estimator.Counter = patient.NewRepository(a.db, a.logger, sqlbuilder.PostgreSQL)
	if a.redis != nil {
		counter = cache.NewTotalRecordsCounter(counter, a.redis, a.cfg.TotalRecordsCacheTTL, a.logger)
	}

	est := estimator.New(a.logger, blocking.NewBuilder(registry), counter, repo, estimator.Config{
		StaleFraction:      a.cfg.EstimationStaleFraction,
		RefreshConcurrency: a.cfg.EstimationRefreshConcurrency,
	})
	analyzer := analysis.NewAnalyzer(a.logger, comparator.New(), a.cfg.EstimationEMIterations)

	var publisher events.Publisher = events.NopPublisher{}
	if a.producer != nil {
		publisher = a.producer
	}

	return strategy.NewService(a.logger, repo, registry, est, analyzer, events.NewEmitter(publisher, a.logger))
}

// registerDependencies puts the logger and strategy service in the container the HTTP handlers resolve from
func (a *app) registerDependencies() error {
	c, err := container.New(a.cfg.AppName, a.logger)
	if err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[ectologger.Logger](c, a.logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[configroutes.Service](c, a.service); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[recordroutes.Counter](c, a.service); err != nil {
		return err
	}
	a.containerID = c.GetContainerID()
	return nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.startup.Stop(ctx); err != nil {
		a.logger.WithError(err).Error("Failed to stop dependencies")
	}
}
