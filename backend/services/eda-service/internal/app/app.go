package app

import (
	"context"
	"database/sql"
	"io"
	"os"

	"go.uber.org/zap"

	libdb "chargeinsight/backend/libs/db"
	libmqtt "chargeinsight/backend/libs/mqtt"
	libredis "chargeinsight/backend/libs/redis"
	"chargeinsight/backend/services/eda-service/internal/config"
	"chargeinsight/backend/services/eda-service/internal/publish"
	"chargeinsight/backend/services/eda-service/internal/repository"
	"chargeinsight/backend/services/eda-service/internal/service"
)

// App wires eda-service dependencies.
type App struct {
	service   *service.EDAService
	db        *sql.DB
	publisher *publish.Multi
	logger    *zap.Logger
}

// New constructs the application graph. Sinks without configuration are skipped.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	return newApp(ctx, cfg, os.Stdout, logger)
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	var exporter service.EventExporter
	if cfg.DatabaseEnabled() {
		sqlDB, err := libdb.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.db = sqlDB
		exporter = repository.NewEventRepository(sqlDB, cfg.Database.Driver)
	}

	var publishers []publish.Publisher
	if cfg.RedisEnabled() {
		client, err := libredis.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			a.Close()
			return nil, err
		}
		publishers = append(publishers, publish.NewRedisStore(client, cfg.Redis.TTL))
	}
	if cfg.MQTTEnabled() {
		client, err := libmqtt.NewClient(ctx, cfg.MQTT.URL, cfg.MQTT.ClientID, logger)
		if err != nil {
			publish.NewMulti(publishers...).Close()
			a.Close()
			return nil, err
		}
		mqttPublisher, err := publish.NewMQTTPublisher(client, cfg.MQTT.Topic)
		if err != nil {
			client.Close()
			publish.NewMulti(publishers...).Close()
			a.Close()
			return nil, err
		}
		publishers = append(publishers, mqttPublisher)
	}
	a.publisher = publish.NewMulti(publishers...)

	var publisher publish.Publisher
	if a.publisher.Len() > 0 {
		publisher = a.publisher
	}

	a.service = service.NewEDAService(service.Options{
		InputPath:       cfg.Input.Path,
		CleanedPath:     cfg.CleanedPath(),
		PlotsDir:        cfg.PlotsPath(),
		OutlierQuantile: cfg.Analysis.OutlierQuantile,
		HeadRows:        cfg.Analysis.HeadRows,
	}, out, exporter, publisher, logger)

	logger.Info("eda-service configured",
		zap.String("input", cfg.Input.Path),
		zap.Bool("export", exporter != nil),
		zap.Int("publishers", a.publisher.Len()),
	)
	return a, nil
}

// Run executes one analysis.
func (a *App) Run(ctx context.Context) error {
	_, err := a.service.Run(ctx)
	return err
}

// Close releases resources.
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close publishers", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
