package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/nerrad567/gray-logic-gree/migrations"

	"github.com/nerrad567/gray-logic-gree/internal/api"
	"github.com/nerrad567/gray-logic-gree/internal/bridges/gree"
	"github.com/nerrad567/gray-logic-gree/internal/device"
	"github.com/nerrad567/gray-logic-gree/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-gree/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-gree/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-gree/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-gree/internal/infrastructure/mqtt"
)

// pruneInterval is how often old state history is removed.
const pruneInterval = time.Hour

// run is the actual application logic, separated from main for testability.
// It returns nil on clean shutdown once ctx is cancelled.
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Gree",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	defer log.Close() //nolint:errcheck // Best-effort close of the log file
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	schema, err := db.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	log.Info("database migrations complete", "schema", schema)

	// Device registry and state history
	deviceRegistry := device.NewRegistry(device.NewSQLiteRepository(db.DB))
	deviceRegistry.SetLogger(log.Component("registry"))
	if refreshErr := deviceRegistry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}
	log.Info("device registry initialised", "devices", deviceRegistry.GetDeviceCount())

	history := device.NewSQLiteStateHistoryRepository(db.DB)

	// The bridge config is needed before connecting so the broker holds
	// the bridge's Last Will.
	var bridgeCfg *gree.Config
	if cfg.Protocols.Gree.Enabled {
		bridgeCfg, err = gree.LoadConfig(cfg.Protocols.Gree.ConfigFile)
		if err != nil {
			return fmt.Errorf("loading Gree bridge config: %w", err)
		}
		log.Info("Gree bridge config loaded",
			"path", cfg.Protocols.Gree.ConfigFile,
			"devices", len(bridgeCfg.Devices),
		)
	}

	// Connect to MQTT broker
	mqttClient, err := connectMQTT(cfg.MQTT, bridgeCfg)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Create the Gree bridge (if enabled); it starts after the API so
	// the first state publications reach WebSocket clients.
	var greeBridge *gree.Bridge
	if bridgeCfg != nil {
		greeBridge, err = newGreeBridge(bridgeCfg, mqttClient, deviceRegistry, history, influxClient, log)
		if err != nil {
			return fmt.Errorf("creating Gree bridge: %w", err)
		}
	} else {
		log.Info("Gree bridge disabled")
	}

	apiDeps := api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   log.Component("api"),
		Registry: deviceRegistry,
		History:  history,
		Database: db,
		Version:  version,
	}
	if greeBridge != nil {
		apiDeps.Bridge = greeBridge
	}
	apiServer, err := api.New(apiDeps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if greeBridge != nil {
		greeBridge.AddStateListener(apiServer.PublishClimateState)
		if startErr := greeBridge.Start(ctx); startErr != nil {
			greeBridge.Stop()
			return fmt.Errorf("starting Gree bridge: %w", startErr)
		}
		defer func() {
			log.Info("stopping Gree bridge")
			greeBridge.Stop()
		}()
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	go pruneHistoryLoop(ctx, history, cfg.GetHistoryRetention(), log)

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: bridge, API, InfluxDB, MQTT,
	// database.
	log.Info("Gray Logic Gree stopped")
	return nil
}

// connectMQTT connects to the broker. With a bridge configured, the Last
// Will is the bridge's offline health message so Core sees the bridge drop.
func connectMQTT(cfg config.MQTTConfig, bridgeCfg *gree.Config) (*mqtt.Client, error) {
	var opts []mqtt.Option
	if bridgeCfg != nil {
		will, err := json.Marshal(gree.NewLWTMessage(bridgeCfg.Bridge.ID))
		if err != nil {
			return nil, fmt.Errorf("encoding last will: %w", err)
		}
		opts = append(opts, mqtt.WithWill(gree.HealthTopic(), will))
	}
	return mqtt.Connect(cfg, opts...)
}

// newGreeBridge wires the bridge to the bus, the registry, the state
// history and, when enabled, InfluxDB.
func newGreeBridge(
	bridgeCfg *gree.Config,
	mqttClient *mqtt.Client,
	registry *device.Registry,
	history *device.SQLiteStateHistoryRepository,
	influxClient *influxdb.Client,
	log *logging.Logger,
) (*gree.Bridge, error) {
	opts := gree.BridgeOptions{
		Config:     bridgeCfg,
		MQTTClient: &mqttBridgeAdapter{client: mqttClient},
		Version:    version,
		Logger:     log.Component("gree"),
		Registry:   &registryAdapter{registry: registry},
		History:    history,
	}
	if influxClient != nil {
		opts.Telemetry = &telemetryAdapter{client: influxClient}
	}
	return gree.NewBridge(opts)
}

// healthCheck verifies all infrastructure connections are healthy.
// influxClient may be nil when InfluxDB is disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// historyPruner is the part of the state history used by pruneHistoryLoop.
type historyPruner interface {
	PruneHistory(ctx context.Context, retention time.Duration) (int64, error)
}

// pruneHistoryLoop removes history older than retention, once at startup
// and then every pruneInterval. A zero retention keeps everything.
func pruneHistoryLoop(ctx context.Context, history historyPruner, retention time.Duration, log *logging.Logger) {
	if retention <= 0 {
		return
	}

	prune := func() {
		removed, err := history.PruneHistory(ctx, retention)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn("state history prune failed", "error", err)
			}
			return
		}
		if removed > 0 {
			log.Info("state history pruned", "removed", removed, "retention", retention.String())
		}
	}

	prune()

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}
