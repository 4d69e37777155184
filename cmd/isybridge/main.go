// isy-bridge connects an ISY-994 home automation controller to MQTT.
//
// On startup it fetches the controller's node, program, and variable
// directories, classifies them into entity categories, and then bridges
// live controller events to retained MQTT state topics while forwarding
// MQTT commands back to the controller. A REST API exposes the entity
// registry, state history, telemetry, and the control event audit trail.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/elaw611/isy-bridge/internal/api"
	"github.com/elaw611/isy-bridge/internal/audit"
	"github.com/elaw611/isy-bridge/internal/bridge"
	"github.com/elaw611/isy-bridge/internal/classify"
	"github.com/elaw611/isy-bridge/internal/entity"
	"github.com/elaw611/isy-bridge/internal/infrastructure/config"
	"github.com/elaw611/isy-bridge/internal/infrastructure/database"
	"github.com/elaw611/isy-bridge/internal/infrastructure/influxdb"
	"github.com/elaw611/isy-bridge/internal/infrastructure/logging"
	"github.com/elaw611/isy-bridge/internal/infrastructure/mqtt"
	"github.com/elaw611/isy-bridge/internal/isy"

	// Register embedded SQL migrations with the database package.
	_ "github.com/elaw611/isy-bridge/migrations"
)

// Build information, injected at build time via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	// defaultConfigPath is used when ISYBRIDGE_CONFIG is not set.
	defaultConfigPath = "configs/config.yaml"

	// healthCheckInterval is how often backing services are probed.
	healthCheckInterval = 30 * time.Second

	// healthCheckTimeout bounds each individual probe.
	healthCheckTimeout = 5 * time.Second

	// pruneInterval is how often expired history rows are removed.
	pruneInterval = 12 * time.Hour

	// hoursPerDay converts the retention config to a duration.
	hoursPerDay = 24
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "isy-bridge: %v\n", err)
		os.Exit(1)
	}
}

// run wires the application together and blocks until ctx is cancelled.
// Components start in dependency order; deferred cleanups run in reverse.
func run(ctx context.Context) error {
	bootLog := logging.Default()

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		bootLog.Error("failed to load configuration", "path", configPath, "error", err)
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, version)
	log.Info("starting isy-bridge",
		"version", version,
		"commit", commit,
		"built", date,
		"config", configPath,
	)

	// Database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", "error", err)
		}
	}()
	log.Info("database opened", "path", db.Path())

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Controller client. The bridge is useless without the controller,
	// so a failed initial connection aborts startup.
	client, err := isy.New(cfg.ISY, log)
	if err != nil {
		return fmt.Errorf("creating controller client: %w", err)
	}
	if err := client.Open(ctx); err != nil {
		return fmt.Errorf("connecting to controller: %w", err)
	}

	// Fetch the directories and classify them into entity categories.
	registry, weather, err := buildRegistry(ctx, cfg, client, log)
	if err != nil {
		return err
	}

	// MQTT
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT broker: %w", err)
	}
	defer func() {
		if err := mqttClient.Close(); err != nil {
			log.Error("error closing MQTT connection", "error", err)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT connection lost", "error", err)
	})
	log.Info("MQTT connected", "prefix", cfg.MQTT.TopicPrefix)

	// InfluxDB is optional telemetry; a down server should not keep the
	// bridge from running.
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			log.Warn("InfluxDB unavailable, telemetry disabled", "error", err)
		} else {
			defer func() {
				if err := influxClient.Close(); err != nil {
					log.Error("error closing InfluxDB connection", "error", err)
				}
			}()
			influxClient.SetOnError(func(err error) {
				log.Error("InfluxDB write failed", "error", err)
			})
			log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL)
			recordWeather(influxClient, weather)
		}
	}

	// Persistence layers
	historyRepo := entity.NewSQLiteStateHistoryRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)
	if cfg.Database.HistoryRetentionDays > 0 {
		go pruneLoop(ctx, historyRepo, cfg.Database.HistoryRetentionDays, log)
	}

	// Bridge
	bridgeOpts := bridge.Options{
		Registry:   registry,
		Controller: client,
		MQTTClient: mqttClient,
		Topics:     mqttClient.Topics(),
		QoS:        byte(cfg.MQTT.QoS),
		History:    historyRepo,
		Audit:      auditRepo,
		Logger:     log,
	}
	if influxClient != nil {
		bridgeOpts.Metrics = influxClient
	}
	br, err := bridge.New(bridgeOpts)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	events, err := isy.NewEventStream(client, br.HandleEvent, log)
	if err != nil {
		return fmt.Errorf("creating event stream: %w", err)
	}
	br.AttachEvents(events)

	if err := br.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer br.Stop()

	// Broker reconnects republish every retained state so late
	// subscribers never see stale topics.
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected, republishing entity states")
		br.PublishStates()
	})

	// REST API
	if cfg.API.Enabled {
		apiDeps := api.Deps{
			Config:     cfg.API,
			Security:   cfg.Security,
			Logger:     log,
			Registry:   registry,
			History:    historyRepo,
			Audit:      auditRepo,
			Weather:    weather,
			MQTT:       mqttClient,
			Controller: client,
			Version:    version,
		}
		if influxClient != nil {
			apiDeps.Metrics = influxClient
		}
		apiServer, err := api.New(apiDeps)
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := apiServer.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if err := apiServer.Close(); err != nil {
				log.Error("error closing API server", "error", err)
			}
		}()
	}

	go healthCheckLoop(ctx, db, mqttClient, influxClient, log)

	log.Info("isy-bridge running", "entities", registry.Count())
	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

// buildRegistry fetches the controller directories, classifies them, and
// loads the result into a fresh entity registry. The weather entries are
// returned separately for the API.
func buildRegistry(ctx context.Context, cfg *config.Config, client *isy.Client, log *logging.Logger) (*entity.Registry, []classify.WeatherEntry, error) {
	nodes, err := client.Nodes(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching nodes: %w", err)
	}

	programs, err := client.Programs(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching programs: %w", err)
	}

	variables, err := client.Variables(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching variables: %w", err)
	}

	classifier := classify.New(cfg.ISY.IgnoreString, cfg.ISY.SensorString, log)
	result := classify.NewResult()
	classifier.ClassifyNodes(result, nodes)
	classifier.ClassifyPrograms(result, programs)
	classifier.ClassifyVariables(result, variables, classify.CategorySensor, descriptors(cfg.ISY.Variables.Sensors))
	classifier.ClassifyVariables(result, variables, classify.CategoryBinarySensor, descriptors(cfg.ISY.Variables.BinarySensors))
	classifier.ClassifyVariables(result, variables, classify.CategorySwitch, descriptors(cfg.ISY.Variables.Switches))

	if cfg.ISY.EnableClimate && client.Configuration().HasFeature(isy.FeatureWeatherInformation) {
		climate, err := client.Climate(ctx)
		if err != nil {
			log.Warn("fetching climate failed, weather disabled", "error", err)
		} else {
			classifier.ClassifyWeather(result, climate)
		}
	}

	registry := entity.NewRegistry()
	registry.SetLogger(log)
	registry.Load(result)

	return registry, result.Weather, nil
}

// descriptors converts the config variable lists into classifier input.
func descriptors(vars []config.VariableConfig) []classify.VariableDescriptor {
	out := make([]classify.VariableDescriptor, 0, len(vars))
	for _, v := range vars {
		out = append(out, classify.VariableDescriptor{
			ID:          v.ID,
			Type:        v.Type,
			Name:        v.Name,
			Icon:        v.Icon,
			DeviceClass: v.DeviceClass,
			Unit:        v.UnitOfMeasurement,
			OnValue:     v.On(),
			OffValue:    v.Off(),
		})
	}
	return out
}

// recordWeather writes the startup weather snapshot to the time-series
// database. Entries with non-numeric values are skipped.
func recordWeather(influxClient *influxdb.Client, weather []classify.WeatherEntry) {
	for _, entry := range weather {
		value, err := strconv.ParseFloat(entry.Value, 64)
		if err != nil {
			continue
		}
		influxClient.WriteWeatherMetric(entry.Label, entry.Unit, value)
	}
}

// pruneLoop periodically removes state history rows past the retention
// window.
func pruneLoop(ctx context.Context, repo entity.StateHistoryRepository, retentionDays int, log *logging.Logger) {
	retention := time.Duration(retentionDays) * hoursPerDay * time.Hour

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := repo.PruneHistory(ctx, retention)
			if err != nil {
				log.Error("history prune failed", "error", err)
				continue
			}
			if deleted > 0 {
				log.Info("pruned state history", "rows", deleted, "retention_days", retentionDays)
			}
		}
	}
}

// healthCheckLoop periodically probes the backing services and logs
// failures. It never stops the bridge; degraded services recover on
// their own reconnect logic.
func healthCheckLoop(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, log *logging.Logger) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)

			if err := db.HealthCheck(probeCtx); err != nil {
				log.Error("database health check failed", "error", err)
			}
			if err := mqttClient.HealthCheck(probeCtx); err != nil {
				log.Warn("MQTT health check failed", "error", err)
			}
			if influxClient != nil {
				if err := influxClient.HealthCheck(probeCtx); err != nil {
					log.Warn("InfluxDB health check failed", "error", err)
				}
			}

			cancel()
		}
	}
}

// getConfigPath returns the configuration file path, honouring the
// ISYBRIDGE_CONFIG environment variable.
func getConfigPath() string {
	if path := os.Getenv("ISYBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
