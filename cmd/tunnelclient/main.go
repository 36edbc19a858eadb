// Tunnels renderer client.
//
// tunnelclient subscribes to the show's frame stream, decodes each frame
// on a background worker and hands the newest one to the render loop on
// every tick. Frame statistics are logged periodically and, when
// configured, written to InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tunnelz/tunnels/internal/infrastructure/config"
	"github.com/tunnelz/tunnels/internal/infrastructure/influxdb"
	"github.com/tunnelz/tunnels/internal/infrastructure/logging"
	"github.com/tunnelz/tunnels/internal/infrastructure/mqtt"
	"github.com/tunnelz/tunnels/internal/transport"
)

// Version information, set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/tunnels.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the receive path and blocks in the render loop until ctx ends.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting tunnelclient",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log = logging.New(cfg.Logging, version)

	clientName, _ := os.Hostname() //nolint:errcheck // Empty name is tolerated in telemetry tags

	// The MQTT client is only needed when frames travel over MQTT.
	var frameClient transport.MQTTClient
	if cfg.Transport.Kind == config.TransportMQTT {
		mqttClient, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		clientName = mqttClient.ClientID()
		frameClient = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", clientName,
		)
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer influxClient.Close() //nolint:errcheck // Close flushes and never fails
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	recv, err := transport.Open(ctx, cfg, frameClient, log.With("component", "receiver"))
	if err != nil {
		return fmt.Errorf("opening frame source: %w", err)
	}
	frames := transport.StartForwarding(recv, cfg.Receiver.QueueSize)
	defer func() {
		frames.Close()
		if closeErr := recv.Close(); closeErr != nil {
			log.Warn("error closing receiver", "error", closeErr)
		}
	}()
	log.Info("receiving frames",
		"transport", cfg.Transport.Kind,
		"endpoint", endpoint(cfg),
		"topic", cfg.Transport.Topic,
	)

	loop := &renderLoop{
		frames:        frames,
		stats:         recv,
		renderer:      newLogRenderer(log.With("component", "render")),
		reporter:      newReporter(clientName, cfg.Transport.Kind),
		telemetry:     influxClient,
		logger:        log,
		renderEvery:   cfg.GetRenderInterval(),
		statsInterval: cfg.GetStatsInterval(),
	}
	loop.run(ctx)

	log.Info("tunnelclient stopped", "stats", recv.Stats())
	return nil
}

// loadConfig reads the config file. Without TUNNELS_CONFIG a missing
// default file means built-in defaults plus environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(getConfigPath(), os.Getenv("TUNNELS_CONFIG") != "")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// getConfigPath returns TUNNELS_CONFIG or the default path.
func getConfigPath() string {
	if path := os.Getenv("TUNNELS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

func endpoint(cfg *config.Config) string {
	if cfg.Transport.Kind == config.TransportMQTT {
		return fmt.Sprintf("mqtt://%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port)
	}
	return cfg.TransportAddr()
}
