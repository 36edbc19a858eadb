package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tunnelz/tunnels/internal/infrastructure/config"
	"github.com/tunnelz/tunnels/internal/infrastructure/logging"
	"github.com/tunnelz/tunnels/internal/infrastructure/mqtt"
	"github.com/tunnelz/tunnels/internal/snapshot"
	"github.com/tunnelz/tunnels/internal/transport"
)

// pacerWindow is the number of frames the send-time average covers.
const pacerWindow = 5

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var (
		patternName string
		frames      uint64
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a test pattern to renderers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			p, err := lookupPattern(patternName)
			if err != nil {
				return err
			}
			return publishPattern(cmd.Context(), cfg, ctx.logger(cfg), p, frames)
		},
	}
	cmd.Flags().StringVarP(&patternName, "pattern", "p", "rotation", "test pattern: rotation or stress")
	cmd.Flags().Uint64VarP(&frames, "frames", "n", 0, "stop after this many frames (0 runs until interrupted)")
	return cmd
}

func publishPattern(ctx context.Context, cfg *config.Config, log *logging.Logger, p pattern, limit uint64) error {
	var client transport.MQTTClient
	if cfg.Transport.Kind == config.TransportMQTT {
		mqttClient, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer mqttClient.Close() //nolint:errcheck // Process is exiting
		mqttClient.SetLogger(log)
		client = mqttClient
	}

	pub, err := transport.NewPublisher(ctx, cfg, client)
	if err != nil {
		return err
	}
	defer pub.Close() //nolint:errcheck // Process is exiting

	log.Info("publishing test pattern",
		"transport", cfg.Transport.Kind,
		"topic", cfg.Transport.Topic,
		"framerate", cfg.Publisher.Framerate,
	)

	sent, err := publishFrames(ctx, pub, []byte(cfg.Transport.Topic), p, cfg.GetFramePeriod(), limit)
	log.Info("publisher stopped", "frames", sent)
	return err
}

// publishFrames sends pattern frames every period until ctx ends or limit
// frames are sent. Frame numbers count from zero; Time is milliseconds
// since the first frame.
func publishFrames(ctx context.Context, pub transport.Publisher, topic []byte, p pattern, period time.Duration, limit uint64) (uint64, error) {
	start := time.Now()
	pace := newPacer(period)

	var frame uint64
	for limit == 0 || frame < limit {
		begin := time.Now()
		elapsed := begin.Sub(start)

		payload, err := snapshot.Encode(snapshot.Snapshot{
			FrameNumber: frame,
			Time:        uint64(elapsed.Milliseconds()),
			Layers:      p(elapsed),
		})
		if err != nil {
			return frame, err
		}
		if err := pub.Publish(topic, payload); err != nil {
			return frame, err
		}
		frame++

		select {
		case <-ctx.Done():
			return frame, nil
		case <-time.After(pace.next(time.Since(begin))):
		}
	}
	return frame, nil
}

// pacer spaces frames at a fixed period, subtracting the average time
// recent frames took to build and send. Until the window fills, only the
// frames seen so far are averaged.
type pacer struct {
	period time.Duration
	costs  [pacerWindow]time.Duration
	i      int
}

func newPacer(period time.Duration) *pacer {
	return &pacer{period: period}
}

// next records the cost of the frame just sent and returns how long to
// wait before the next one.
func (p *pacer) next(cost time.Duration) time.Duration {
	p.costs[p.i%pacerWindow] = cost
	p.i++

	n := min(p.i, pacerWindow)
	var sum time.Duration
	for _, c := range p.costs[:n] {
		sum += c
	}
	return max(p.period-sum/time.Duration(n), 0)
}
