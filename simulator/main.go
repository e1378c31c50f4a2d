// Command simulator publishes synthetic entity state updates to the
// broker so the prediction service has live traffic to forecast.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg := Config{}
	flag.StringVar(&cfg.Broker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	flag.IntVar(&cfg.Aircraft, "aircraft", 5, "number of simulated aircraft")
	flag.IntVar(&cfg.Vessels, "vessels", 5, "number of simulated vessels")
	flag.IntVar(&cfg.Wildlife, "wildlife", 3, "number of simulated animals")
	flag.DurationVar(&cfg.Interval, "interval", 10*time.Second, "publish interval")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("simulator: %v", err)
	}
}

func run(ctx context.Context, cfg Config) error {
	cli, err := newMQTTClient(cfg.Broker, "trackcast-sim")
	if err != nil {
		return err
	}
	defer cli.Disconnect(250)

	fleet := GenerateFleet(cfg)
	log.Printf("publishing %d entities every %s", len(fleet), cfg.Interval)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			for _, e := range fleet {
				e.Advance(now.UTC(), cfg.Interval)
				payload, err := json.Marshal(e.State)
				if err != nil {
					log.Printf("marshal %s: %v", e.State.EntityID, err)
					continue
				}
				topic := fmt.Sprintf("entities/%s/state", e.State.EntityID)
				if token := cli.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
					log.Printf("publish %s: %v", topic, token.Error())
				}
			}
		}
	}
}
