package redpanda

import (
	"context"
	"errors"
	"fmt"

	"oncology-dispatch/internal/platform/logger"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

type TopicConfig struct {
	Name              string
	Partitions        int32
	ReplicationFactor int16
	Configs           map[string]*string
}

// DefaultTopicConfig: eventos de despachos con retención de 30 días.
func DefaultTopicConfig(name string) TopicConfig {
	ptr := func(s string) *string { return &s }
	if name == "" {
		name = DefaultTopic
	}
	return TopicConfig{
		Name:              name,
		Partitions:        6,
		ReplicationFactor: 1,
		Configs: map[string]*string{
			"retention.ms":     ptr("2592000000"),
			"cleanup.policy":   ptr("delete"),
			"compression.type": ptr("lz4"),
		},
	}
}

// EnsureTopic crea el topic si no existe.
func EnsureTopic(ctx context.Context, brokers []string, cfg TopicConfig, log logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	cl, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return fmt.Errorf("redpanda: create admin client: %w", err)
	}
	adm := kadm.NewClient(cl)
	defer adm.Close()

	resp, err := adm.CreateTopics(ctx, cfg.Partitions, cfg.ReplicationFactor, cfg.Configs, cfg.Name)
	if err != nil {
		return fmt.Errorf("redpanda: create topic %s: %w", cfg.Name, err)
	}
	for _, r := range resp {
		switch {
		case r.Err == nil:
			log.Info("topic created", map[string]any{"topic": r.Topic, "partitions": cfg.Partitions})
		case errors.Is(r.Err, kerr.TopicAlreadyExists):
			log.Debug("topic already exists", map[string]any{"topic": r.Topic})
		default:
			return fmt.Errorf("redpanda: create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}
