// Package bridge fans room events out across hub instances through Kafka.
// Each instance publishes the frames it relays locally and delivers the frames
// published by its peers to its own members of the same room. An instance tag
// on every envelope prevents feedback loops.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/coderoom/hub/internal/config"
	"github.com/coderoom/hub/internal/domain"
	"github.com/coderoom/hub/internal/hub"
)

// Envelope is the Kafka record payload.
type Envelope struct {
	Instance string          `json:"instance"`
	Room     domain.RoomID   `json:"room"`
	Frame    json.RawMessage `json:"frame"`
}

type Bridge struct {
	instance string
	writer   *kafka.Writer
	reader   *kafka.Reader
	router   *hub.Router
}

func New(cfg config.Bridge, router *hub.Router) *Bridge {
	instance := uuid.NewString()
	return &Bridge{
		instance: instance,
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.Topic,
			Balancer: &kafka.LeastBytes{},
		},
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.Brokers,
			Topic:   cfg.Topic,
			// Each instance is its own consumer group so every instance sees
			// every record.
			GroupID: fmt.Sprintf("%s-%s", cfg.Group, instance),
		}),
		router: router,
	}
}

// Publish implements hub.Publisher. Failures are logged and dropped: the
// bridge is best-effort, local delivery already happened.
func (b *Bridge) Publish(room domain.RoomID, frame hub.Frame) {
	payload, err := json.Marshal(Envelope{Instance: b.instance, Room: room, Frame: json.RawMessage(frame)})
	if err != nil {
		log.Error().Err(err).Str("module", "bridge").Msg("marshal envelope")
		return
	}
	if err := b.writer.WriteMessages(context.Background(), kafka.Message{Value: payload}); err != nil {
		log.Warn().Err(err).Str("module", "bridge").Msg("publish failed")
	}
}

// Run consumes peer records until ctx is canceled. Must be launched as a
// goroutine.
func (b *Bridge) Run(ctx context.Context) {
	log.Info().Str("module", "bridge").Str("instance", b.instance).Msg("bridge consuming")
	for {
		m, err := b.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Str("module", "bridge").Msg("consume error")
			continue
		}
		b.handle(m.Value)
	}
}

// handle delivers one consumed record. Records published by this instance are
// skipped; their frames were already delivered locally before publishing.
func (b *Bridge) handle(value []byte) {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		log.Warn().Err(err).Str("module", "bridge").Msg("bad envelope")
		return
	}
	if env.Instance == b.instance {
		return
	}
	b.router.DeliverLocal(env.Room, hub.Frame(env.Frame))
}

func (b *Bridge) Close() {
	if err := b.writer.Close(); err != nil {
		log.Warn().Err(err).Str("module", "bridge").Msg("close writer")
	}
	if err := b.reader.Close(); err != nil {
		log.Warn().Err(err).Str("module", "bridge").Msg("close reader")
	}
}
