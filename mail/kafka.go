package mail

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// ErrBufferFull is returned by dispatchers that queue in-process when the
// queue is full.
var ErrBufferFull = errors.New("mail: buffer full")

// KafkaConfig configures a Kafka dispatcher. Username and Password are
// optional; when set, the writer authenticates with SASL/PLAIN over TLS.
type KafkaConfig struct {
	Broker   string
	Topic    string
	Username string
	Password string

	WriteTimeout time.Duration
}

// Kafka publishes messages to a topic consumed by the mail service. The
// message key is the recipient address, so retries for one mailbox stay on
// one partition.
type Kafka struct {
	writer *kafka.Writer
}

// NewKafka returns a dispatcher writing to cfg.Topic.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if cfg.Broker == "" || cfg.Topic == "" {
		return nil, errors.New("mail: kafka broker and topic are required")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Broker),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.WriteTimeout,
	}

	if cfg.Username != "" {
		writer.Transport = &kafka.Transport{
			SASL: plain.Mechanism{
				Username: cfg.Username,
				Password: cfg.Password,
			},
			TLS: &tls.Config{},
		}
	}

	return &Kafka{writer: writer}, nil
}

func (k *Kafka) Send(ctx context.Context, msg Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.To),
		Value: value,
		Time:  time.Now(),
	})
}

// Close flushes and closes the underlying writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
