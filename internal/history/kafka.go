package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafka "github.com/segmentio/kafka-go"
)

// KafkaStore keeps the history in a single-partition Kafka topic, the
// same layout Debezium uses for its schema history. Append order is the
// partition order, so replay reads the partition from the beginning.
type KafkaStore struct {
	Options
	brokers     []string
	topic       string
	readTimeout time.Duration
	writer      *kafka.Writer
}

func NewKafkaStore(brokers []string, topic string, opts Options) *KafkaStore {
	return &KafkaStore{
		Options:     opts,
		brokers:     brokers,
		topic:       topic,
		readTimeout: 10 * time.Second,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (s *KafkaStore) Close() error { return s.writer.Close() }

func (s *KafkaStore) Exists() bool {
	last, err := s.lastOffset()
	return err == nil && last > 0
}

func (s *KafkaStore) Append(r Record) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.readTimeout)
	defer cancel()
	if err := s.writer.WriteMessages(ctx, kafka.Message{Value: b}); err != nil {
		return fmt.Errorf("write history record to %s: %w", s.topic, err)
	}
	return nil
}

func (s *KafkaStore) Recover(fn func(r Record) error) error {
	last, err := s.lastOffset()
	if err != nil {
		return fmt.Errorf("read history topic offsets: %w", err)
	}
	if last == 0 {
		return nil
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  s.brokers,
		Topic:    s.topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer r.Close()
	if err := r.SetOffset(kafka.FirstOffset); err != nil {
		return fmt.Errorf("rewind history topic: %w", err)
	}

	for {
		ctx, cancel := context.WithTimeout(context.Background(), s.readTimeout)
		m, err := r.ReadMessage(ctx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("history topic read stalled before offset %d", last)
			}
			return fmt.Errorf("read history topic: %w", err)
		}
		var rec Record
		if err := json.Unmarshal(m.Value, &rec); err != nil {
			return fmt.Errorf("history topic offset %d: %w", m.Offset, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
		if m.Offset >= last-1 {
			return nil
		}
	}
}

// lastOffset returns the next offset to be produced on partition 0,
// which equals the number of records when the topic is single-partition
// and uncompacted.
func (s *KafkaStore) lastOffset() (int64, error) {
	if len(s.brokers) == 0 {
		return 0, errors.New("no kafka brokers configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.readTimeout)
	defer cancel()
	conn, err := kafka.DialLeader(ctx, "tcp", s.brokers[0], s.topic, 0)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	return conn.ReadLastOffset()
}
