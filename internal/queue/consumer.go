package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/floradex/internal/logging"
)

// DefaultLogPath is where consumed events are appended.
var DefaultLogPath = filepath.Join("logs", "plant-events.log")

// Consumer listens on the plant queues and appends one line per event
// to a log file.
type Consumer struct {
	URL     string
	LogPath string
	Log     *logging.Logger
}

// Run dials the broker and consumes until ctx is cancelled.  Lost
// connections are retried with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	if c.LogPath == "" {
		c.LogPath = DefaultLogPath
	}
	if c.Log == nil {
		c.Log = logging.Nop()
	}

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return nil
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("event consumer: dial failed", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		c.Log.Warn("event consumer: consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("event consumer: set QoS failed", "error", err)
	}

	var streams []<-chan amqp.Delivery
	for _, name := range []string{PlantIdentifiedQueue, PlantAddedQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
		msgs, err := ch.Consume(name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		streams = append(streams, msgs)
	}
	c.Log.Info("event consumer: listening", "queues", []string{PlantIdentifiedQueue, PlantAddedQueue})

	identified, added := streams[0], streams[1]
	for {
		var d amqp.Delivery
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-identified:
		case d, ok = <-added:
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := c.Handle(d.RoutingKey, d.Body); err != nil {
			c.Log.Error("event consumer: handle message failed", "queue", d.RoutingKey, "error", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
}

// Handle decodes one message from queue and appends it to the log file.
func (c *Consumer) Handle(queue string, body []byte) error {
	line, err := FormatLine(queue, body)
	if err != nil {
		return err
	}
	path := c.LogPath
	if path == "" {
		path = DefaultLogPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders an event as a single human readable line.
func FormatLine(queue string, body []byte) (string, error) {
	switch queue {
	case PlantIdentifiedQueue:
		var ev PlantIdentifiedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Plant identified | user_id=%d | name=%q | scientific=%q | confidence=%.2f | matched=%q | default_care=%t\n",
			ev.IdentifiedAt, ev.UserID, ev.Name, ev.ScientificName, ev.Confidence, ev.SearchTermMatched, ev.DefaultCare), nil
	case PlantAddedQueue:
		var ev PlantAddedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Plant added | plant_id=%d | user_id=%d | type=%q | name=%q\n",
			ev.AddedAt, ev.PlantID, ev.UserID, ev.Type, ev.Name), nil
	default:
		return "", fmt.Errorf("unknown queue %q", queue)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
