package linkcheck

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/docnav/internal/config"
	"git.home.luguber.info/inful/docnav/internal/logfields"
)

// Publisher emits broken link events.
type Publisher interface {
	PublishBrokenLink(ctx context.Context, event *BrokenLinkEvent) error
}

// NATSClient is a Cache backed by a JetStream key-value bucket and a
// Publisher on a JetStream subject.
type NATSClient struct {
	conn     *nats.Conn
	js       jetstream.JetStream
	kv       jetstream.KeyValue
	subject  string
	kvBucket string
}

// NewNATSClient connects to the server configured in cfg and opens or
// creates the cache bucket.
func NewNATSClient(ctx context.Context, cfg config.NATSConfig) (*NATSClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("nats url is required")
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("docnav"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	client := &NATSClient{
		conn:     conn,
		js:       js,
		subject:  cfg.Subject,
		kvBucket: cfg.KVBucket,
	}
	if err := client.initKVBucket(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize KV bucket: %w", err)
	}
	if err := client.initStream(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize event stream: %w", err)
	}

	slog.Info("NATS client initialized for link checks",
		logfields.URL(cfg.URL),
		slog.String("subject", cfg.Subject),
		slog.String("kv_bucket", cfg.KVBucket))
	return client, nil
}

func (c *NATSClient) initKVBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	kv, err := c.js.KeyValue(ctx, c.kvBucket)
	if err == nil {
		c.kv = kv
		return nil
	}

	kv, err = c.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      c.kvBucket,
		Description: "docnav navigation link cache",
		MaxBytes:    16 * 1024 * 1024,
		History:     1,
	})
	if err != nil {
		return fmt.Errorf("failed to create KV bucket: %w", err)
	}
	c.kv = kv
	slog.Info("Created KV bucket for link cache", slog.String("bucket", c.kvBucket))
	return nil
}

// EventStream is the JetStream stream capturing broken link events.
const EventStream = "DOCNAV_BROKEN_LINKS"

func (c *NATSClient) initStream(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     EventStream,
		Subjects: []string{c.subject},
		MaxAge:   30 * 24 * time.Hour,
	})
	return err
}

// cacheKey maps a URL onto the restricted KV key alphabet.
func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "link." + hex.EncodeToString(sum[:])
}

// Get retrieves a cached result.
func (c *NATSClient) Get(ctx context.Context, url string) (*CacheEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	entry, err := c.kv.Get(ctx, cacheKey(url))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	var cached CacheEntry
	if err := json.Unmarshal(entry.Value(), &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return &cached, nil
}

// Set stores a result. Expiry is decided by TTL.Fresh on read.
func (c *NATSClient) Set(ctx context.Context, entry *CacheEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if _, err := c.kv.Put(ctx, cacheKey(entry.URL), data); err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}
	return nil
}

// PublishBrokenLink publishes a broken link event.
func (c *NATSClient) PublishBrokenLink(ctx context.Context, event *BrokenLinkEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	event.Timestamp = time.Now()
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := c.js.Publish(ctx, c.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.Debug("Published broken link event", logfields.URL(event.URL), logfields.Path(event.Path))
	return nil
}

// Close closes the NATS connection.
func (c *NATSClient) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}
