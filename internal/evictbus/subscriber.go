// Package evictbus accepts eviction requests published on a Redis channel,
// so an external trust authority can evict without reaching the HTTP API.
package evictbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/liveclass/internal/model"
	"github.com/mcoot/liveclass/internal/services/eviction"
)

// Evicter is the eviction gateway
type Evicter interface {
	Evict(ctx context.Context, req eviction.Request) (eviction.Result, error)
}

// Reply is published on the result channel for every request received
type Reply struct {
	Identity     string             `json:"identity"`
	Success      bool               `json:"success"`
	Message      string             `json:"message"`
	Evicted      bool               `json:"evicted"`
	ConnectionID model.ConnectionID `json:"connection_id,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// Subscriber listens on the eviction channel
type Subscriber struct {
	client  *redis.Client
	cfg     Config
	evicter Evicter
	logger  *slog.Logger
}

// New connects to Redis and verifies the connection
func New(cfg Config, evicter Evicter, logger *slog.Logger) (*Subscriber, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewWithClient(client, cfg, evicter, logger), nil
}

// NewWithClient creates a Subscriber with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, evicter Evicter, logger *slog.Logger) *Subscriber {
	if cfg.Channel == "" {
		cfg.Channel = DefaultConfig().Channel
	}
	return &Subscriber{
		client:  client,
		cfg:     cfg,
		evicter: evicter,
		logger:  logger.With(slog.String("component", "evictbus"), slog.String("channel", cfg.Channel)),
	}
}

// Run handles requests until ctx is cancelled, then returns nil.
// A failed subscription is returned as an error.
func (s *Subscriber) Run(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.cfg.Channel)
	defer func() { _ = pubsub.Close() }()

	// Wait for the subscription to be confirmed before reporting ready
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", s.cfg.Channel, err)
	}
	s.logger.Info("eviction subscriber started")

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("eviction subscriber stopped")
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			s.handle(ctx, msg.Payload)
		}
	}
}

// Close closes the Redis connection
func (s *Subscriber) Close() error {
	return s.client.Close()
}

func (s *Subscriber) handle(ctx context.Context, payload string) {
	var req eviction.Request
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		s.logger.Warn("malformed eviction request", slog.String("error", err.Error()))
		s.reply(ctx, Reply{Message: "request must be a JSON object", Error: eviction.CodeInvalid})
		return
	}

	reply := Reply{Identity: strings.TrimSpace(req.Identity)}
	result, err := s.evicter.Evict(ctx, req)
	if err != nil {
		reply.Message = err.Error()
		reply.Error = eviction.Code(err)
		s.reply(ctx, reply)
		return
	}

	reply.Success = result.Success
	reply.Message = result.Message
	reply.Evicted = result.Evicted
	reply.ConnectionID = result.ConnectionID
	s.reply(ctx, reply)
}

func (s *Subscriber) reply(ctx context.Context, reply Reply) {
	if s.cfg.ResultChannel == "" {
		return
	}
	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Error("failed to encode eviction reply", slog.String("error", err.Error()))
		return
	}
	if err := s.client.Publish(ctx, s.cfg.ResultChannel, data).Err(); err != nil {
		s.logger.Warn("failed to publish eviction reply", slog.String("error", err.Error()))
	}
}
