package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// OddsUpdate is a push notification that a game's prices changed
type OddsUpdate struct {
	Op     string `json:"op"` // update, heartbeat
	Sport  string `json:"sport"`
	GameID string `json:"game_id"`
}

// UpdateHandler is called for every odds update received from the stream
type UpdateHandler func(update OddsUpdate)

// ReconnectConfig controls stream reconnection behavior
type ReconnectConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultReconnectConfig returns conservative reconnect defaults
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxRetries:        10,
		InitialBackoff:    time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// StreamClient maintains a WebSocket subscription to the odds provider's
// push feed. Consumers register handlers that typically invalidate cache
// entries so realtime reads recompute.
type StreamClient struct {
	url             string
	apiKey          string
	sports          []string
	reconnectConfig ReconnectConfig
	logger          *logrus.Logger

	mu              sync.RWMutex
	conn            *websocket.Conn
	isConnected     bool
	handlers        []UpdateHandler
	lastMessageTime time.Time
}

type subscribeMessage struct {
	Op     string   `json:"op"`
	APIKey string   `json:"api_key"`
	Sports []string `json:"sports"`
}

// NewStreamClient creates a new odds stream client
func NewStreamClient(url, apiKey string, sports []string, logger *logrus.Logger) *StreamClient {
	return &StreamClient{
		url:             url,
		apiKey:          apiKey,
		sports:          sports,
		reconnectConfig: DefaultReconnectConfig(),
		logger:          logger,
	}
}

// OnUpdate registers a handler for odds updates
func (s *StreamClient) OnUpdate(handler UpdateHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// IsConnected reports whether the stream is currently connected
func (s *StreamClient) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isConnected
}

// Run connects and consumes the stream until the context is cancelled,
// reconnecting with exponential backoff on failure.
func (s *StreamClient) Run(ctx context.Context) error {
	backoff := s.reconnectConfig.InitialBackoff
	retries := 0

	for {
		if err := s.connect(ctx); err != nil {
			retries++
			if s.reconnectConfig.MaxRetries > 0 && retries > s.reconnectConfig.MaxRetries {
				return fmt.Errorf("stream reconnect limit reached: %w", err)
			}
			s.logger.WithError(err).WithField("backoff", backoff).Warn("Stream connect failed, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(float64(backoff) * s.reconnectConfig.BackoffMultiplier)
			if backoff > s.reconnectConfig.MaxBackoff {
				backoff = s.reconnectConfig.MaxBackoff
			}
			continue
		}

		retries = 0
		backoff = s.reconnectConfig.InitialBackoff

		if err := s.readLoop(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.WithError(err).Warn("Stream read loop ended, reconnecting")
		}
	}
}

func (s *StreamClient) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial stream: %w", err)
	}

	sub := subscribeMessage{Op: "subscribe", APIKey: s.apiKey, Sports: s.sports}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.isConnected = true
	s.mu.Unlock()

	s.logger.WithField("sports", s.sports).Info("Odds stream connected")
	return nil
}

func (s *StreamClient) readLoop(ctx context.Context) error {
	defer func() {
		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
			s.conn = nil
		}
		s.isConnected = false
		s.mu.Unlock()
	}()

	// Close the connection when the context ends so ReadMessage unblocks
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.mu.RLock()
			if s.conn != nil {
				s.conn.Close()
			}
			s.mu.RUnlock()
		case <-done:
		}
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("stream read error: %w", err)
		}

		s.mu.Lock()
		s.lastMessageTime = time.Now()
		s.mu.Unlock()

		var update OddsUpdate
		if err := json.Unmarshal(data, &update); err != nil {
			s.logger.WithError(err).Debug("Skipping malformed stream message")
			continue
		}
		if update.Op != "update" {
			continue
		}

		s.mu.RLock()
		handlers := make([]UpdateHandler, len(s.handlers))
		copy(handlers, s.handlers)
		s.mu.RUnlock()

		for _, h := range handlers {
			h(update)
		}
	}
}
