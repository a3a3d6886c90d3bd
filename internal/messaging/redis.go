package messaging

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"cluster-service/internal/logger"
)

// Callbacks are invoked from listener goroutines. Consumers must hand the
// work off to the UI thread; nothing here may touch panels or graphics.
type Callbacks struct {
	PanelCallback      func(name string) error // force a regular panel load
	ThemeCallback      func(name string) error // switch theme
	BrightnessCallback func(percent int) error // adjust backlight
}

type RedisClient struct {
	client    *redis.Client
	callbacks Callbacks
	logger    *logger.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewRedisClient(host string, port int, l *logger.Logger) *RedisClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d", host, port),
			DB:   0,
		}),
		logger: l.WithTag("Redis"),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (r *RedisClient) SetCallbacks(callbacks Callbacks) {
	r.callbacks = callbacks
}

func (r *RedisClient) Connect() error {
	r.logger.Infof("Attempting to connect to Redis at %s", r.client.Options().Addr)

	if err := r.client.Ping(r.ctx).Err(); err != nil {
		return fmt.Errorf("Redis connection failed: %w", err)
	}
	r.logger.Infof("Successfully connected to Redis")
	return nil
}

// StartListening starts the command list listeners. Called after the
// application is fully initialized so early commands cannot race bootstrap.
func (r *RedisClient) StartListening() error {
	r.logger.Infof("Starting Redis listeners")

	r.wg.Add(3)
	go r.listCommandListener("cluster:panel", r.handlePanelCommand)
	go r.listCommandListener("cluster:theme", r.handleThemeCommand)
	go r.listCommandListener("cluster:brightness", r.handleBrightnessCommand)

	return nil
}

func (r *RedisClient) listCommandListener(key string, handler func(string) error) {
	defer r.wg.Done()
	r.logger.Debugf("Starting list command listener for %s", key)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debugf("Context cancelled, exiting %s listener", key)
			return
		default:
			// BRPOP with a short timeout so context cancellation is
			// observed periodically.
			result, err := r.client.BRPop(r.ctx, 5*time.Second, key).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if err == context.Canceled {
					return
				}
				r.logger.Warnf("Error reading from %s list: %v", key, err)
				continue
			}
			if len(result) >= 2 { // BRPOP returns [key, value]
				value := result[1]
				r.logger.Debugf("Received command from %s: %s", key, value)
				if err := handler(value); err != nil {
					r.logger.Warnf("Error handling %s command: %v", key, err)
				}
			}
		}
	}
}

func (r *RedisClient) handlePanelCommand(value string) error {
	if r.callbacks.PanelCallback == nil {
		return nil
	}
	if value == "" {
		return fmt.Errorf("empty panel command")
	}
	return r.callbacks.PanelCallback(value)
}

func (r *RedisClient) handleThemeCommand(value string) error {
	if r.callbacks.ThemeCallback == nil {
		return nil
	}
	if value == "" {
		return fmt.Errorf("empty theme command")
	}
	return r.callbacks.ThemeCallback(value)
}

func (r *RedisClient) handleBrightnessCommand(value string) error {
	if r.callbacks.BrightnessCallback == nil {
		return nil
	}
	percent, err := strconv.Atoi(value)
	if err != nil || percent < 0 || percent > 100 {
		r.logger.Warnf("Invalid brightness command value: %s", value)
		return fmt.Errorf("invalid brightness command: %s", value)
	}
	return r.callbacks.BrightnessCallback(percent)
}

// publishHashSet atomically updates a hash field and publishes a notification
func (r *RedisClient) publishHashSet(hash, field string, value interface{}, channel, payload string) error {
	pipe := r.client.Pipeline()
	pipe.HSet(r.ctx, hash, field, value)
	pipe.Publish(r.ctx, channel, payload)
	_, err := pipe.Exec(r.ctx)
	return err
}

// PublishPanelState publishes the current panel name to the cluster hash.
func (r *RedisClient) PublishPanelState(panel string) error {
	r.logger.Debugf("Publishing panel state: %s", panel)
	if err := r.publishHashSet("cluster", "panel", panel, "cluster", "panel"); err != nil {
		r.logger.Warnf("Failed to publish panel state: %v", err)
		return err
	}
	return nil
}

// PublishThemeState publishes the active theme name.
func (r *RedisClient) PublishThemeState(theme string) error {
	r.logger.Debugf("Publishing theme state: %s", theme)
	if err := r.publishHashSet("cluster", "theme", theme, "cluster", "theme"); err != nil {
		r.logger.Warnf("Failed to publish theme state: %v", err)
		return err
	}
	return nil
}

// PublishBrightness publishes the backlight brightness percentage.
func (r *RedisClient) PublishBrightness(percent int) error {
	r.logger.Debugf("Publishing brightness: %d", percent)
	if err := r.publishHashSet("cluster", "brightness", percent, "cluster", "brightness"); err != nil {
		r.logger.Warnf("Failed to publish brightness: %v", err)
		return err
	}
	return nil
}

// SetReading publishes one sensor reading into the cluster hash. Readings are
// observational; failures are logged and absorbed by the caller.
func (r *RedisClient) SetReading(name, value string) error {
	field := fmt.Sprintf("reading:%s", name)
	if err := r.publishHashSet("cluster", field, value, "cluster", field); err != nil {
		r.logger.Warnf("Failed to set reading %s: %v", name, err)
		return err
	}
	return nil
}

// GetSettingsBlob reads the persisted preference blob.
func (r *RedisClient) GetSettingsBlob() (string, error) {
	value, err := r.client.HGet(r.ctx, "settings", "cluster").Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get settings blob: %w", err)
	}
	return value, nil
}

// SetSettingsBlob stores the preference blob and notifies listeners.
func (r *RedisClient) SetSettingsBlob(blob string) error {
	if err := r.publishHashSet("settings", "cluster", blob, "settings", "cluster"); err != nil {
		r.logger.Warnf("Failed to set settings blob: %v", err)
		return err
	}
	return nil
}

func (r *RedisClient) Close() error {
	r.logger.Infof("Closing Redis client")
	r.cancel()

	// Wait for all goroutines to finish with a timeout
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Debugf("All Redis goroutines finished")
	case <-time.After(5 * time.Second):
		r.logger.Warnf("Timeout waiting for Redis goroutines to finish")
	}

	return r.client.Close()
}
