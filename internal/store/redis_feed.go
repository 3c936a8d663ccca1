package store

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisChangeFeed implements ChangeFeed over Redis pub/sub. Every API
// instance publishes after each successful write, so views on every
// connected client converge without the instances knowing about each other.
type RedisChangeFeed struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisChangeFeed(rdb *redis.Client, logger ...*zap.Logger) *RedisChangeFeed {
	l := zap.L().Named("store.changefeed")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("store.changefeed")
	}
	return &RedisChangeFeed{rdb: rdb, logger: l}
}

func (f *RedisChangeFeed) Publish(ctx context.Context, scope Scope) error {
	if err := f.rdb.Publish(ctx, scope.Channel(), "1").Err(); err != nil {
		return err
	}
	if scope.EmployeeID != "" {
		return f.rdb.Publish(ctx, scope.Broaden().Channel(), "1").Err()
	}
	return nil
}

func (f *RedisChangeFeed) Subscribe(ctx context.Context, scope Scope) (*Subscription, error) {
	ps := f.rdb.Subscribe(ctx, scope.Channel())

	// Force the SUBSCRIBE round-trip now so a broken connection surfaces
	// to the caller instead of silently yielding a dead channel.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	changes := make(chan struct{}, 1)
	errs := make(chan error, 1)
	done := make(chan struct{})

	go func() {
		defer close(changes)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case _, ok := <-msgs:
				if !ok {
					select {
					case errs <- ctx.Err():
					default:
					}
					return
				}
				// Coalesce: one pending signal is enough, the
				// subscriber re-reads the whole result set anyway.
				select {
				case changes <- struct{}{}:
				default:
				}
			}
		}
	}()

	stop := func() {
		close(done)
		if err := ps.Close(); err != nil {
			f.logger.Warn("close pubsub failed",
				zap.String("channel", scope.Channel()),
				zap.Error(err),
			)
		}
	}

	return newSubscription(changes, errs, stop), nil
}
