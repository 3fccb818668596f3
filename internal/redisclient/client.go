package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/record_activity.lua
var recordActivityScript string

//go:embed scripts/clear_session.lua
var clearSessionScript string

type Client struct {
	rdb            *redis.Client
	activityScript *redis.Script
	clearScript    *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:            rdb,
		activityScript: redis.NewScript(recordActivityScript),
		clearScript:    redis.NewScript(clearSessionScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func totalsKey(invoiceNumber string) string {
	return fmt.Sprintf("activity:totals:%s", invoiceNumber)
}

func metaKey(invoiceNumber string) string {
	return fmt.Sprintf("activity:meta:%s", invoiceNumber)
}

// RecordActivity atomically folds one scan into the invoice's live-activity
// counters via Lua. The counters are advisory and fully recomputable from the
// ledger; reconciliation never reads them.
func (c *Client) RecordActivity(ctx context.Context, invoiceNumber, barcode string, quantity float64, recordedAt time.Time) error {
	keys := []string{totalsKey(invoiceNumber), metaKey(invoiceNumber)}

	_, err := c.activityScript.Run(ctx, c.rdb, keys, barcode, quantity, recordedAt.Unix()).Result()
	if err != nil {
		return fmt.Errorf("record activity script failed: %w", err)
	}
	return nil
}

// ClearActivity atomically drops an invoice's live-activity counters
func (c *Client) ClearActivity(ctx context.Context, invoiceNumber string) error {
	keys := []string{totalsKey(invoiceNumber), metaKey(invoiceNumber)}

	_, err := c.clearScript.Run(ctx, c.rdb, keys).Result()
	if err != nil {
		return fmt.Errorf("clear session script failed: %w", err)
	}
	return nil
}

// GetActivity retrieves an invoice's live scan count and last-activity time
func (c *Client) GetActivity(ctx context.Context, invoiceNumber string) (scanCount int64, lastActivity time.Time, err error) {
	result, err := c.rdb.HGetAll(ctx, metaKey(invoiceNumber)).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	if len(result) == 0 {
		return 0, time.Time{}, nil
	}

	scanCount, _ = strconv.ParseInt(result["scan_count"], 10, 64)
	if ts, err := strconv.ParseInt(result["last_activity"], 10, 64); err == nil {
		lastActivity = time.Unix(ts, 0)
	}
	return scanCount, lastActivity, nil
}

// ClaimScanKey claims a client-supplied idempotency key for a scan
// submission. Returns false if the key was already claimed, so a device retry
// never appends the same scan twice.
func (c *Client) ClaimScanKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("scan-key:%s", key), "1", ttl).Result()
}

// ReleaseScanKey drops a claimed idempotency key. Called when the append
// behind the claim failed, so the client's retry is not mistaken for a
// duplicate.
func (c *Client) ReleaseScanKey(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("scan-key:%s", key)).Err()
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
