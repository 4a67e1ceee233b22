package facts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"gatehouse/internal/gate"
)

const (
	scanKeyPrefix  = "wo:scans:"
	quotaKeyPrefix = "wo:serial_quota:"
)

// RedisLedger is the Redis-backed serial scan ledger. Scans for a work order
// live in one list, appended as stations record them, so the session always
// reads a consistent snapshot with a single LRANGE.
type RedisLedger struct {
	client *redis.Client
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func (l *RedisLedger) Scans(ctx context.Context, workOrderID string) ([]gate.SerialScanRecord, error) {
	raw, err := l.client.LRange(ctx, scanKeyPrefix+workOrderID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read scan ledger: %w", err)
	}
	records := make([]gate.SerialScanRecord, 0, len(raw))
	for _, item := range raw {
		var r gate.SerialScanRecord
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("decode scan record: %w", err)
		}
		records = append(records, r)
	}
	return records, nil
}

func (l *RedisLedger) AppendScan(ctx context.Context, workOrderID string, scan gate.SerialScanRecord) error {
	payload, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("encode scan record: %w", err)
	}
	if err := l.client.RPush(ctx, scanKeyPrefix+workOrderID, payload).Err(); err != nil {
		return fmt.Errorf("append scan record: %w", err)
	}
	return nil
}

// RequiredSerialCount returns the scan quota for a work order, zero when none
// is configured. A zero quota never blocks.
func (l *RedisLedger) RequiredSerialCount(ctx context.Context, workOrderID string) (int, error) {
	raw, err := l.client.Get(ctx, quotaKeyPrefix+workOrderID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read serial quota: %w", err)
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse serial quota %q: %w", raw, err)
	}
	return count, nil
}

func (l *RedisLedger) SetRequiredSerialCount(ctx context.Context, workOrderID string, count int) error {
	if err := l.client.Set(ctx, quotaKeyPrefix+workOrderID, strconv.Itoa(count), 0).Err(); err != nil {
		return fmt.Errorf("set serial quota: %w", err)
	}
	return nil
}
