package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// AppendJSON XADDs {kind, data: <json>, timestamp: <unix>} to stream.
// maxLen > 0 trims the stream approximately to that many entries.
func AppendJSON(ctx context.Context, client *redis.Client, stream string, maxLen int64, kind string, data interface{}) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode %s entry: %w", kind, err)
	}
	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"kind":      kind,
			"data":      string(payload),
			"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
		},
	}
	if maxLen > 0 {
		args.MaxLen = maxLen
		args.Approx = true
	}
	return client.XAdd(ctx, args).Result()
}
