package health

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keys for command traffic. Shared by every server process pointed at
// the same Redis, so the health view aggregates them.
const (
	KeyCmdTotal  = "health:global:cmd_total"
	KeyCmdErrors = "health:global:cmd_errors"
	KeyCmdDenied = "health:global:cmd_denied"
	KeyResTime   = "health:global:res_time_total"
	KeyStartTime = "health:global:start_time"
	KeyLastCmd   = "health:global:last_command"
	KeyVerbCount = "health:global:verb_count"
)

// Sample describes one handled command.
type Sample struct {
	Verb     string        `json:"verb"`
	Remote   string        `json:"remote"`
	Status   int           `json:"status"`
	Duration time.Duration `json:"-"`
	At       time.Time     `json:"time"`
}

// Traffic is the aggregated command traffic.
type Traffic struct {
	TotalCommands   int            `json:"totalCommands"`
	FailedCount     int            `json:"failedCount"`
	DeniedCount     int            `json:"deniedCount"`
	SuccessRate     string         `json:"successRate"`
	AvgResponseTime string         `json:"avgResponseTime"`
	ByVerb          map[string]int `json:"byVerb"`
	LastCommand     *Sample        `json:"lastCommand"`
	StartedAt       time.Time      `json:"-"`
}

// Stats records command samples. Implementations are safe for concurrent use.
type Stats interface {
	Record(ctx context.Context, s Sample)
	Traffic(ctx context.Context) (Traffic, error)
	Reset(ctx context.Context) error
}

func finish(t *Traffic, resTimeMs float64) {
	t.SuccessRate = "100"
	t.AvgResponseTime = "0"
	if t.TotalCommands > 0 {
		ok := t.TotalCommands - t.FailedCount
		t.SuccessRate = strconv.FormatFloat(float64(ok)/float64(t.TotalCommands)*100, 'f', 1, 64)
		t.AvgResponseTime = strconv.FormatFloat(resTimeMs/float64(t.TotalCommands), 'f', 2, 64)
	}
}

// MemoryStats keeps counters in process.
type MemoryStats struct {
	mu      sync.Mutex
	total   int
	failed  int
	denied  int
	resTime float64
	byVerb  map[string]int
	last    *Sample
	started time.Time
}

func NewMemoryStats() *MemoryStats {
	return &MemoryStats{byVerb: make(map[string]int), started: time.Now()}
}

func (m *MemoryStats) Record(_ context.Context, s Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	if s.Status >= 500 {
		m.failed++
	} else if s.Status == 403 {
		m.denied++
	}
	m.resTime += float64(s.Duration.Microseconds()) / 1000
	m.byVerb[s.Verb]++
	last := s
	m.last = &last
}

func (m *MemoryStats) Traffic(context.Context) (Traffic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := Traffic{
		TotalCommands: m.total,
		FailedCount:   m.failed,
		DeniedCount:   m.denied,
		ByVerb:        make(map[string]int, len(m.byVerb)),
		LastCommand:   m.last,
		StartedAt:     m.started,
	}
	for k, v := range m.byVerb {
		t.ByVerb[k] = v
	}
	finish(&t, m.resTime)
	return t, nil
}

func (m *MemoryStats) Reset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total, m.failed, m.denied, m.resTime = 0, 0, 0, 0
	m.byVerb = make(map[string]int)
	m.last = nil
	m.started = time.Now()
	return nil
}

// RedisStats keeps counters in Redis. Recording is best effort: a Redis
// failure never fails the command being measured.
type RedisStats struct {
	rdb *redis.Client
}

func NewRedisStats(rdb *redis.Client) *RedisStats {
	return &RedisStats{rdb: rdb}
}

func (r *RedisStats) Record(ctx context.Context, s Sample) {
	b, _ := json.Marshal(s)
	_, _ = r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, KeyStartTime, strconv.FormatInt(time.Now().UnixMilli(), 10), 0)
		pipe.Incr(ctx, KeyCmdTotal)
		if s.Status >= 500 {
			pipe.Incr(ctx, KeyCmdErrors)
		} else if s.Status == 403 {
			pipe.Incr(ctx, KeyCmdDenied)
		}
		pipe.IncrByFloat(ctx, KeyResTime, float64(s.Duration.Microseconds())/1000)
		pipe.HIncrBy(ctx, KeyVerbCount, s.Verb, 1)
		pipe.Set(ctx, KeyLastCmd, b, 0)
		return nil
	})
}

func (r *RedisStats) Traffic(ctx context.Context) (Traffic, error) {
	vals, err := r.rdb.MGet(ctx, KeyCmdTotal, KeyCmdErrors, KeyCmdDenied, KeyResTime, KeyStartTime, KeyLastCmd).Result()
	if err != nil {
		return Traffic{}, err
	}
	str := func(i int) string {
		s, _ := vals[i].(string)
		return s
	}

	t := Traffic{ByVerb: make(map[string]int)}
	t.TotalCommands, _ = strconv.Atoi(str(0))
	t.FailedCount, _ = strconv.Atoi(str(1))
	t.DeniedCount, _ = strconv.Atoi(str(2))
	resTime, _ := strconv.ParseFloat(str(3), 64)
	t.StartedAt = time.Now()
	if ms, err := strconv.ParseInt(str(4), 10, 64); err == nil {
		t.StartedAt = time.UnixMilli(ms)
	}
	if last := str(5); last != "" {
		var s Sample
		if json.Unmarshal([]byte(last), &s) == nil {
			t.LastCommand = &s
		}
	}

	counts, err := r.rdb.HGetAll(ctx, KeyVerbCount).Result()
	if err != nil {
		return Traffic{}, err
	}
	for verb, n := range counts {
		t.ByVerb[verb], _ = strconv.Atoi(n)
	}
	finish(&t, resTime)
	return t, nil
}

func (r *RedisStats) Reset(ctx context.Context) error {
	keys := []string{KeyCmdTotal, KeyCmdErrors, KeyCmdDenied, KeyResTime, KeyStartTime, KeyLastCmd, KeyVerbCount}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return err
	}
	return r.rdb.Set(ctx, KeyStartTime, strconv.FormatInt(time.Now().UnixMilli(), 10), 0).Err()
}
