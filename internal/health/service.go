// Package health reports server health and command traffic over HTTP.
package health

import (
	"context"
	"runtime"
	"time"
)

// Pinger is a dependency that can be pinged (database, registry).
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionCounter reports the number of registered sessions.
type SessionCounter interface {
	ActiveSessions(ctx context.Context) (int, error)
}

// Deps are the collaborators CollectHealth inspects. Nil fields are reported
// as disconnected.
type Deps struct {
	DB       Pinger
	Registry Pinger
	Sessions SessionCounter
	Stats    Stats
}

// CollectResult is the /health/json payload.
type CollectResult struct {
	Status         string               `json:"status"`
	Runtime        RuntimeInfo          `json:"runtime"`
	Traffic        Traffic              `json:"traffic"`
	ActiveSessions int                  `json:"activeSessions"`
	Dependencies   map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	Alloc    int `json:"alloc"`
	HeapUsed int `json:"heapUsed"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

func checkDep(ctx context.Context, p Pinger) DepStatus {
	if p == nil {
		return DepStatus{Status: "disconnected"}
	}
	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		return DepStatus{Status: "error"}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: "connected", PingMs: &ms}
}

// CollectHealth gathers dependency status, runtime info and command traffic.
func CollectHealth(ctx context.Context, d Deps) CollectResult {
	result := CollectResult{
		Dependencies: map[string]DepStatus{
			"database": checkDep(ctx, d.DB),
			"registry": checkDep(ctx, d.Registry),
		},
	}

	started := time.Now()
	result.Traffic = Traffic{SuccessRate: "100", AvgResponseTime: "0", ByVerb: map[string]int{}}
	if d.Stats != nil {
		if t, err := d.Stats.Traffic(ctx); err == nil {
			result.Traffic = t
			started = t.StartedAt
		}
	}
	if d.Sessions != nil {
		result.ActiveSessions, _ = d.Sessions.ActiveSessions(ctx)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := int64(time.Since(started).Seconds())
	if uptime < 0 {
		uptime = 0
	}
	result.Runtime = RuntimeInfo{
		UptimeSeconds: uptime,
		Memory:        MemoryInfo{Alloc: int(m.Alloc / 1024 / 1024), HeapUsed: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}

	if result.Dependencies["database"].Status == "connected" && result.Dependencies["registry"].Status == "connected" {
		result.Status = "ok"
	} else {
		result.Status = "issue"
	}
	return result
}
