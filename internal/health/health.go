// Package health implements liveness and readiness probes for the turn
// runtime: health checks never verify external services, only that the
// runtime itself is ready to accept turns. It sits outside the core graph
// — no graphnode or the orchestrator imports this package.
package health

import (
	"context"
	"time"

	"github.com/haasonsaas/turnruntime/internal/memory"
	"github.com/haasonsaas/turnruntime/internal/modelbackend"
)

// Status is the outcome of one probe.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
)

// Report is the response shape for both probes.
type Report struct {
	Status        Status
	Timestamp     time.Time
	Ready         bool
	UptimeSeconds float64
	MemoryBackend string
	ModelBackend  string
	Message       string
}

// Checker reports liveness and readiness for an already-constructed set of
// boundaries. It never calls memory.Backend or modelbackend.Backend in
// Live — only Ready does, and only to confirm the adapter responds, never
// to validate turn content.
type Checker struct {
	memoryBackend memory.Backend
	modelBackend  modelbackend.Backend
	startedAt     time.Time
	now           func() time.Time
}

// New builds a Checker. startedAt is recorded once at process start.
func New(memoryBackend memory.Backend, modelBackend modelbackend.Backend, startedAt time.Time) *Checker {
	return &Checker{
		memoryBackend: memoryBackend,
		modelBackend:  modelBackend,
		startedAt:     startedAt,
		now:           time.Now,
	}
}

// Live is the liveness probe: always healthy if this call returns at all.
func (c *Checker) Live() Report {
	return Report{
		Status:        StatusHealthy,
		Timestamp:     c.now(),
		Ready:         true,
		UptimeSeconds: c.now().Sub(c.startedAt).Seconds(),
		Message:       "runtime process is running",
	}
}

// Ready is the readiness probe: the runtime is ready if its memory and
// model boundaries both respond to a trivial round trip. A boundary that
// is merely disabled by configuration still counts as reachable; only a
// boundary that panics counts as an outage.
func (c *Checker) Ready(ctx context.Context) Report {
	memOK := c.checkMemory(ctx)
	modelOK := c.checkModel(ctx)

	status := StatusHealthy
	message := "memory and model backends reachable"
	if !memOK || !modelOK {
		status = StatusDegraded
		message = "one or more backends unreachable"
	}

	return Report{
		Status:        status,
		Timestamp:     c.now(),
		Ready:         status == StatusHealthy,
		UptimeSeconds: c.now().Sub(c.startedAt).Seconds(),
		MemoryBackend: boolLabel(memOK),
		ModelBackend:  boolLabel(modelOK),
		Message:       message,
	}
}

// checkMemory confirms the memory boundary responds without panicking. A
// DisabledBackend reporting WriteFailed is a deliberate configuration, not
// an outage, so any status short of a panic counts as reachable — only a
// backend that crashes (e.g. a lost database connection) fails readiness.
func (c *Checker) checkMemory(ctx context.Context) (ok bool) {
	if c.memoryBackend == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	c.memoryBackend.Write(ctx, "__health__", "__probe__", "ok", true)
	return true
}

func (c *Checker) checkModel(ctx context.Context) (ok bool) {
	if c.modelBackend == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	resp := c.modelBackend.Generate(ctx, modelbackend.Request{Prompt: ""})
	return resp.Status == modelbackend.StatusSuccess || resp.Status == modelbackend.StatusError
}

func boolLabel(ok bool) string {
	if ok {
		return "reachable"
	}
	return "unreachable"
}
