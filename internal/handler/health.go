package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/jkarimi/iou-engine/pkg/response"
	"github.com/jkarimi/iou-engine/pkg/taskqueue"
)

const dependencyCheckTimeout = 5 * time.Second

type HealthHandler struct {
	db    *sqlx.DB
	redis *redis.Client
	queue *taskqueue.Queue
}

func NewHealthHandler(db *sqlx.DB, redis *redis.Client, queue *taskqueue.Queue) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
		queue: queue,
	}
}

type healthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health performs a basic liveness check
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, healthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	})
}

// Ready reports whether the database and redis are reachable. The task
// queue depth is included so operators can see notification backlog.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	}

	check := func(name string, probe func(ctx context.Context) error) {
		ctx, cancel := context.WithTimeout(r.Context(), dependencyCheckTimeout)
		defer cancel()

		if err := probe(ctx); err != nil {
			status.Status = "error"
			status.Checks[name] = "failed: " + err.Error()
			return
		}
		status.Checks[name] = "ok"
	}

	check("database", h.db.PingContext)
	check("redis", func(ctx context.Context) error { return h.redis.Ping(ctx).Err() })

	if h.queue != nil {
		status.Checks["queue_depth"] = strconv.Itoa(h.queue.Pending())
	}

	if status.Status == "error" {
		response.Error(w, http.StatusServiceUnavailable, "Service not ready", nil)
		return
	}

	response.Success(w, status)
}
