package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iou_notification_attempts_total",
		Help: "Notification delivery attempts by channel, type and outcome",
	}, []string{"channel", "type", "status"})

	dispatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iou_notification_dispatches_total",
		Help: "Logical notification dispatches by type",
	}, []string{"type"})
)
