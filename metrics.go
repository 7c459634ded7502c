package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memberhub_login_total",
		Help: "Login attempts by result.",
	}, []string{"result"})

	tokenRefreshTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memberhub_token_refresh_total",
		Help: "Successful refresh-token rotations, explicit and lazy.",
	})

	gateRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memberhub_gate_rejections_total",
		Help: "Requests rejected by the permission gate, by reason.",
	}, []string{"reason"})

	sweepDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memberhub_sweep_deleted_total",
		Help: "Expired refresh-token rows removed by the sweep.",
	})
)
