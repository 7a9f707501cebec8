package services

import "github.com/prometheus/client_golang/prometheus"

const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
	ResultSent     = "sent"
	ResultSkipped  = "skipped"
)

var (
	CheckoutTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shop",
			Name:      "checkout_total",
			Help:      "Checkout attempts by result",
		},
		[]string{"result"},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shop",
			Name:      "notifications_total",
			Help:      "Supplier notification emails by result",
		},
		[]string{"result"},
	)
)
