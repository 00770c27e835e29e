package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentInitiations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpa_payment_initiations_total",
		Help: "Payment initiation attempts by gateway and result.",
	}, []string{"gateway", "result"})

	PaymentConfirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpa_payment_confirmations_total",
		Help: "Terminal payment confirmations by gateway and status.",
	}, []string{"gateway", "status"})

	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpa_webhook_events_total",
		Help: "Gateway webhook deliveries by gateway and outcome.",
	}, []string{"gateway", "outcome"})

	StatusPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fpa_mpesa_status_polls_total",
		Help: "Daraja STK status queries by result.",
	}, []string{"result"})
)
