package metrics

import "github.com/prometheus/client_golang/prometheus"

// BotMetrics counts inbound message handling outcomes.
type BotMetrics struct {
	messages     *prometheus.CounterVec
	sendFailures prometheus.Counter
	ordersPlaced prometheus.Counter
}

// NewBotMetrics registers the bot counters on the provided registerer.
func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	if reg == nil {
		return &BotMetrics{}
	}
	messages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_messages_total",
		Help: "Inbound messages processed, labeled by classified intent.",
	}, []string{"intent"})
	sendFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_send_failures_total",
		Help: "Outbound messages that the transport rejected.",
	})
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_orders_placed_total",
		Help: "Orders finalized through the conversation flow.",
	})
	reg.MustRegister(messages, sendFailures, ordersPlaced)
	return &BotMetrics{
		messages:     messages,
		sendFailures: sendFailures,
		ordersPlaced: ordersPlaced,
	}
}

// IncMessage counts one processed message for the given intent.
func (b *BotMetrics) IncMessage(intent string) {
	if b == nil || b.messages == nil {
		return
	}
	if intent == "" {
		intent = "unknown"
	}
	b.messages.WithLabelValues(intent).Inc()
}

// IncSendFailure counts one failed outbound send.
func (b *BotMetrics) IncSendFailure() {
	if b == nil || b.sendFailures == nil {
		return
	}
	b.sendFailures.Inc()
}

// IncOrderPlaced counts one finalized order.
func (b *BotMetrics) IncOrderPlaced() {
	if b == nil || b.ordersPlaced == nil {
		return
	}
	b.ordersPlaced.Inc()
}
