package event

import (
	"context"
	"time"

	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/pkg/logger"
	"github.com/luckypig3400/NEC-Backend/pkg/messaging"
	"github.com/luckypig3400/NEC-Backend/pkg/metrics"
)

const publishTimeout = 2 * time.Second

// Emitter publishes domain events after a store write has committed.
type Emitter interface {
	Emit(ctx context.Context, eventType model.EventType, resourceID string, data interface{})
}

type EventService struct {
	broker  messaging.Broker
	channel string
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewEventService(broker messaging.Broker, channel string, m *metrics.Metrics, log *logger.Logger) *EventService {
	if broker == nil {
		broker = messaging.NopBroker{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &EventService{
		broker:  broker,
		channel: channel,
		metrics: m,
		logger:  log,
	}
}

// Emit publishes best effort: failures are logged and counted, never returned.
func (s *EventService) Emit(ctx context.Context, eventType model.EventType, resourceID string, data interface{}) {
	evt := model.NewEvent(eventType, resourceID, data)

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.broker.Publish(pubCtx, s.channel, evt); err != nil {
		if s.metrics != nil {
			s.metrics.EventsFailed.WithLabelValues(string(eventType)).Inc()
		}
		s.logger.WithContext(ctx).Error(err, "failed to publish event",
			"event_id", evt.ID.String(),
			"event_type", string(eventType),
			"resource_id", resourceID,
		)
		return
	}

	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(string(eventType)).Inc()
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Emit(context.Context, model.EventType, string, interface{}) {}
