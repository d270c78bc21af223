package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/news-portal/internal/events"
)

// AuditService writes an audit log line for every domain event.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     loggerOrNop(logger).Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventNewsSaved,
		events.EventNewsDeleted,
		events.EventCommentAdded,
		events.EventCommentEdited,
		events.EventCommentToggled,
		events.EventCommentDeleted,
		events.EventUserRegistered,
		events.EventUserUpdated,
		events.EventUserDeleted,
	} {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("subject_id", event.SubjectID),
		zap.Time("at", event.Timestamp),
		zap.Any("payload", event.Payload),
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", *event.ActorID))
	}
	a.logger.Info("domain event", fields...)
	return nil
}
