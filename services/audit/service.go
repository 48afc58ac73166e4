package audit

import (
	"context"
	"fmt"

	"github.com/tech-arch1tect/authcore/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service records security-relevant events. Every event is logged; when a
// database is configured it is also stored. Recording never fails the
// calling operation.
type Service struct {
	db     *gorm.DB
	logger *logging.Service
}

func NewService(db *gorm.DB, logger *logging.Service) *Service {
	return &Service{
		db:     db,
		logger: logger,
	}
}

func (s *Service) Record(ctx context.Context, event Event) {
	if s == nil {
		return
	}

	fields := []zap.Field{
		zap.String("event_type", string(event.Type)),
	}
	if event.UserID != 0 {
		fields = append(fields, logging.UserID(event.UserID))
	}
	if event.FamilyID != "" {
		fields = append(fields, logging.FamilyID(event.FamilyID))
	}
	if event.IPAddress != "" {
		fields = append(fields, logging.IPAddress(event.IPAddress))
	}
	if len(event.Details) > 0 {
		fields = append(fields, zap.Any("details", event.Details))
	}

	switch event.Type {
	case EventRefreshReuseDetected, EventAccountLocked:
		s.logger.Warn("security event", fields...)
	default:
		s.logger.Info("security event", fields...)
	}

	if s.db == nil {
		return
	}

	record := SecurityEvent{
		EventType: event.Type,
		FamilyID:  event.FamilyID,
		IPAddress: event.IPAddress,
		UserAgent: event.UserAgent,
		Details:   event.Details,
	}
	if event.UserID != 0 {
		userID := event.UserID
		record.UserID = &userID
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.logger.Error("failed to persist security event", zap.Error(err), zap.String("event_type", string(event.Type)))
	}
}

// ListForUser returns the newest events first.
func (s *Service) ListForUser(ctx context.Context, userID uint, limit int) ([]SecurityEvent, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	var events []SecurityEvent
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list security events: %w", err)
	}

	return events, nil
}
