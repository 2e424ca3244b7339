package alerting

import (
	"context"
	"log/slog"
	"time"
)

// ServiceConfig holds the parameters needed to construct a Service.
type ServiceConfig struct {
	Token   string
	Channel string
}

// Service delivers operator alerts. Nil-safe: every method is a no-op when
// the receiver is nil, so callers can wire alerting unconditionally and it
// silently disables itself when unconfigured (same contract as the
// teacher's Slack service).
type Service struct {
	client *Client
	logger *slog.Logger
}

// NewService builds a Service, or returns nil if Token/Channel are unset.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Token == "" || cfg.Channel == "" {
		return nil
	}
	return &Service{
		client: NewClient(cfg.Token, cfg.Channel),
		logger: slog.Default().With("component", "alerting-service"),
	}
}

// NewServiceWithClient builds a Service around a pre-built Client, for
// tests against a mock Slack API server.
func NewServiceWithClient(client *Client) *Service {
	return &Service{client: client, logger: slog.Default().With("component", "alerting-service")}
}

// NotifySLABreach is fail-open: delivery errors are logged, never returned,
// since an alerting failure must never block the review queue.
func (s *Service) NotifySLABreach(ctx context.Context, reviewID string, priority int, domain string) {
	if s == nil {
		return
	}
	if err := s.client.PostMessage(ctx, BuildSLABreachMessage(reviewID, priority, domain), 5*time.Second); err != nil {
		s.logger.Error("failed to send SLA breach alert", "review_id", reviewID, "error", err)
	}
}

// NotifyStuckWorkItem alerts that a work item was forced to PENDING_REVIEW.
func (s *Service) NotifyStuckWorkItem(ctx context.Context, workItemID, traceID, state string) {
	if s == nil {
		return
	}
	if err := s.client.PostMessage(ctx, BuildStuckWorkItemMessage(workItemID, traceID, state), 5*time.Second); err != nil {
		s.logger.Error("failed to send stuck work item alert", "work_item_id", workItemID, "error", err)
	}
}

// NotifyPersistentError alerts on a work item whose retry cap has been
// exhausted against a transient collaborator error (spec §4.8).
func (s *Service) NotifyPersistentError(ctx context.Context, workItemID, traceID, lastError string) {
	if s == nil {
		return
	}
	if err := s.client.PostMessage(ctx, BuildPersistentErrorMessage(workItemID, traceID, lastError), 5*time.Second); err != nil {
		s.logger.Error("failed to send persistent error alert", "work_item_id", workItemID, "error", err)
	}
}
