package recorder

import "TokenBoard/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSnapshot(_ model.PriceSnapshot) error { return nil }
func (n *NoopRecorder) RecordEngagement(_ *EngagementEvent) error { return nil }
func (n *NoopRecorder) Close() error { return nil }

func (n *NoopRecorder) History(_ string, _ int) ([]model.PriceSnapshot, error) {
	return []model.PriceSnapshot{}, nil
}

func (n *NoopRecorder) Engagements(_ string, _ int) ([]EngagementEvent, error) {
	return []EngagementEvent{}, nil
}
