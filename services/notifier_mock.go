package services

import (
	"context"
	"sync"
)

// MockNotifier records notifications for testing
type MockNotifier struct {
	notifications []Notification
	mu            sync.RWMutex
}

// NewMockNotifier creates a new mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Notify records the notification
func (m *MockNotifier) Notify(_ context.Context, notification Notification) error {
	m.mu.Lock()
	m.notifications = append(m.notifications, notification)
	m.mu.Unlock()
	return nil
}

// Notifications returns a copy of the recorded notifications (for testing assertions)
func (m *MockNotifier) Notifications() []Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Notification(nil), m.notifications...)
}
