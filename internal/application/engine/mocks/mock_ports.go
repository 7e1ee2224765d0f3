package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jiazengp/peekd/internal/domain/peek"
)

// MockNotifier is a mock implementation of engine.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) RequestCreated(ctx context.Context, req *peek.Request, autoDelay time.Duration) {
	m.Called(ctx, req, autoDelay)
}

func (m *MockNotifier) RequestResolved(ctx context.Context, outcome peek.Status, req *peek.Request, actor uuid.UUID) {
	m.Called(ctx, outcome, req, actor)
}

func (m *MockNotifier) SessionClosed(ctx context.Context, session *peek.Session, reason string) {
	m.Called(ctx, session, reason)
}

// MockStatsSink is a mock implementation of engine.StatsSink
type MockStatsSink struct {
	mock.Mock
}

func (m *MockStatsSink) RecordResolution(ctx context.Context, req *peek.Request) {
	m.Called(ctx, req)
}

func (m *MockStatsSink) RecordSessionClosed(ctx context.Context, session *peek.Session, endedAt time.Time, reason string) {
	m.Called(ctx, session, endedAt, reason)
}
