package mocks

import (
	"context"
	"crypto/rsa"
	"sync"

	"github.com/agentgate/agentgate/internal/domain"
)

// MockTenantRepository is a mock implementation of domain.TenantRepository
// for testing.
type MockTenantRepository struct {
	mu      sync.Mutex
	Tenants map[string]*domain.Tenant
	FindErr error
	Stored  []*domain.Tenant
	Calls   int
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id string) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	t, ok := m.Tenants[id]
	if !ok {
		return nil, domain.ErrTenantNotFound
	}
	return t, nil
}

func (m *MockTenantRepository) Store(ctx context.Context, t *domain.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stored = append(m.Stored, t)
	return nil
}

// MockKeyProvider is a mock implementation of domain.KeyProvider.
type MockKeyProvider struct {
	Keys map[string]*rsa.PublicKey
	Err  error
}

func (m *MockKeyProvider) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	key, ok := m.Keys[kid]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return key, nil
}

// MockRuntimeInvoker is a mock implementation of domain.RuntimeInvoker.
type MockRuntimeInvoker struct {
	InvokeFunc func(ctx context.Context, tenant *domain.TenantContext, req domain.InvocationRequest) (*domain.InvocationResult, error)
	Requests   []domain.InvocationRequest
}

func (m *MockRuntimeInvoker) Invoke(ctx context.Context, tenant *domain.TenantContext, req domain.InvocationRequest) (*domain.InvocationResult, error) {
	m.Requests = append(m.Requests, req)
	if m.InvokeFunc != nil {
		return m.InvokeFunc(ctx, tenant, req)
	}
	return &domain.InvocationResult{Response: "ok", SessionID: req.SessionID}, nil
}

// MockSessionRegistry is a mock implementation of domain.SessionRegistry.
type MockSessionRegistry struct {
	mu         sync.Mutex
	AcquireOK  bool
	AcquireErr error
	Acquired   []string
	Released   []string
}

func (m *MockSessionRegistry) Acquire(ctx context.Context, tenantID, sessionID string, ceiling int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AcquireErr != nil {
		return false, m.AcquireErr
	}
	if m.AcquireOK {
		m.Acquired = append(m.Acquired, sessionID)
	}
	return m.AcquireOK, nil
}

func (m *MockSessionRegistry) Release(ctx context.Context, tenantID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Released = append(m.Released, sessionID)
	return nil
}

// MockDecisionPublisher records published audit events.
type MockDecisionPublisher struct {
	mu     sync.Mutex
	Events []domain.DecisionEvent
	Err    error
}

func (m *MockDecisionPublisher) Publish(ctx context.Context, event domain.DecisionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, event)
	return nil
}
