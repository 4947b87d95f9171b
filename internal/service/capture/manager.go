package capture

import (
	"context"
	"fmt"
	"sync"
	"weaponcam/internal/apperr"
	"weaponcam/internal/config"
)

// LeasePolicy decides what happens when a leased device is requested again.
type LeasePolicy int

const (
	// PolicyRefuse fails the second request with apperr.ErrDeviceBusy.
	PolicyRefuse LeasePolicy = iota
	// PolicyQueue blocks the second request until the lease is released or ctx ends.
	PolicyQueue
)

// ParseLeasePolicy maps a LEASE_POLICY value to a LeasePolicy.
func ParseLeasePolicy(s string) LeasePolicy {
	if s == config.LeaseQueue {
		return PolicyQueue
	}
	return PolicyRefuse
}

// DeviceManager hands out one exclusive lease per device key.
type DeviceManager struct {
	policy LeasePolicy
	mu     sync.Mutex
	slots  map[string]chan struct{}
}

// NewDeviceManager creates a DeviceManager with the given policy.
func NewDeviceManager(policy LeasePolicy) *DeviceManager {
	return &DeviceManager{
		policy: policy,
		slots:  make(map[string]chan struct{}),
	}
}

func (m *DeviceManager) slot(key string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		m.slots[key] = s
	}
	return s
}

// Acquire takes the lease for key.
func (m *DeviceManager) Acquire(ctx context.Context, key string) (*Lease, error) {
	s := m.slot(key)

	if m.policy == PolicyRefuse {
		select {
		case s <- struct{}{}:
			return &Lease{key: key, slot: s}, nil
		default:
			return nil, fmt.Errorf("%w: %s is leased", apperr.ErrDeviceBusy, key)
		}
	}

	select {
	case s <- struct{}{}:
		return &Lease{key: key, slot: s}, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: waiting for %s: %v", apperr.ErrDeviceBusy, key, ctx.Err())
	}
}

// TryAcquire takes the lease for key only if it is free, whatever the policy.
func (m *DeviceManager) TryAcquire(key string) (*Lease, bool) {
	s := m.slot(key)
	select {
	case s <- struct{}{}:
		return &Lease{key: key, slot: s}, true
	default:
		return nil, false
	}
}

// InUse reports whether key is currently leased.
func (m *DeviceManager) InUse(key string) bool {
	return len(m.slot(key)) > 0
}

// Lease is exclusive ownership of one device key.
type Lease struct {
	key  string
	slot chan struct{}
	once sync.Once
}

// Key returns the leased device key.
func (l *Lease) Key() string {
	return l.key
}

// Release returns the lease; extra calls do nothing.
func (l *Lease) Release() {
	l.once.Do(func() {
		<-l.slot
	})
}
