package discovery

import (
	"context"
	"net"
	"sync"

	"github.com/grandcat/zeroconf"
)

// MockMDNSResolver is an MDNSResolver that serves entries registered in
// memory, for tests that don't want real network I/O.
type MockMDNSResolver struct {
	mu       sync.RWMutex
	services map[string][]*zeroconf.ServiceEntry
}

// NewMockMDNSResolver creates an empty mock resolver.
func NewMockMDNSResolver() *MockMDNSResolver {
	return &MockMDNSResolver{services: make(map[string][]*zeroconf.ServiceEntry)}
}

// RegisterService registers entry as a result for service.
func (m *MockMDNSResolver) RegisterService(service string, entry *zeroconf.ServiceEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[service] = append(m.services[service], entry)
}

// Browse implements MDNSResolver.
func (m *MockMDNSResolver) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	m.mu.RLock()
	svcEntries := append([]*zeroconf.ServiceEntry{}, m.services[service]...)
	m.mu.RUnlock()

	for _, entry := range svcEntries {
		select {
		case entries <- entry:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Lookup implements MDNSResolver.
func (m *MockMDNSResolver) Lookup(ctx context.Context, instance, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	m.mu.RLock()
	svcEntries := append([]*zeroconf.ServiceEntry{}, m.services[service]...)
	m.mu.RUnlock()

	for _, entry := range svcEntries {
		if entry.Instance == instance {
			select {
			case entries <- entry:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		}
	}
	return nil
}

// MockMediaRemoteService builds a fake _mediaremotetv._tcp entry whose
// AddrIPv4 list is addrs in the order given, with Name and
// UniqueIdentifier TXT entries.
func MockMediaRemoteService(instanceName string, port int, addrs []net.IP, name, uniqueIdentifier string) *zeroconf.ServiceEntry {
	return &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{
			Instance: instanceName,
			Service:  ServiceMediaRemote,
			Domain:   DefaultDomain,
		},
		HostName: instanceName + ".local.",
		Port:     port,
		AddrIPv4: addrs,
		Text: []string{
			"Name=" + name,
			"UniqueIdentifier=" + uniqueIdentifier,
		},
	}
}
