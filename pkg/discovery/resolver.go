package discovery

import (
	"context"
	"net"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/pion/logging"
)

// DefaultBrowseTimeout is the default timeout for browse operations.
const DefaultBrowseTimeout = 10 * time.Second

// DefaultLookupTimeout is the default timeout for lookup operations.
const DefaultLookupTimeout = 5 * time.Second

// MDNSResolver is the interface for mDNS service resolution, allowing a
// mock implementation to stand in for grandcat/zeroconf in tests.
type MDNSResolver interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
	Lookup(ctx context.Context, instance, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// zeroconfResolver is the production MDNSResolver, backed by
// grandcat/zeroconf.
type zeroconfResolver struct {
	resolver *zeroconf.Resolver
}

func newZeroconfResolver() (*zeroconfResolver, error) {
	r, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, err
	}
	return &zeroconfResolver{resolver: r}, nil
}

func (z *zeroconfResolver) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	return z.resolver.Browse(ctx, service, domain, entries)
}

func (z *zeroconfResolver) Lookup(ctx context.Context, instance, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	return z.resolver.Lookup(ctx, instance, service, domain, entries)
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	// MDNSResolver is the underlying mDNS resolver implementation. If nil,
	// the default zeroconf resolver is used.
	MDNSResolver MDNSResolver

	// BrowseTimeout is the timeout for browse operations. If zero,
	// DefaultBrowseTimeout is used.
	BrowseTimeout time.Duration

	// LookupTimeout is the timeout for lookup operations. If zero,
	// DefaultLookupTimeout is used.
	LookupTimeout time.Duration

	// LoggerFactory creates the leveled logger used for browse/lookup
	// diagnostics. A nil factory disables logging.
	LoggerFactory logging.LoggerFactory
}

// Resolver discovers MRP endpoints via DNS-SD.
type Resolver struct {
	config   ResolverConfig
	resolver MDNSResolver
	log      logging.LeveledLogger
}

// NewResolver creates a Resolver from config, defaulting MDNSResolver to a
// real zeroconf-backed implementation when unset.
func NewResolver(config ResolverConfig) (*Resolver, error) {
	resolver := config.MDNSResolver
	if resolver == nil {
		zr, err := newZeroconfResolver()
		if err != nil {
			return nil, err
		}
		resolver = zr
	}

	if config.BrowseTimeout == 0 {
		config.BrowseTimeout = DefaultBrowseTimeout
	}
	if config.LookupTimeout == 0 {
		config.LookupTimeout = DefaultLookupTimeout
	}

	var log logging.LeveledLogger
	if config.LoggerFactory != nil {
		log = config.LoggerFactory.NewLogger("discovery")
	}

	return &Resolver{config: config, resolver: resolver, log: log}, nil
}

// BrowseMediaRemote discovers MRP endpoints on the network. The returned
// channel is closed once the context is done or the browse timeout
// expires.
func (r *Resolver) BrowseMediaRemote(ctx context.Context) (<-chan ServiceDescriptor, error) {
	return r.browse(ctx, ServiceTypeMediaRemote, ServiceMediaRemote)
}

// BrowseTouchAble discovers companion-link endpoints on the network.
func (r *Resolver) BrowseTouchAble(ctx context.Context) (<-chan ServiceDescriptor, error) {
	return r.browse(ctx, ServiceTypeTouchAble, ServiceTouchAble)
}

func (r *Resolver) browse(ctx context.Context, serviceType ServiceType, service string) (<-chan ServiceDescriptor, error) {
	results := make(chan ServiceDescriptor)
	entries := make(chan *zeroconf.ServiceEntry)

	cancel := context.CancelFunc(func() {})
	if _, ok := ctx.Deadline(); !ok {
		ctx, cancel = context.WithTimeout(ctx, r.config.BrowseTimeout)
	}

	go func() {
		defer cancel()
		defer close(results)

		go func() {
			defer close(entries)
			if err := r.resolver.Browse(ctx, service, DefaultDomain, entries); err != nil && r.log != nil {
				r.log.Warnf("browse %s: %v", service, err)
			}
		}()

		for entry := range entries {
			select {
			case results <- entryToServiceDescriptor(entry, serviceType):
			case <-ctx.Done():
				return
			}
		}
	}()

	return results, nil
}

// Lookup resolves one known service instance by name.
func (r *Resolver) Lookup(ctx context.Context, serviceType ServiceType, instanceName string) (*ServiceDescriptor, error) {
	if !serviceType.IsValid() {
		return nil, ErrInvalidServiceType
	}
	service := serviceType.ServiceString()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.LookupTimeout)
		defer cancel()
	}

	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		defer close(entries)
		if err := r.resolver.Lookup(ctx, instanceName, service, DefaultDomain, entries); err != nil && r.log != nil {
			r.log.Warnf("lookup %s/%s: %v", service, instanceName, err)
		}
	}()

	select {
	case entry, ok := <-entries:
		if !ok || entry == nil {
			return nil, ErrServiceNotFound
		}
		svc := entryToServiceDescriptor(entry, serviceType)
		return &svc, nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}

func entryToServiceDescriptor(entry *zeroconf.ServiceEntry, serviceType ServiceType) ServiceDescriptor {
	var allIPs []net.IP
	allIPs = append(allIPs, entry.AddrIPv6...)
	allIPs = append(allIPs, entry.AddrIPv4...)

	return ServiceDescriptor{
		Name:      entry.Instance,
		Addresses: SortIPsByPreference(allIPs),
		Port:      entry.Port,
		TXT:       ParseTXTRecord(entry.Text),
		Type:      serviceType,
	}
}
