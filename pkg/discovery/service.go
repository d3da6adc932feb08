package discovery

import "net"

// TXTRecord carries the subset of an MRP DNS-SD TXT record this module
// interprets. Unrecognized keys are preserved in Raw for callers that need
// them.
type TXTRecord struct {
	// Name is the human-readable device name (TXT key "Name").
	Name string

	// UniqueIdentifier is the device's persistent identifier (TXT key
	// "UniqueIdentifier").
	UniqueIdentifier string

	// Raw holds every TXT key/value pair as received, Name and
	// UniqueIdentifier included.
	Raw map[string]string
}

// ServiceDescriptor describes one discovered MRP (or companion-link)
// endpoint.
type ServiceDescriptor struct {
	// Name is the DNS-SD instance name.
	Name string

	// Addresses are the resolved IP addresses, sorted by SortIPsByPreference.
	Addresses []net.IP

	// Port is the TCP port the service is reachable on.
	Port int

	// TXT is the parsed TXT record.
	TXT TXTRecord

	// Type identifies which service type this descriptor was found under.
	Type ServiceType
}

// AddressOption customizes PreferredAddress's selection heuristic.
type AddressOption func(*addressOptions)

type addressOptions struct {
	index int
}

// WithPreferredIndex overrides the address index PreferredAddress reaches
// for first, before falling back to addresses[0].
func WithPreferredIndex(index int) AddressOption {
	return func(o *addressOptions) { o.index = index }
}

// PreferredAddress picks the address a client should dial first. Devices
// observed in practice list a routable address second and a link-local
// fallback first, so index 1 is preferred over index 0 by default; either
// can be overridden with WithPreferredIndex.
func PreferredAddress(svc ServiceDescriptor, opts ...AddressOption) (net.IP, bool) {
	cfg := addressOptions{index: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(svc.Addresses) == 0 {
		return nil, false
	}
	if cfg.index >= 0 && cfg.index < len(svc.Addresses) {
		return svc.Addresses[cfg.index], true
	}
	return svc.Addresses[0], true
}
