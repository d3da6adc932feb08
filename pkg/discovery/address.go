package discovery

import (
	"net"
	"sort"
)

// SortIPsByPreference sorts IP addresses by preference, highest first:
// globally routable, then unique-local, then link-local, then everything
// else (IPv4 sorts after all of those, since MRP endpoints are reached over
// whichever LAN interface is already routed).
func SortIPsByPreference(ips []net.IP) []net.IP {
	if len(ips) <= 1 {
		return ips
	}

	sorted := make([]net.IP, len(ips))
	copy(sorted, ips)

	sort.SliceStable(sorted, func(i, j int) bool {
		return ipPriority(sorted[i]) < ipPriority(sorted[j])
	})

	return sorted
}

func ipPriority(ip net.IP) int {
	ip = ip.To16()
	if ip == nil {
		return 99
	}

	if ip.To4() != nil {
		return 50
	}

	if isGlobalUnicast(ip) {
		return 0
	}
	if isUniqueLocal(ip) {
		return 1
	}
	if ip.IsLinkLocalUnicast() {
		return 2
	}
	if ip.IsLoopback() {
		return 80
	}
	if ip.IsMulticast() {
		return 90
	}
	return 10
}

func isGlobalUnicast(ip net.IP) bool {
	if !ip.IsGlobalUnicast() {
		return false
	}
	if isUniqueLocal(ip) {
		return false
	}

	if ip4 := ip.To4(); ip4 != nil {
		if ip4[0] == 10 {
			return false
		}
		if ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31 {
			return false
		}
		if ip4[0] == 192 && ip4[1] == 168 {
			return false
		}
	}

	return true
}

// isUniqueLocal reports whether ip is an IPv6 Unique Local Address
// (fc00::/7).
func isUniqueLocal(ip net.IP) bool {
	ip = ip.To16()
	if ip == nil {
		return false
	}
	return ip[0] == 0xfc || ip[0] == 0xfd
}

// FilterIPv6 returns only the IPv6 addresses in ips.
func FilterIPv6(ips []net.IP) []net.IP {
	var result []net.IP
	for _, ip := range ips {
		if ip.To4() == nil && ip.To16() != nil {
			result = append(result, ip)
		}
	}
	return result
}

// FilterIPv4 returns only the IPv4 addresses in ips.
func FilterIPv4(ips []net.IP) []net.IP {
	var result []net.IP
	for _, ip := range ips {
		if ip.To4() != nil {
			result = append(result, ip)
		}
	}
	return result
}
