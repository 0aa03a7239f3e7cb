package guard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	psnet "github.com/shirou/gopsutil/v3/net"
)

// ErrInterfaceNotFound is returned when no interface has the requested name.
var ErrInterfaceNotFound = errors.New("interface not found")

// FlagsSource derives an operational state from interface flags. It is the
// fallback on platforms without sysfs: "up" when the up flag is set,
// "down" otherwise.
type FlagsSource struct {
	list func(ctx context.Context) (psnet.InterfaceStatList, error)
}

func (s FlagsSource) OperState(name string) (string, error) {
	iface, err := s.find(context.Background(), name)
	if err != nil {
		return "", err
	}
	for _, f := range iface.Flags {
		if f == "up" {
			return "up", nil
		}
	}
	return "down", nil
}

func (s FlagsSource) find(ctx context.Context, name string) (psnet.InterfaceStat, error) {
	list := s.list
	if list == nil {
		list = psnet.InterfacesWithContext
	}
	ifaces, err := list(ctx)
	if err != nil {
		return psnet.InterfaceStat{}, fmt.Errorf("failed to list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Name == name {
			return iface, nil
		}
	}
	return psnet.InterfaceStat{}, fmt.Errorf("%w: %s", ErrInterfaceNotFound, name)
}

// Addrs holds the first IPv4 and IPv6 address found on an interface. Either
// may be nil.
type Addrs struct {
	IPv4 net.IP
	IPv6 net.IP
}

// InterfaceAddrs returns the addresses the engine should bind to when
// traffic must stay on the named interface.
func InterfaceAddrs(ctx context.Context, name string) (Addrs, error) {
	return FlagsSource{}.addrs(ctx, name)
}

func (s FlagsSource) addrs(ctx context.Context, name string) (Addrs, error) {
	iface, err := s.find(ctx, name)
	if err != nil {
		return Addrs{}, err
	}
	var out Addrs
	for _, a := range iface.Addrs {
		ip := parseIfaceAddr(a.Addr)
		if ip == nil {
			continue
		}
		if v4 := ip.To4(); v4 != nil {
			if out.IPv4 == nil {
				out.IPv4 = v4
			}
			continue
		}
		// link-local v6 needs a zone to bind, skip it
		if out.IPv6 == nil && !ip.IsLinkLocalUnicast() {
			out.IPv6 = ip
		}
	}
	if out.IPv4 == nil && out.IPv6 == nil {
		return Addrs{}, fmt.Errorf("interface %s has no usable address", name)
	}
	return out, nil
}

func parseIfaceAddr(s string) net.IP {
	if ip, _, err := net.ParseCIDR(s); err == nil {
		return ip
	}
	return net.ParseIP(strings.TrimSpace(s))
}
