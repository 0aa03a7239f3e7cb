package anacrolix

import (
	"net"
	"net/netip"
	"strings"

	"github.com/anacrolix/dht/v2"
	"github.com/anacrolix/torrent"
)

// startingNodes seeds the DHT routing table with contacts from the last run
// ahead of the global bootstrap routers.
func startingNodes(saved []string) func(network string) dht.StartingNodesGetter {
	return func(network string) dht.StartingNodesGetter {
		return func() ([]dht.Addr, error) {
			addrs := savedNodeAddrs(saved, network)
			boot, err := dht.GlobalBootstrapAddrs(network)
			if err != nil {
				if len(addrs) > 0 {
					return addrs, nil
				}
				return nil, err
			}
			return append(addrs, boot...), nil
		}
	}
}

func savedNodeAddrs(saved []string, network string) []dht.Addr {
	var out []dht.Addr
	for _, s := range saved {
		ap, ok := parseAddrPort(s, network)
		if !ok {
			continue
		}
		out = append(out, dht.NewAddr(net.UDPAddrFromAddrPort(ap)))
	}
	return out
}

func peerInfos(saved []string) []torrent.PeerInfo {
	var out []torrent.PeerInfo
	for _, s := range saved {
		ap, ok := parseAddrPort(s, "tcp")
		if !ok {
			continue
		}
		out = append(out, torrent.PeerInfo{
			Addr:   net.TCPAddrFromAddrPort(ap),
			Source: torrent.PeerSourceDirect,
		})
	}
	return out
}

// parseAddrPort accepts literal ip:port strings only and filters by the
// address family suffix of network ("udp4", "tcp6", ...).
func parseAddrPort(s, network string) (netip.AddrPort, bool) {
	ap, err := netip.ParseAddrPort(strings.TrimSpace(s))
	if err != nil || ap.Port() == 0 {
		return netip.AddrPort{}, false
	}
	ap = netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
	switch {
	case strings.HasSuffix(network, "4") && !ap.Addr().Is4():
		return netip.AddrPort{}, false
	case strings.HasSuffix(network, "6") && ap.Addr().Is4():
		return netip.AddrPort{}, false
	}
	return ap, true
}
