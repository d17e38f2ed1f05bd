package server

import (
	"log/slog"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/mdns"

	"github.com/izzyreal/padnav/internal/protocol"
	"github.com/izzyreal/padnav/internal/version"
)

// startMDNSAdvertiser announces the HTTP bridge so forwarders on the LAN
// can find it. The returned func stops advertising.
func startMDNSAdvertiser(serverAddr, grpcAddr, instance string, logger *slog.Logger) func() {
	port := listenPortFromAddr(serverAddr)
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum <= 0 {
		return func() {}
	}

	host, _ := os.Hostname()
	if strings.TrimSpace(host) == "" {
		host = "padnav"
	}
	instance = strings.TrimSpace(instance)
	if instance == "" {
		instance = "padnav-" + host
	}

	meta := []string{
		"name=padnav",
		"api_version=1",
		"version=" + version.Current(),
		"bridge_path=" + protocol.PathBridgeWS,
	}
	if gp := listenPortFromAddr(grpcAddr); grpcAddr != "" && gp != "" {
		meta = append(meta, "grpc_port="+gp)
	}
	ips := discoverAdvertiseIPs()
	service, err := mdns.NewMDNSService(instance, protocol.MDNSService, "", "", portNum, ips, meta)
	if err != nil {
		logger.Error("mdns advertise service setup failed", "error", err)
		return func() {}
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		logger.Error("mdns advertise start failed", "error", err)
		return func() {}
	}
	logger.Info("mdns advertising enabled", "service", protocol.MDNSService, "instance", instance, "port", port)

	return func() {
		_ = server.Shutdown()
	}
}

func discoverAdvertiseIPs() []net.IP {
	ifAddrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}
	return filterAdvertiseIPs(ifAddrs)
}

// filterAdvertiseIPs keeps routable unicast addresses, IPv4 first.
func filterAdvertiseIPs(addrs []net.Addr) []net.IP {
	seen := map[string]struct{}{}
	out := make([]net.IP, 0, len(addrs))
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet == nil || ipNet.IP == nil {
			continue
		}
		ip := ipNet.IP
		if ip.IsLoopback() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			continue
		}
		normalized := ip.To16()
		if normalized == nil {
			continue
		}
		key := normalized.String()
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, normalized)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Slice(out, func(i, j int) bool {
		ai := out[i].To4() != nil
		aj := out[j].To4() != nil
		if ai != aj {
			return ai
		}
		return out[i].String() < out[j].String()
	})
	return out
}

func listenPortFromAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "8112"
	}
	if strings.HasPrefix(addr, ":") {
		return strings.TrimPrefix(addr, ":")
	}
	if strings.Count(addr, ":") == 0 {
		return addr
	}
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return ""
	}
	return p
}
