package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/samber/lo"
)

const (
	// ServiceType is the mDNS service type of a chat relay control port.
	ServiceType = "_chatrelay._tcp"
	Domain      = "local."
	// ProtocolVersion goes in the TXT record so clients can skip incompatible relays.
	ProtocolVersion = "1"
)

// Server is one relay found on the local network.
type Server struct {
	Instance  string
	Host      string
	Port      int
	Addresses []net.IP
	RoleTags  bool
}

// Address returns the best dialable address: the first IPv4, then the hostname.
func (s Server) Address() string {
	host := strings.TrimSuffix(s.Host, ".")
	if ip, ok := lo.Find(s.Addresses, func(ip net.IP) bool { return ip.To4() != nil }); ok {
		host = ip.String()
	}
	return net.JoinHostPort(host, strconv.Itoa(s.Port))
}

// Announcer advertises the control port while the server runs.
type Announcer struct {
	log    *slog.Logger
	mu     sync.Mutex
	server *zeroconf.Server
}

func NewAnnouncer(log *slog.Logger) *Announcer {
	return &Announcer{log: log}
}

func (a *Announcer) Announce(instance string, port int, roleTags bool) error {
	txt := []string{
		fmt.Sprintf("v=%s", ProtocolVersion),
		fmt.Sprintf("roles=%t", roleTags),
	}
	// nil interfaces means all of them
	server, err := zeroconf.Register(instance, ServiceType, Domain, port, txt, nil)
	if err != nil {
		return fmt.Errorf("register mDNS service: %w", err)
	}

	a.mu.Lock()
	a.server = server
	a.mu.Unlock()
	a.log.Info("mDNS service registered", "instance", instance, "port", port, "txt", txt)
	return nil
}

func (a *Announcer) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// Browse collects relays answering within timeout, sorted by instance name.
func Browse(ctx context.Context, timeout time.Duration) ([]Server, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	browseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var mu sync.Mutex
	found := make(map[string]Server)
	go func() {
		for entry := range entries {
			if server, ok := fromEntry(entry); ok {
				mu.Lock()
				found[server.Instance] = server
				mu.Unlock()
			}
		}
	}()

	if err := resolver.Browse(browseCtx, ServiceType, Domain, entries); err != nil {
		return nil, fmt.Errorf("browse mDNS: %w", err)
	}
	<-browseCtx.Done()

	mu.Lock()
	servers := lo.Values(found)
	mu.Unlock()
	sort.Slice(servers, func(i, j int) bool { return servers[i].Instance < servers[j].Instance })
	return servers, nil
}

func fromEntry(entry *zeroconf.ServiceEntry) (Server, bool) {
	if entry == nil || entry.Port == 0 {
		return Server{}, false
	}
	server := Server{
		Instance:  entry.Instance,
		Host:      entry.HostName,
		Port:      entry.Port,
		Addresses: append(append([]net.IP{}, entry.AddrIPv4...), entry.AddrIPv6...),
	}
	for _, txt := range entry.Text {
		key, value, ok := strings.Cut(txt, "=")
		if !ok {
			continue
		}
		switch key {
		case "v":
			if value != ProtocolVersion {
				return Server{}, false
			}
		case "roles":
			server.RoleTags = value == "true"
		}
	}
	return server, true
}
