package e2e

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type BaseRelaySuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration and skips without a target relay.
func (s *BaseRelaySuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.RelayAddr == "" {
		s.T().Skip("RELAY_ADDR not set, skipping end-to-end suite")
	}
}

func (s *BaseRelaySuite) header(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// Participant is a raw control connection that logs every line it sees.
type Participant struct {
	t      *testing.T
	name   string
	conn   net.Conn
	reader *bufio.Reader
}

// Join connects a participant under a name unique to this run.
func (s *BaseRelaySuite) Join(name string) *Participant {
	t := s.T()
	s.header(t, "join "+name)
	conn, err := net.DialTimeout("tcp", s.Config.RelayAddr, 5*time.Second)
	s.Require().NoError(err, "Failed to connect to relay at "+s.Config.RelayAddr)
	t.Cleanup(func() { _ = conn.Close() })

	p := &Participant{t: t, name: name, conn: conn, reader: bufio.NewReader(conn)}
	s.Require().Contains(p.Read(), "enter your username")
	p.Send(name)
	s.Require().Contains(p.Read(), "You joined the chat")
	return p
}

func (p *Participant) Send(line string) {
	p.t.Logf("%s >> %s", p.name, line)
	_, err := p.conn.Write([]byte(line + "\n"))
	if err != nil {
		p.t.Fatalf("%s: write failed: %v", p.name, err)
	}
}

func (p *Participant) Read() string {
	_ = p.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	line, err := p.reader.ReadString('\n')
	if err != nil {
		p.t.Fatalf("%s: read failed: %v", p.name, err)
	}
	line = strings.TrimRight(line, "\r\n")
	p.t.Logf("%s << %s", p.name, line)
	return line
}

// ReadUntil skips lines, such as join announcements of other runs, until match accepts one.
func (p *Participant) ReadUntil(match func(string) bool) string {
	for i := 0; i < 50; i++ {
		if line := p.Read(); match(line) {
			return line
		}
	}
	p.t.Fatalf("%s: expected line never arrived", p.name)
	return ""
}

// WithHealth provides a health client within a contextual test step.
func (s *BaseRelaySuite) WithHealth(name string, fn func(ctx context.Context, client healthpb.HealthClient)) {
	if s.Config.HealthAddr == "" {
		s.T().Skip("HEALTH_ADDR not set")
	}
	s.header(s.T(), name)
	conn, err := grpc.NewClient(s.Config.HealthAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	s.Require().NoError(err, "Failed to connect to health endpoint at "+s.Config.HealthAddr)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	fn(ctx, healthpb.NewHealthClient(conn))
}
