package client

import (
	"bufio"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
)

const (
	CmdSendFile = "/sendfile"
	CmdAccept   = "/accept"
)

type outgoingFile struct {
	path string
	name string
	size int64
}

// pendingTransfer is what the client will do once TRANSFER_READY names the peer.
type pendingTransfer struct {
	role     domain.Role
	peer     string
	filename string
	path     string
	size     int64
}

// Session is one interactive control connection. Server lines are read on their
// own goroutine; transfers run detached from the control connection.
type Session struct {
	log     *slog.Logger
	conn    net.Conn
	console *Console
	agent   *TransferAgent
	bars    bool

	writeMu sync.Mutex
	writer  *bufio.Writer

	mu       sync.Mutex
	offers   map[string]domain.IncomingFileEvent
	accepted map[string]domain.IncomingFileEvent
	outgoing map[string]outgoingFile

	transfers sync.WaitGroup
}

// Connect dials the control endpoint of cfg.
func Connect(ctx context.Context, log *slog.Logger, cfg Config, console *Console) (*Session, error) {
	dialer := &net.Dialer{Timeout: cfg.IOTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Endpoint())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrConnectionLost, err)
	}
	return NewSession(log, conn, console, NewTransferAgent(log, AgentConfigFrom(cfg))), nil
}

func NewSession(log *slog.Logger, conn net.Conn, console *Console, agent *TransferAgent) *Session {
	return &Session{
		log:      log,
		conn:     conn,
		console:  console,
		agent:    agent,
		bars:     true,
		writer:   bufio.NewWriter(conn),
		offers:   make(map[string]domain.IncomingFileEvent),
		accepted: make(map[string]domain.IncomingFileEvent),
		outgoing: make(map[string]outgoingFile),
	}
}

// WithProgressBars toggles the terminal bars; the final summary is always printed.
func (s *Session) WithProgressBars(enabled bool) *Session {
	s.bars = enabled
	return s
}

// Run forwards input lines to the server until the server closes the control
// connection, input ends or ctx is cancelled. Transfers started meanwhile keep
// running; call Wait to let them finish.
func (s *Session) Run(ctx context.Context, input io.Reader) error {
	serverDone := make(chan error, 1)
	go func() { serverDone <- s.readServer(ctx) }()

	inputDone := make(chan error, 1)
	go func() { inputDone <- s.readInput(input) }()

	var err error
	select {
	case err = <-serverDone:
	case err = <-inputDone:
		_ = s.conn.Close()
		<-serverDone
	case <-ctx.Done():
		_ = s.conn.Close()
		<-serverDone
	}
	return err
}

// Wait blocks until every transfer started by this session has ended.
func (s *Session) Wait() {
	s.transfers.Wait()
}

func (s *Session) Close() error {
	return s.conn.Close()
}

func (s *Session) readServer(ctx context.Context) error {
	scanner := bufio.NewScanner(s.conn)
	for scanner.Scan() {
		s.handleServerLine(ctx, scanner.Text())
	}
	if err := scanner.Err(); err != nil && !stderrors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: %v", errors.ErrConnectionLost, err)
	}
	s.console.Info("Disconnected from server.")
	return nil
}

func (s *Session) readInput(input io.Reader) error {
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		if err := s.HandleInput(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// HandleInput interprets local commands and sends everything else as typed.
// Only a broken control connection is returned as an error.
func (s *Session) HandleInput(line string) error {
	fields := strings.Fields(line)
	if len(fields) > 0 {
		switch fields[0] {
		case CmdSendFile:
			return s.offerFile(fields[1:])
		case CmdAccept:
			return s.acceptFile(fields[1:])
		}
	}
	return s.send(line)
}

func (s *Session) offerFile(args []string) error {
	if len(args) < 2 {
		s.console.Error("usage: %s <recipient> <path>", CmdSendFile)
		return nil
	}
	recipient := args[0]
	path := strings.Join(args[1:], " ")
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		s.console.Error("cannot send %s: not a readable file", path)
		return nil
	}

	file := outgoingFile{path: path, name: OfferName(path), size: info.Size()}
	s.mu.Lock()
	s.outgoing[recipient] = file
	s.mu.Unlock()

	s.console.Info("Offering %s (%d bytes) to %s...", file.name, file.size, recipient)
	return s.send(domain.SendRequestLine(recipient, file.name, file.size))
}

func (s *Session) acceptFile(args []string) error {
	if len(args) != 1 {
		s.console.Error("usage: %s <sender>", CmdAccept)
		return nil
	}
	sender := args[0]

	s.mu.Lock()
	offer, ok := s.offers[sender]
	if ok {
		delete(s.offers, sender)
		s.accepted[sender] = offer
	}
	s.mu.Unlock()

	if !ok {
		s.console.Error("no file offer from %s", sender)
		return nil
	}
	return s.send(domain.SendAcceptLine(sender))
}

func (s *Session) handleServerLine(ctx context.Context, line string) {
	switch event := domain.ParseServerLine(line).(type) {
	case domain.IncomingFileEvent:
		s.mu.Lock()
		s.offers[event.Sender] = event
		s.mu.Unlock()
		s.console.Info("%s wants to send you %s (%d bytes). Type '%s %s' to receive it.",
			event.Sender, event.Filename, event.Size, CmdAccept, event.Sender)
	case domain.TransferReadyEvent:
		pending, ok := s.claim(event.Peer)
		if !ok {
			s.console.Error("unexpected transfer channel for %s", event.Peer)
			return
		}
		endpoint := net.JoinHostPort(event.Address, strconv.Itoa(event.Port))
		s.transfers.Add(1)
		go func() {
			defer s.transfers.Done()
			s.transfer(ctx, endpoint, pending)
		}()
	case domain.TextEvent:
		s.console.Line(event.Text)
	}
}

// claim decides this side's role for a rendezvous with peer: RECV when we
// accepted the peer's offer, SEND when we offered the peer a file.
func (s *Session) claim(peer string) (pendingTransfer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if offer, ok := s.accepted[peer]; ok {
		delete(s.accepted, peer)
		return pendingTransfer{role: domain.RoleRecv, peer: peer, filename: offer.Filename, size: offer.Size}, true
	}
	if file, ok := s.outgoing[peer]; ok {
		delete(s.outgoing, peer)
		return pendingTransfer{role: domain.RoleSend, peer: peer, filename: file.name, path: file.path, size: file.size}, true
	}
	return pendingTransfer{}, false
}

func (s *Session) transfer(ctx context.Context, endpoint string, pending pendingTransfer) {
	var observe ProgressFunc
	var bar *ProgressBar
	if s.bars {
		verb := "sending"
		if pending.role == domain.RoleRecv {
			verb = "receiving"
		}
		bar = NewProgressBar(s.console.Writer(), fmt.Sprintf("%s %s", verb, pending.filename), pending.size)
		observe = bar.Observe
	}

	var result TransferResult
	var err error
	if pending.role == domain.RoleSend {
		result, err = s.agent.Send(ctx, endpoint, pending.path, pending.size, observe)
	} else {
		result, err = s.agent.Receive(ctx, endpoint, pending.filename, pending.size, observe)
	}
	if bar != nil && err == nil {
		bar.Finish()
	}

	switch {
	case err != nil:
		s.log.Debug("Transfer failed", "peer", pending.peer, "role", string(pending.role), "error", err)
		s.console.Error("transfer of %s with %s failed: %v", pending.filename, pending.peer, err)
	case pending.role == domain.RoleSend:
		s.console.Success("Sent %s to %s (%.2f MB).", pending.filename, pending.peer, result.MegaBytes())
	default:
		s.console.Success("Received %s from %s (%.2f MB, %s).",
			DisplayName(result.Path), pending.peer, result.MegaBytes(), result.MimeType)
	}
}

func (s *Session) send(line string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.writer.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrConnectionLost, err)
	}
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrConnectionLost, err)
	}
	return nil
}
