package server

import (
	"bufio"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/services"
	"chat-relay/sink"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

const maxLineLength = 64 * 1024

type HandlerState int

const (
	AwaitingName HandlerState = iota
	Active
	Closed
)

func (s HandlerState) String() string {
	switch s {
	case AwaitingName:
		return "AWAITING_NAME"
	case Active:
		return "ACTIVE"
	case Closed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// ConnectionHandler drives one control connection: it asks for a name, then
// dispatches every line until quit, end-of-stream or a read error.
// Lines are handled one at a time, which keeps this participant's messages in order.
type ConnectionHandler struct {
	log     *slog.Logger
	conn    net.Conn
	sink    *sink.ConnSink
	service services.IChatService
	parser  *domain.CommandParser

	mu        sync.Mutex
	state     HandlerState
	name      string
	closeOnce sync.Once
}

func NewConnectionHandler(
	log *slog.Logger,
	conn net.Conn,
	service services.IChatService,
	parser *domain.CommandParser,
	writeTimeout time.Duration,
) *ConnectionHandler {
	return &ConnectionHandler{
		log:     log.With("remote", conn.RemoteAddr().String()),
		conn:    conn,
		sink:    sink.NewConnSink(conn, writeTimeout),
		service: service,
		parser:  parser,
		state:   AwaitingName,
	}
}

func (h *ConnectionHandler) State() HandlerState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *ConnectionHandler) Name() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.name
}

// Serve blocks until the participant leaves. The cleanup path runs exactly once.
func (h *ConnectionHandler) Serve() error {
	defer h.Close()

	if err := h.sink.Send(domain.WelcomeNotice()); err != nil {
		return err
	}

	scanner := bufio.NewScanner(h.conn)
	scanner.Buffer(make([]byte, 4096), maxLineLength)
	for scanner.Scan() {
		if done := h.handleLine(scanner.Text()); done {
			return nil
		}
	}

	if h.State() == Closed {
		return nil
	}
	if err := scanner.Err(); err != nil && !stderrors.Is(err, net.ErrClosed) {
		h.log.Debug("Control channel read failed", "name", h.Name(), "error", err)
		return fmt.Errorf("%w: %v", errors.ErrConnectionLost, err)
	}
	return nil
}

// handleLine reports true once the participant asked to leave.
// The first line is the requested name, taken verbatim; the service decides
// whether it is acceptable.
func (h *ConnectionHandler) handleLine(line string) bool {
	if h.State() == AwaitingName {
		h.register(line)
		return false
	}
	return h.dispatch(h.parser.Parse(line))
}

func (h *ConnectionHandler) register(name string) {
	if err := h.service.Join(name, h.sink); err != nil {
		if stderrors.Is(err, errors.ErrNameTaken) {
			h.log.Debug("Name refused", "name", name)
			h.reply(domain.NameUnavailableNotice(name))
			return
		}
		h.log.Error("Unable to join", "name", name, "error", err)
		h.reply(domain.NameUnavailableNotice(name))
		return
	}

	h.mu.Lock()
	if h.state == Closed {
		h.mu.Unlock()
		h.log.Debug("Connection closed while joining", "name", name)
		h.service.Leave(name, h.sink)
		return
	}
	h.name = name
	h.state = Active
	h.mu.Unlock()

	h.reply(domain.JoinedNotice(h.parser.QuitKeyword()))
	h.service.AnnounceJoin(name)
}

func (h *ConnectionHandler) dispatch(command domain.Command) bool {
	name := h.Name()

	switch c := command.(type) {
	case domain.QuitCommand:
		return true
	case domain.ChatCommand:
		if strings.TrimSpace(c.Text) == "" {
			return false
		}
		h.service.Broadcast(name, c.Text)
	case domain.PrivateCommand:
		if err := h.service.Private(name, c.Recipient, c.Text); err != nil {
			h.log.Debug("Private message not delivered", "sender", name, "recipient", c.Recipient, "error", err)
		}
	case domain.SendRequestCommand:
		if err := h.service.RequestTransfer(name, c.Recipient, c.Filename, c.Size); err != nil {
			h.log.Debug("File offer refused", "sender", name, "recipient", c.Recipient, "error", err)
		}
	case domain.SendAcceptCommand:
		if err := h.service.AcceptTransfer(name, c.Sender); err != nil {
			h.log.Debug("File accept refused", "sender", c.Sender, "recipient", name, "error", err)
		}
	case domain.MalformedCommand:
		h.log.Debug("Command rejected", "name", name, "error", c.Err())
		h.reply(domain.UsageNotice(c.Usage))
	default:
		h.log.Warn("Unhandled command", "kind", command.Kind().String())
	}
	return false
}

func (h *ConnectionHandler) reply(line string) {
	if err := h.sink.Send(line); err != nil {
		h.log.Debug("Reply undelivered", "error", err)
	}
}

// Close unregisters the participant and closes the socket. Safe to call many times.
func (h *ConnectionHandler) Close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		wasActive := h.state == Active
		name := h.name
		h.state = Closed
		h.mu.Unlock()

		if wasActive {
			h.service.Leave(name, h.sink)
		}
		if err := h.conn.Close(); err != nil && !stderrors.Is(err, net.ErrClosed) {
			h.log.Debug("Error while closing control connection", "error", err)
		}
		h.log.Debug("Control connection closed", "name", name)
	})
}
