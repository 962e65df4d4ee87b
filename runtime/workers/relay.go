package workers

import (
	"bufio"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// roleFrameBuffer is the smallest buffer bufio accepts; a role frame fits well inside it.
const roleFrameBuffer = 16

type RelayConfig struct {
	AcceptTimeout    time.Duration
	IOTimeout        time.Duration
	ProgressInterval time.Duration
	ChunkSize        int
	RoleTags         bool
}

// ProgressFunc observes a running copy. It must not block.
type ProgressFunc func(domain.TransferProgress)

// RelayWorker owns one rendezvous listener and copies bytes between the two data
// connections it accepts. It is one-shot: it is never restarted by a supervisor.
type RelayWorker struct {
	log        *slog.Logger
	listener   net.Listener
	rendezvous domain.Rendezvous
	cfg        RelayConfig
	journal    contract.ITransferJournal
	monitoring *observability.MonitoringManager
	onProgress ProgressFunc
	clock      func() time.Time

	mu        sync.Mutex
	conns     []net.Conn
	closeOnce sync.Once
	closed    chan struct{}
}

func NewRelayWorker(
	log *slog.Logger,
	listener net.Listener,
	rendezvous domain.Rendezvous,
	cfg RelayConfig,
) *RelayWorker {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 4096
	}
	return &RelayWorker{
		log:        log.With("rendezvous_id", rendezvous.ID.String(), "endpoint", rendezvous.Endpoint()),
		listener:   listener,
		rendezvous: rendezvous,
		cfg:        cfg,
		clock:      time.Now,
		closed:     make(chan struct{}),
	}
}

func (w *RelayWorker) WithJournal(journal contract.ITransferJournal) *RelayWorker {
	w.journal = journal
	return w
}

func (w *RelayWorker) WithMonitoring(monitoring *observability.MonitoringManager) *RelayWorker {
	w.monitoring = monitoring
	return w
}

func (w *RelayWorker) WithProgress(onProgress ProgressFunc) *RelayWorker {
	w.onProgress = onProgress
	return w
}

// Done is closed once the listener and both data connections are released.
func (w *RelayWorker) Done() <-chan struct{} {
	return w.closed
}

func (w *RelayWorker) Rendezvous() domain.Rendezvous {
	return w.rendezvous
}

// Run accepts two peers, copies source to destination until end-of-stream, and
// releases every resource exactly once whatever the exit path.
func (w *RelayWorker) Run(ctx context.Context) error {
	if w.monitoring != nil {
		w.monitoring.RelayOpened()
	}
	stop := context.AfterFunc(ctx, w.release)
	defer stop()

	transferred, err := w.relay(ctx)
	w.release()

	record := w.close(transferred, err)
	if w.monitoring != nil {
		w.monitoring.RelayClosed(record)
	}
	if w.journal != nil {
		if jErr := w.journal.Record(record); jErr != nil {
			w.log.Warn("Unable to journal transfer", "error", jErr)
		}
	}

	switch record.Outcome {
	case domain.OutcomeCompleted:
		w.log.Info("Transfer completed", "bytes", transferred, "declared", w.rendezvous.DeclaredSize)
	case domain.OutcomeTimedOut:
		w.log.Warn("Transfer timed out", "bytes", transferred, "state", record.FinalState.String(), "error", err)
	default:
		w.log.Warn("Transfer aborted", "bytes", transferred, "outcome", record.Outcome, "error", err)
	}
	return err
}

func (w *RelayWorker) relay(ctx context.Context) (int64, error) {
	first, err := w.accept()
	if err != nil {
		return 0, w.classify(ctx, err)
	}
	second, err := w.accept()
	if err != nil {
		return 0, w.classify(ctx, err)
	}
	// No third peer is ever solicited.
	if err := w.listener.Close(); err != nil {
		w.log.Debug("Listener already closed", "error", err)
	}
	if err := w.rendezvous.Transition(domain.BothConnected); err != nil {
		return 0, err
	}
	w.log.Debug("Both peers connected")

	source, destination, err := w.assignRoles(first, second)
	if err != nil {
		return 0, w.classify(ctx, err)
	}

	transferred, err := w.copy(source, destination)
	if err != nil {
		return transferred, w.classify(ctx, err)
	}
	return transferred, nil
}

func (w *RelayWorker) accept() (net.Conn, error) {
	if dl, ok := w.listener.(interface{ SetDeadline(time.Time) error }); ok && w.cfg.AcceptTimeout > 0 {
		if err := dl.SetDeadline(w.rendezvous.CreatedAt.Add(w.cfg.AcceptTimeout)); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrResource, err)
		}
	}
	conn, err := w.listener.Accept()
	if err != nil {
		if isTimeout(err) {
			if tErr := w.rendezvous.Transition(domain.TimedOut); tErr != nil {
				w.log.Debug("Unexpected transition", "error", tErr)
			}
		}
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.closed:
		_ = conn.Close()
		return nil, net.ErrClosed
	default:
	}
	w.conns = append(w.conns, conn)
	return conn, nil
}

type relayPeer struct {
	conn   net.Conn
	reader io.Reader
}

// assignRoles reads each peer's role frame, or falls back to accept order.
func (w *RelayWorker) assignRoles(first, second net.Conn) (relayPeer, relayPeer, error) {
	if !w.cfg.RoleTags {
		return relayPeer{conn: first, reader: first}, relayPeer{conn: second, reader: second}, nil
	}

	firstRole, firstReader, err := w.readRole(first)
	if err != nil {
		return relayPeer{}, relayPeer{}, err
	}
	secondRole, secondReader, err := w.readRole(second)
	if err != nil {
		return relayPeer{}, relayPeer{}, err
	}
	if firstRole == secondRole {
		return relayPeer{}, relayPeer{}, fmt.Errorf("%w: %s", errors.ErrRoleConflict, firstRole)
	}

	a := relayPeer{conn: first, reader: firstReader}
	b := relayPeer{conn: second, reader: secondReader}
	if firstRole == domain.RoleSend {
		return a, b, nil
	}
	return b, a, nil
}

func (w *RelayWorker) readRole(conn net.Conn) (domain.Role, io.Reader, error) {
	if err := conn.SetReadDeadline(w.deadline()); err != nil {
		return "", nil, err
	}
	reader := bufio.NewReaderSize(conn, roleFrameBuffer)
	frame, err := reader.ReadSlice('\n')
	if err != nil {
		if stderrors.Is(err, bufio.ErrBufferFull) {
			return "", nil, fmt.Errorf("%w: frame too long", errors.ErrUnknownRole)
		}
		return "", nil, err
	}
	role, err := domain.ParseRole(string(frame))
	if err != nil {
		return "", nil, err
	}
	return role, reader, nil
}

// copy moves fixed-size chunks until the source reaches end-of-stream, then
// flushes and half-closes the destination so the receiving peer sees EOF.
func (w *RelayWorker) copy(source, destination relayPeer) (int64, error) {
	started := w.clock()
	progress := rate.Sometimes{Interval: w.cfg.ProgressInterval}
	writer := bufio.NewWriterSize(destination.conn, w.cfg.ChunkSize)
	buf := make([]byte, w.cfg.ChunkSize)

	var transferred int64
	report := func() {
		if w.onProgress == nil {
			return
		}
		w.onProgress(domain.TransferProgress{
			RendezvousID: w.rendezvous.ID,
			Transferred:  transferred,
			Declared:     w.rendezvous.DeclaredSize,
			Elapsed:      w.clock().Sub(started),
		})
	}

	for {
		if err := source.conn.SetReadDeadline(w.deadline()); err != nil {
			return transferred, err
		}
		n, readErr := source.reader.Read(buf)
		if n > 0 {
			if err := destination.conn.SetWriteDeadline(w.deadline()); err != nil {
				return transferred, err
			}
			if _, err := writer.Write(buf[:n]); err != nil {
				return transferred, err
			}
			transferred += int64(n)
			if w.monitoring != nil {
				w.monitoring.AddRelayedBytes(int64(n))
			}
			progress.Do(report)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return transferred, readErr
		}
	}

	if err := destination.conn.SetWriteDeadline(w.deadline()); err != nil {
		return transferred, err
	}
	if err := writer.Flush(); err != nil {
		return transferred, err
	}
	if tcp, ok := destination.conn.(interface{ CloseWrite() error }); ok {
		if err := tcp.CloseWrite(); err != nil {
			w.log.Debug("Half-close failed", "error", err)
		}
	}
	report()
	return transferred, nil
}

func (w *RelayWorker) deadline() time.Time {
	if w.cfg.IOTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(w.cfg.IOTimeout)
}

// release closes the listener and any accepted connection. Safe to call many times.
func (w *RelayWorker) release() {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		defer w.mu.Unlock()

		if err := w.listener.Close(); err != nil && !stderrors.Is(err, net.ErrClosed) {
			w.log.Debug("Error while closing listener", "error", err)
		}
		for _, conn := range w.conns {
			if err := conn.Close(); err != nil && !stderrors.Is(err, net.ErrClosed) {
				w.log.Debug("Error while closing data connection", "error", err)
			}
		}
		close(w.closed)
	})
}

// close performs the single transition to Closed and builds the journal record.
func (w *RelayWorker) close(transferred int64, err error) domain.TransferRecord {
	if tErr := w.rendezvous.Transition(domain.Closed); tErr != nil {
		w.log.Error("Rendezvous closed twice", "error", tErr)
	}

	record := domain.TransferRecord{
		ID:           w.rendezvous.ID,
		Sender:       w.rendezvous.Sender,
		Recipient:    w.rendezvous.Recipient,
		Filename:     w.rendezvous.Filename,
		DeclaredSize: w.rendezvous.DeclaredSize,
		BytesRelayed: transferred,
		Endpoint:     w.rendezvous.Endpoint(),
		FinalState:   w.rendezvous.LastOpen,
		Outcome:      domain.OutcomeCompleted,
		CreatedAt:    w.rendezvous.CreatedAt,
		ClosedAt:     w.clock(),
	}
	switch {
	case err == nil:
	case stderrors.Is(err, errors.ErrTransferTimeout):
		record.Outcome = domain.OutcomeTimedOut
	case stderrors.Is(err, context.Canceled):
		record.Outcome = domain.OutcomeAborted
	default:
		record.Outcome = domain.OutcomeFailed
	}
	if err != nil {
		record.Error = err.Error()
	}
	return record
}

// classify maps raw network failures onto the error taxonomy.
func (w *RelayWorker) classify(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return fmt.Errorf("relay interrupted: %w", ctx.Err())
	case isTimeout(err):
		return fmt.Errorf("%w: %v", errors.ErrTransferTimeout, err)
	case stderrors.Is(err, errors.ErrUnknownRole), stderrors.Is(err, errors.ErrRoleConflict):
		return err
	default:
		return fmt.Errorf("%w: %v", errors.ErrConnectionLost, err)
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
