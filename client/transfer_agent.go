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
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/time/rate"
)

type AgentConfig struct {
	IOTimeout        time.Duration
	DownloadDir      string
	ChunkSize        int
	ProgressInterval time.Duration
	RoleTags         bool
}

func AgentConfigFrom(cfg Config) AgentConfig {
	return AgentConfig{
		IOTimeout:        cfg.IOTimeout,
		DownloadDir:      cfg.DownloadDir,
		ChunkSize:        4096,
		ProgressInterval: 200 * time.Millisecond,
		RoleTags:         cfg.RoleTags,
	}
}

// ProgressFunc receives throttled observations and one final observation.
type ProgressFunc func(domain.TransferProgress)

type TransferResult struct {
	Path     string
	Bytes    int64
	MimeType string
	Elapsed  time.Duration
}

func (r TransferResult) MegaBytes() float64 {
	return float64(r.Bytes) / (1024 * 1024)
}

// TransferAgent is the peer side of a rendezvous: it dials the published
// endpoint and either streams a local file out or writes the incoming bytes to disk.
// Failures are surfaced to the caller and never retried.
type TransferAgent struct {
	log  *slog.Logger
	cfg  AgentConfig
	dial func(ctx context.Context, network, address string) (net.Conn, error)
}

func NewTransferAgent(log *slog.Logger, cfg AgentConfig) *TransferAgent {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 4096
	}
	dialer := &net.Dialer{Timeout: cfg.IOTimeout}
	return &TransferAgent{log: log, cfg: cfg, dial: dialer.DialContext}
}

// Send streams the file at path to the endpoint, declared bytes being the size
// announced in the offer.
func (a *TransferAgent) Send(ctx context.Context, endpoint, path string, declared int64, onProgress ProgressFunc) (TransferResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return TransferResult{}, fmt.Errorf("%w: %v", errors.ErrResource, err)
	}
	defer file.Close()

	conn, err := a.connect(ctx, endpoint, domain.RoleSend)
	if err != nil {
		return TransferResult{}, err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	started := time.Now()
	sent, err := a.pump(file, conn, declared, onProgress, func() error {
		return conn.SetWriteDeadline(a.deadline())
	})
	if err != nil {
		return TransferResult{Path: path, Bytes: sent}, a.classify(ctx, err)
	}
	if tcp, ok := conn.(interface{ CloseWrite() error }); ok {
		if err := tcp.CloseWrite(); err != nil {
			a.log.Debug("Half-close failed", "error", err)
		}
	}
	a.log.Debug("File sent", "path", path, "bytes", sent)
	return TransferResult{Path: path, Bytes: sent, Elapsed: time.Since(started)}, nil
}

// Receive writes the incoming stream into the download directory under a
// collision-free name. A partial file is removed when the transfer fails.
func (a *TransferAgent) Receive(ctx context.Context, endpoint, filename string, declared int64, onProgress ProgressFunc) (TransferResult, error) {
	file, err := CreateUnique(a.cfg.DownloadDir, filename)
	if err != nil {
		return TransferResult{}, fmt.Errorf("%w: %v", errors.ErrResource, err)
	}
	path := file.Name()

	result, err := a.receiveInto(ctx, endpoint, file, declared, onProgress)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("%w: %v", errors.ErrResource, closeErr)
	}
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			a.log.Warn("Unable to remove partial file", "path", path, "error", rmErr)
		}
		return TransferResult{Path: path, Bytes: result.Bytes}, err
	}

	result.Path = path
	if mtype, mErr := mimetype.DetectFile(path); mErr == nil {
		result.MimeType = mtype.String()
	}
	a.log.Debug("File received", "path", path, "bytes", result.Bytes, "mime", result.MimeType)
	return result, nil
}

func (a *TransferAgent) receiveInto(ctx context.Context, endpoint string, file *os.File, declared int64, onProgress ProgressFunc) (TransferResult, error) {
	conn, err := a.connect(ctx, endpoint, domain.RoleRecv)
	if err != nil {
		return TransferResult{}, err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	started := time.Now()
	writer := bufio.NewWriterSize(file, a.cfg.ChunkSize)
	received, err := a.pump(conn, diskWriter{writer}, declared, onProgress, func() error {
		return conn.SetReadDeadline(a.deadline())
	})
	if err != nil {
		return TransferResult{Bytes: received}, a.classify(ctx, err)
	}
	if err := writer.Flush(); err != nil {
		return TransferResult{Bytes: received}, fmt.Errorf("%w: %v", errors.ErrResource, err)
	}
	return TransferResult{Bytes: received, Elapsed: time.Since(started)}, nil
}

func (a *TransferAgent) connect(ctx context.Context, endpoint string, role domain.Role) (net.Conn, error) {
	conn, err := a.dial(ctx, "tcp", endpoint)
	if err != nil {
		return nil, a.classify(ctx, err)
	}
	if !a.cfg.RoleTags {
		return conn, nil
	}
	if err := conn.SetWriteDeadline(a.deadline()); err != nil {
		_ = conn.Close()
		return nil, a.classify(ctx, err)
	}
	if _, err := io.WriteString(conn, role.Tag()); err != nil {
		_ = conn.Close()
		return nil, a.classify(ctx, err)
	}
	return conn, nil
}

// pump copies src to dst chunk by chunk, arming the I/O deadline before every read.
func (a *TransferAgent) pump(src io.Reader, dst io.Writer, declared int64, onProgress ProgressFunc, arm func() error) (int64, error) {
	started := time.Now()
	progress := rate.Sometimes{Interval: a.cfg.ProgressInterval}
	buf := make([]byte, a.cfg.ChunkSize)

	var transferred int64
	report := func() {
		if onProgress == nil {
			return
		}
		onProgress(domain.TransferProgress{Transferred: transferred, Declared: declared, Elapsed: time.Since(started)})
	}

	for {
		if err := arm(); err != nil {
			return transferred, err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return transferred, err
			}
			transferred += int64(n)
			progress.Do(report)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return transferred, readErr
		}
	}
	report()
	return transferred, nil
}

func (a *TransferAgent) deadline() time.Time {
	if a.cfg.IOTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(a.cfg.IOTimeout)
}

func (a *TransferAgent) classify(ctx context.Context, err error) error {
	var netErr net.Error
	switch {
	case ctx.Err() != nil:
		return fmt.Errorf("transfer interrupted: %w", ctx.Err())
	case stderrors.Is(err, errors.ErrResource):
		return err
	case stderrors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %v", errors.ErrTransferTimeout, err)
	default:
		return fmt.Errorf("%w: %v", errors.ErrConnectionLost, err)
	}
}

// diskWriter marks local write failures as resource errors rather than network ones.
type diskWriter struct {
	w io.Writer
}

func (d diskWriter) Write(p []byte) (int, error) {
	n, err := d.w.Write(p)
	if err != nil {
		err = fmt.Errorf("%w: %v", errors.ErrResource, err)
	}
	return n, err
}

// DisplayName is the short name shown to the user for a destination path.
func DisplayName(path string) string {
	return filepath.Base(path)
}
