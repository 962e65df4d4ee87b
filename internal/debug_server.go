package internal

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/observability"
	"context"
	stderrors "errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"
)

const inspectTemplate = `<!doctype html>
<html><head><meta charset="utf-8"><title>chat-relay inspector</title>
<style>body{font-family:monospace;background:#111;color:#0f6}td,th{padding:2px 10px;text-align:left}</style>
</head><body>
<h2>Relay</h2>
<table>
<tr><th>sessions</th><td>{{.Stats.Sessions}}</td><th>pending offers</th><td>{{.Stats.PendingOffers}}</td></tr>
<tr><th>active relays</th><td>{{.Stats.ActiveRelays}}</td><th>bytes relayed</th><td>{{.Stats.BytesRelayed}}</td></tr>
<tr><th>completed</th><td>{{.Stats.TransfersCompleted}}</td><th>failed</th><td>{{.Stats.TransfersFailed}}</td></tr>
<tr><th>timed out</th><td>{{.Stats.TransfersTimedOut}}</td><th>rss</th><td>{{.Stats.Process.RSS}}</td></tr>
</table>
<h2>Journal (newest {{len .Items}})</h2>
<table>
<tr><th>closed</th><th>id</th><th>parties</th><th>file</th><th>bytes</th><th>state</th><th>outcome</th><th>detail</th></tr>
{{range .Items}}<tr><td>{{.Timestamp}}</td><td>{{.ID}}</td><td>{{.Parties}}</td><td>{{.Filename}}</td><td>{{.Bytes}}</td><td>{{.State}}</td><td>{{.Outcome}}</td><td>{{.Detail}}</td></tr>
{{end}}</table>
</body></html>`

type InspectRow struct {
	Timestamp string
	ID        string
	Parties   string
	Filename  string
	Bytes     string
	State     string
	Outcome   string
	Detail    string
}

type PageData struct {
	Stats observability.MonitoringStats
	Items []InspectRow
}

// DebugServer renders the transfer journal and the latest stats as a single HTML page.
type DebugServer struct {
	log        *slog.Logger
	journal    contract.ITransferJournal
	monitoring *observability.MonitoringManager
	limit      int
	tmpl       *template.Template
	server     *http.Server
}

func NewDebugServer(log *slog.Logger, journal contract.ITransferJournal, monitoring *observability.MonitoringManager, limit int) *DebugServer {
	if limit <= 0 {
		limit = 100
	}
	return &DebugServer{
		log:        log,
		journal:    journal,
		monitoring: monitoring,
		limit:      limit,
		tmpl:       template.Must(template.New("inspect").Parse(inspectTemplate)),
	}
}

func (d *DebugServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/inspect", d.inspect)
	return mux
}

// Start serves on address in the background.
func (d *DebugServer) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	d.server = &http.Server{Handler: d.Handler(), ReadHeaderTimeout: 5 * time.Second}
	d.log.Info("Debug inspector available", "url", fmt.Sprintf("http://%s/inspect", listener.Addr().String()))
	go func() {
		if err := d.server.Serve(listener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			d.log.Error("Debug inspector stopped", "error", err)
		}
	}()
	return nil
}

func (d *DebugServer) Shutdown(ctx context.Context) error {
	if d.server == nil {
		return nil
	}
	return d.server.Shutdown(ctx)
}

func (d *DebugServer) inspect(w http.ResponseWriter, r *http.Request) {
	limit := d.limit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := d.journal.Latest(limit)
	if err != nil {
		d.log.Warn("Unable to read journal", "error", err)
		http.Error(w, "journal unavailable", http.StatusInternalServerError)
		return
	}

	data := PageData{Items: make([]InspectRow, 0, len(records))}
	if d.monitoring != nil {
		data.Stats = d.monitoring.GetLatest()
	}
	for _, record := range records {
		data.Items = append(data.Items, ToInspectRow(record))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := d.tmpl.Execute(w, data); err != nil {
		d.log.Debug("Inspector render failed", "error", err)
	}
}

func ToInspectRow(record domain.TransferRecord) InspectRow {
	id := record.ID.String()
	if len(id) > 8 {
		id = id[:8]
	}
	detail := record.Error
	if detail == "" {
		detail = record.Endpoint
	}
	return InspectRow{
		Timestamp: record.ClosedAt.Format("15:04:05"),
		ID:        id,
		Parties:   record.Sender + " -> " + record.Recipient,
		Filename:  record.Filename,
		Bytes:     fmt.Sprintf("%d/%d", record.BytesRelayed, record.DeclaredSize),
		State:     record.FinalState.String(),
		Outcome:   string(record.Outcome),
		Detail:    detail,
	}
}
