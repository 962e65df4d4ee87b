package internal

import (
	"chat-relay/domain"
	"chat-relay/mocks"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDebugServer_Inspect_Renders_Journal(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	journal := mocks.NewMockITransferJournal(ctrl)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given one completed transfer in the journal
	record := domain.TransferRecord{
		ID:           uuid.New(),
		Sender:       "alice",
		Recipient:    "bob",
		Filename:     "report.pdf",
		DeclaredSize: 1024,
		BytesRelayed: 1024,
		FinalState:   domain.BothConnected,
		Outcome:      domain.OutcomeCompleted,
		ClosedAt:     time.Date(2026, 1, 2, 9, 5, 7, 0, time.UTC),
	}
	journal.EXPECT().Latest(5).Return([]domain.TransferRecord{record}, nil)

	// When the page is requested
	recorder := httptest.NewRecorder()
	NewDebugServer(log, journal, nil, 100).Handler().
		ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/inspect?limit=5", nil))

	// Then the record is listed
	req.Equal(http.StatusOK, recorder.Code)
	body := recorder.Body.String()
	req.Contains(body, "alice -&gt; bob")
	req.Contains(body, "report.pdf")
	req.Contains(body, "1024/1024")
	req.Contains(body, "09:05:07")
	req.Contains(body, string(domain.OutcomeCompleted))
}

func TestDebugServer_Inspect_Journal_Error(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	journal := mocks.NewMockITransferJournal(ctrl)
	journal.EXPECT().Latest(100).Return(nil, fmt.Errorf("closed"))

	recorder := httptest.NewRecorder()
	NewDebugServer(logs.GetLoggerFromLevel(slog.LevelDebug), journal, nil, 0).Handler().
		ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/inspect", nil))

	req.Equal(http.StatusInternalServerError, recorder.Code)
}
