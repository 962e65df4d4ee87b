package domain

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestMessage_Format(t *testing.T) {
	req := require.New(t)
	at := time.Date(2024, 3, 1, 9, 5, 42, 0, time.Local)

	// Given a broadcast and a private message
	broadcast := NewMessage("alice", nil, "hello", at)
	private := NewMessage("alice", lo.ToPtr("bob"), "psst", at)

	// Then both carry the HH:MM stamp
	req.Equal("[09:05] alice: hello", broadcast.Format())
	req.Equal("[09:05] (private) alice: psst", private.Format())

	// And only the second is private
	req.False(broadcast.IsPrivate())
	req.True(private.IsPrivate())
	req.NotEqual(broadcast.ID, private.ID)
}

func TestIsAcceptableName(t *testing.T) {
	req := require.New(t)

	req.True(IsAcceptableName("alice"))
	req.False(IsAcceptableName(""))
	req.False(IsAcceptableName("alice smith"))
	req.False(IsAcceptableName("\t"))
}
