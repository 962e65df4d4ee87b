package domain

import (
	"chat-relay/errors"
	"fmt"
)

// Control protocol verbs.
const (
	VerbSendRequest   = "SENDFILE_REQUEST"
	VerbSendAccept    = "SENDFILE_ACCEPT"
	VerbIncomingFile  = "INCOMING_FILE"
	VerbTransferReady = "TRANSFER_READY"
	PrivatePrefix     = "@"
)

// Usage forms reported back on malformed lines.
const (
	UsageSendRequest = VerbSendRequest + " <recipient> <filename> <size>"
	UsageSendAccept  = VerbSendAccept + " <sender>"
	UsagePrivate     = PrivatePrefix + "<recipient> <text>"
)

type CommandKind int

const (
	QuitKind CommandKind = iota
	SendRequestKind
	SendAcceptKind
	PrivateKind
	ChatKind
	MalformedKind
)

func (k CommandKind) String() string {
	switch k {
	case QuitKind:
		return "quit"
	case SendRequestKind:
		return "send_request"
	case SendAcceptKind:
		return "send_accept"
	case PrivateKind:
		return "private"
	case ChatKind:
		return "chat"
	case MalformedKind:
		return "malformed"
	default:
		return "unknown"
	}
}

// Command is one tokenized control line.
// Every concrete type below is handled explicitly by the connection handler.
type Command interface {
	Kind() CommandKind
}

type QuitCommand struct{}

func (QuitCommand) Kind() CommandKind { return QuitKind }

type SendRequestCommand struct {
	Recipient string `validate:"required,max=256"`
	Filename  string `validate:"required,max=255"`
	Size      int64  `validate:"gte=0"`
}

func (SendRequestCommand) Kind() CommandKind { return SendRequestKind }

type SendAcceptCommand struct {
	Sender string `validate:"required,max=256"`
}

func (SendAcceptCommand) Kind() CommandKind { return SendAcceptKind }

type PrivateCommand struct {
	Recipient string
	Text      string
}

func (PrivateCommand) Kind() CommandKind { return PrivateKind }

type ChatCommand struct {
	Text string
}

func (ChatCommand) Kind() CommandKind { return ChatKind }

// MalformedCommand carries the usage form of the verb that failed to parse.
type MalformedCommand struct {
	Verb   string
	Usage  string
	Reason string
}

func (MalformedCommand) Kind() CommandKind { return MalformedKind }

func (c MalformedCommand) Err() error {
	return fmt.Errorf("%w: %s: %s", errors.ErrMalformedCommand, c.Verb, c.Reason)
}
