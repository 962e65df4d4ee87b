package domain

import (
	"fmt"
	"strconv"
	"strings"
)

func IncomingFileLine(sender, filename string, size int64) string {
	return fmt.Sprintf("%s %s%s %s %d", VerbIncomingFile, PrivatePrefix, sender, filename, size)
}

func TransferReadyLine(address string, port int, peer string) string {
	return fmt.Sprintf("%s %s %d %s%s", VerbTransferReady, address, port, PrivatePrefix, peer)
}

func SendRequestLine(recipient, filename string, size int64) string {
	return fmt.Sprintf("%s %s %s %d", VerbSendRequest, recipient, filename, size)
}

func SendAcceptLine(sender string) string {
	return fmt.Sprintf("%s %s", VerbSendAccept, sender)
}

// ServerEvent is one line received by a peer on its control channel.
type ServerEvent interface {
	isServerEvent()
}

type IncomingFileEvent struct {
	Sender   string
	Filename string
	Size     int64
}

type TransferReadyEvent struct {
	Address string
	Port    int
	Peer    string
}

// TextEvent is any line to be shown as is: chat deliveries and notices.
type TextEvent struct {
	Text string
}

func (IncomingFileEvent) isServerEvent()  {}
func (TransferReadyEvent) isServerEvent() {}
func (TextEvent) isServerEvent()          {}

// ParseServerLine recognises the two negotiation lines; anything else, including
// a negotiation verb with the wrong shape, is a TextEvent.
func ParseServerLine(line string) ServerEvent {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return TextEvent{Text: line}
	}

	switch fields[0] {
	case VerbIncomingFile:
		sender, ok := strings.CutPrefix(fields[1], PrivatePrefix)
		size, err := strconv.ParseInt(fields[3], 10, 64)
		if !ok || sender == "" || err != nil {
			break
		}
		return IncomingFileEvent{Sender: sender, Filename: fields[2], Size: size}
	case VerbTransferReady:
		peer, ok := strings.CutPrefix(fields[3], PrivatePrefix)
		port, err := strconv.Atoi(fields[2])
		if !ok || peer == "" || err != nil {
			break
		}
		return TransferReadyEvent{Address: fields[1], Port: port, Peer: peer}
	}
	return TextEvent{Text: line}
}
