package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const DefaultQuitKeyword = "quit"

// CommandParser turns one control line into exactly one Command variant.
// Verbs are matched on the whole first token, so "SENDFILE_REQUESTS x" is chat.
type CommandParser struct {
	quitKeyword string
	validate    *validator.Validate
}

func NewCommandParser(quitKeyword string) *CommandParser {
	if strings.TrimSpace(quitKeyword) == "" {
		quitKeyword = DefaultQuitKeyword
	}
	return &CommandParser{
		quitKeyword: strings.TrimSpace(quitKeyword),
		validate:    validator.New(),
	}
}

func (p *CommandParser) QuitKeyword() string {
	return p.quitKeyword
}

func (p *CommandParser) Parse(line string) Command {
	line = strings.TrimRight(line, "\r\n")

	if strings.EqualFold(strings.TrimSpace(line), p.quitKeyword) {
		return QuitCommand{}
	}

	fields := strings.Fields(line)
	if len(fields) > 0 {
		switch fields[0] {
		case VerbSendRequest:
			return p.parseSendRequest(fields)
		case VerbSendAccept:
			return p.parseSendAccept(fields)
		}
	}

	if strings.HasPrefix(line, PrivatePrefix) {
		return parsePrivate(line)
	}
	return ChatCommand{Text: line}
}

func (p *CommandParser) parseSendRequest(fields []string) Command {
	if len(fields) != 4 {
		return malformed(VerbSendRequest, UsageSendRequest,
			fmt.Sprintf("expected 3 fields, got %d", len(fields)-1))
	}
	size, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return malformed(VerbSendRequest, UsageSendRequest, "size must be an integer")
	}
	cmd := SendRequestCommand{
		Recipient: fields[1],
		Filename:  fields[2],
		Size:      size,
	}
	if err := p.validate.Struct(cmd); err != nil {
		return malformed(VerbSendRequest, UsageSendRequest, err.Error())
	}
	return cmd
}

func (p *CommandParser) parseSendAccept(fields []string) Command {
	if len(fields) != 2 {
		return malformed(VerbSendAccept, UsageSendAccept,
			fmt.Sprintf("expected 1 field, got %d", len(fields)-1))
	}
	cmd := SendAcceptCommand{Sender: fields[1]}
	if err := p.validate.Struct(cmd); err != nil {
		return malformed(VerbSendAccept, UsageSendAccept, err.Error())
	}
	return cmd
}

func parsePrivate(line string) Command {
	recipient, text, ok := strings.Cut(strings.TrimPrefix(line, PrivatePrefix), " ")
	if !ok || recipient == "" || strings.TrimSpace(text) == "" {
		return malformed(PrivatePrefix, UsagePrivate, "recipient and text are required")
	}
	return PrivateCommand{Recipient: recipient, Text: text}
}

func malformed(verb, usage, reason string) MalformedCommand {
	return MalformedCommand{Verb: verb, Usage: usage, Reason: reason}
}
