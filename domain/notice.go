package domain

import "fmt"

// Lines the server sends to a single participant.

func WelcomeNotice() string {
	return "Welcome to the chat! Please enter your username:"
}

func JoinedNotice(quitKeyword string) string {
	return fmt.Sprintf("You joined the chat. Type '%s' to disconnect.", quitKeyword)
}

func NameUnavailableNotice(name string) string {
	return fmt.Sprintf("%s: name '%s' is not available, choose another:", ServerName, name)
}

func NotFoundNotice(name string) string {
	return fmt.Sprintf("%s: user '%s' not found or offline.", ServerName, name)
}

func UsageNotice(usage string) string {
	return fmt.Sprintf("%s: usage: %s", ServerName, usage)
}

func NoPendingOfferNotice(sender string) string {
	return fmt.Sprintf("%s: no pending file offer from '%s'.", ServerName, sender)
}

func SelfTransferNotice() string {
	return fmt.Sprintf("%s: you cannot send a file to yourself.", ServerName)
}

func TransferChannelNotice() string {
	return fmt.Sprintf("%s: could not open a transfer channel.", ServerName)
}

// Announcement bodies, broadcast with ServerName as sender.

func JoinAnnouncement(name string) string {
	return fmt.Sprintf("%s joined the chat", name)
}

func LeaveAnnouncement(name string) string {
	return fmt.Sprintf("%s left the chat", name)
}
