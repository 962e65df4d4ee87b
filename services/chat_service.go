//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"log/slog"
)

// IChatService is everything a control connection may ask of the relay.
type IChatService interface {
	Join(name string, sink contract.LineSink) error
	AnnounceJoin(name string)
	Leave(name string, sink contract.LineSink)
	Broadcast(sender, text string) int
	Private(sender, recipient, text string) error
	RequestTransfer(sender, recipient, filename string, size int64) error
	AcceptTransfer(recipient, sender string) error
	Notify(name, line string) error
}

type ChatService struct {
	log         *slog.Logger
	registry    contract.IRegistry
	router      contract.IRouter
	coordinator contract.ICoordinator
	uniqueNames bool
}

func NewChatService(
	log *slog.Logger,
	registry contract.IRegistry,
	router contract.IRouter,
	coordinator contract.ICoordinator,
	uniqueNames bool,
) *ChatService {
	return &ChatService{
		log:         log,
		registry:    registry,
		router:      router,
		coordinator: coordinator,
		uniqueNames: uniqueNames,
	}
}

// Join makes name addressable. In strict mode a taken or malformed name fails with
// ErrNameTaken; otherwise the newer connection silently takes the name over.
func (s *ChatService) Join(name string, sink contract.LineSink) error {
	if s.uniqueNames {
		if err := s.registry.Register(name, sink); err != nil {
			return err
		}
	} else if replaced := s.registry.Add(name, sink); replaced {
		s.log.Warn("Name taken over by a new connection", "name", name)
	}
	s.log.Info("Participant joined", "name", name, "sessions", s.registry.Len())
	return nil
}

func (s *ChatService) AnnounceJoin(name string) {
	s.router.Announce(domain.JoinAnnouncement(name))
}

// Leave unregisters the connection, drops its pending offers and tells the others.
// A connection whose name was taken over leaves silently.
func (s *ChatService) Leave(name string, sink contract.LineSink) {
	if !s.registry.RemoveIfCurrent(name, sink) {
		s.log.Debug("Stale session closed", "name", name)
		return
	}
	s.coordinator.Forget(name)
	s.router.Announce(domain.LeaveAnnouncement(name))
	s.log.Info("Participant left", "name", name, "sessions", s.registry.Len())
}

func (s *ChatService) Broadcast(sender, text string) int {
	return s.router.Broadcast(sender, text)
}

func (s *ChatService) Private(sender, recipient, text string) error {
	return s.router.PrivateMessage(sender, recipient, text)
}

func (s *ChatService) RequestTransfer(sender, recipient, filename string, size int64) error {
	return s.coordinator.RequestTransfer(sender, recipient, filename, size)
}

// AcceptTransfer is issued by the recipient of an offer; sender names who offered.
func (s *ChatService) AcceptTransfer(recipient, sender string) error {
	_, err := s.coordinator.PrepareTransfer(sender, recipient)
	return err
}

func (s *ChatService) Notify(name, line string) error {
	return s.router.Notify(name, line)
}
