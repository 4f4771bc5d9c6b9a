package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/skillswap/skillswap/internal/models"
	"github.com/skillswap/skillswap/internal/repo/mongodb"
)

// Broadcaster delivers realtime events to connected users. The websocket
// hub satisfies it; tests swap in a recorder.
type Broadcaster interface {
	SendToUser(userID string, event models.SocketEvent) bool
	SendToConn(connID string, event models.SocketEvent) bool
}

// noopBroadcaster is used when no realtime layer is attached, e.g. in
// REST-only deployments.
type noopBroadcaster struct{}

func (noopBroadcaster) SendToUser(string, models.SocketEvent) bool { return false }
func (noopBroadcaster) SendToConn(string, models.SocketEvent) bool { return false }

// ChatListing is a chat with its participant profiles resolved and its
// message tail trimmed to the latest entry for list views.
type ChatListing struct {
	ID           primitive.ObjectID   `json:"id"`
	Participants []models.Participant `json:"participants"`
	LastMessage  *models.Message      `json:"last_message,omitempty"`
	LastActivity time.Time            `json:"last_activity"`
	Unread       int                  `json:"unread"`
}

type StartChatRequest struct {
	OtherUserID string `json:"other_user_id" validate:"required"`
}

// SendMessageParams carries one outbound message. ClientKey makes the
// send idempotent across retries; OriginConnID, when set, routes the
// message_sent acknowledgement to the connection that produced it.
type SendMessageParams struct {
	ChatID       primitive.ObjectID
	SenderID     primitive.ObjectID
	Content      string
	Type         models.MessageType
	ClientKey    string
	OriginConnID string
}

type ChatUseCase struct {
	chatRepo    mongodb.ChatRepository
	userRepo    mongodb.UserRepository
	broadcaster Broadcaster
}

func NewChatUseCase(chatRepo mongodb.ChatRepository, userRepo mongodb.UserRepository) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		broadcaster: noopBroadcaster{},
	}
}

// AttachBroadcaster wires the realtime fan-out after construction, which
// breaks the dependency cycle between the hub and the use case.
func (uc *ChatUseCase) AttachBroadcaster(b Broadcaster) {
	uc.broadcaster = b
}

// StartChat returns the single active chat between the caller and the
// other user, creating it on first contact.
func (uc *ChatUseCase) StartChat(ctx context.Context, userID primitive.ObjectID, req StartChatRequest) (*models.Chat, error) {
	otherID, err := primitive.ObjectIDFromHex(req.OtherUserID)
	if err != nil {
		return nil, models.Validationf("invalid user id")
	}
	if otherID == userID {
		return nil, models.Validationf("cannot start a chat with yourself")
	}
	if _, err := uc.userRepo.GetByID(ctx, otherID); err != nil {
		return nil, err
	}
	return uc.chatRepo.FindOrCreate(ctx, userID, otherID)
}

// GetUserChats lists the caller's chats sorted by recency, with the
// counterpart profiles resolved concurrently.
func (uc *ChatUseCase) GetUserChats(ctx context.Context, userID primitive.ObjectID) ([]ChatListing, error) {
	chats, err := uc.chatRepo.ListForParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	listings := make([]ChatListing, len(chats))
	group, gctx := errgroup.WithContext(ctx)
	for i, chat := range chats {
		i, chat := i, chat
		group.Go(func() error {
			listing := ChatListing{
				ID:           chat.ID,
				LastActivity: chat.LastMessage,
				Participants: make([]models.Participant, 0, len(chat.Participants)),
			}
			for _, pid := range chat.Participants {
				user, err := uc.userRepo.GetByID(gctx, pid)
				if err != nil {
					return err
				}
				listing.Participants = append(listing.Participants, user.AsParticipant())
			}
			if n := len(chat.Messages); n > 0 {
				last := chat.Messages[n-1]
				listing.LastMessage = &last
			}
			for _, msg := range chat.Messages {
				if msg.SenderID != userID && !msg.Read {
					listing.Unread++
				}
			}
			listings[i] = listing
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return listings, nil
}

// GetChat returns one chat with its messages in chronological order.
// Non-participants get an authorization error, not a not-found, because
// chat ids are not secret.
func (uc *ChatUseCase) GetChat(ctx context.Context, userID, chatID primitive.ObjectID) (*models.Chat, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, models.Authorizationf("not a participant of this chat")
	}

	sort.SliceStable(chat.Messages, func(i, j int) bool {
		return chat.Messages[i].Timestamp.Before(chat.Messages[j].Timestamp)
	})
	return chat, nil
}

// SendMessage persists one message and fans it out. A repeated ClientKey
// returns the already-stored message without appending or re-notifying,
// so client retries after a dropped acknowledgement are safe.
func (uc *ChatUseCase) SendMessage(ctx context.Context, params SendMessageParams) (*models.Message, error) {
	if params.Content == "" {
		return nil, models.Validationf("message content is required")
	}
	if params.Type == "" {
		params.Type = models.MessageText
	}

	if params.ClientKey != "" {
		existing, err := uc.chatRepo.FindMessageByClientKey(ctx, params.ChatID, params.SenderID, params.ClientKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
	}

	message := models.Message{
		ID:        primitive.NewObjectID(),
		SenderID:  params.SenderID,
		Content:   params.Content,
		Type:      params.Type,
		ClientKey: params.ClientKey,
		Timestamp: time.Now(),
	}

	chat, err := uc.chatRepo.AppendMessage(ctx, params.ChatID, params.SenderID, message)
	if errors.Is(err, models.ErrNotFound) {
		// The append filter rejects three cases at once: a missing chat,
		// a non-participant sender, and a duplicate client key that won
		// a concurrent race past the lookup above. Resolve which it was,
		// checking for the stored duplicate first.
		if params.ClientKey != "" {
			if existing, keyErr := uc.chatRepo.FindMessageByClientKey(ctx, params.ChatID, params.SenderID, params.ClientKey); keyErr == nil {
				return existing, nil
			}
		}
		if _, getErr := uc.chatRepo.GetByID(ctx, params.ChatID); getErr == nil {
			return nil, models.Authorizationf("not a participant of this chat")
		}
		return nil, models.NotFoundf("chat not found")
	}
	if err != nil {
		return nil, err
	}

	payload := models.MessageEventPayload{
		Message: message,
		ChatID:  chat.ID.Hex(),
	}
	if other, ok := chat.Counterpart(params.SenderID); ok {
		uc.broadcaster.SendToUser(other.Hex(), models.NewSocketEvent(models.EventMessageReceived, payload))
	}
	if params.OriginConnID != "" {
		uc.broadcaster.SendToConn(params.OriginConnID, models.NewSocketEvent(models.EventMessageSent, payload))
	}

	return &message, nil
}

// MarkRead flags every message from the counterpart as read. Calling it
// again is a no-op.
func (uc *ChatUseCase) MarkRead(ctx context.Context, userID, chatID primitive.ObjectID) error {
	err := uc.chatRepo.MarkMessagesRead(ctx, chatID, userID)
	if errors.Is(err, models.ErrNotFound) {
		if _, getErr := uc.chatRepo.GetByID(ctx, chatID); getErr == nil {
			return models.Authorizationf("not a participant of this chat")
		}
		return models.NotFoundf("chat not found")
	}
	return err
}

func (uc *ChatUseCase) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return uc.chatRepo.CountUnread(ctx, userID)
}

// MarkTyping relays a typing indicator to the counterpart. Indicators
// are ephemeral and never persisted.
func (uc *ChatUseCase) MarkTyping(ctx context.Context, userID, chatID primitive.ObjectID, typing bool) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(userID) {
		return models.Authorizationf("not a participant of this chat")
	}

	other, ok := chat.Counterpart(userID)
	if !ok {
		return nil
	}

	event := models.EventUserTyping
	if !typing {
		event = models.EventUserStoppedTyping
	}
	uc.broadcaster.SendToUser(other.Hex(), models.NewSocketEvent(event, models.TypingEventPayload{
		ChatID: chatID.Hex(),
		UserID: userID.Hex(),
	}))
	return nil
}
