package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillswap/skillswap/internal/config"
	"github.com/skillswap/skillswap/internal/models"
	"github.com/skillswap/skillswap/internal/repo/mongodb"
	"github.com/skillswap/skillswap/internal/usecase"
)

// memUserRepo backs the auth and presence paths of the socket handler.
type memUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (m *memUserRepo) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = primitive.NewObjectID()
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *memUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memUserRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, update mongodb.ProfileUpdate) (*models.User, error) {
	return nil, models.ErrNotFound
}

func (m *memUserRepo) Search(ctx context.Context, params mongodb.SearchParams) ([]*models.User, error) {
	return nil, nil
}

func (m *memUserRepo) ListOnline(ctx context.Context) ([]*models.User, error) {
	return nil, nil
}

func (m *memUserRepo) CompareAndSetRating(ctx context.Context, id primitive.ObjectID, prevReviews int64, rating float64) (bool, error) {
	return false, nil
}

func (m *memUserRepo) SetOnline(ctx context.Context, userID string, online bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}
	if user, ok := m.users[id]; ok {
		user.IsOnline = online
	}
	return nil
}

// memChatRepo holds a single seeded chat; enough for the send path.
type memChatRepo struct {
	mu   sync.Mutex
	chat *models.Chat
}

func (m *memChatRepo) FindOrCreate(ctx context.Context, userA, userB primitive.ObjectID) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chat == nil {
		m.chat = &models.Chat{
			ID:           primitive.NewObjectID(),
			Participants: models.CanonicalParticipants(userA, userB),
			Messages:     []models.Message{},
			IsActive:     true,
		}
	}
	clone := *m.chat
	return &clone, nil
}

func (m *memChatRepo) GetByID(ctx context.Context, chatID primitive.ObjectID) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chat == nil || m.chat.ID != chatID {
		return nil, models.ErrNotFound
	}
	clone := *m.chat
	return &clone, nil
}

func (m *memChatRepo) ListForParticipant(ctx context.Context, userID primitive.ObjectID) ([]*models.Chat, error) {
	return nil, nil
}

func (m *memChatRepo) AppendMessage(ctx context.Context, chatID, senderID primitive.ObjectID, message models.Message) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chat == nil || m.chat.ID != chatID || !m.chat.HasParticipant(senderID) {
		return nil, models.ErrNotFound
	}
	m.chat.Messages = append(m.chat.Messages, message)
	clone := *m.chat
	return &clone, nil
}

func (m *memChatRepo) FindMessageByClientKey(ctx context.Context, chatID, senderID primitive.ObjectID, clientKey string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chat == nil || m.chat.ID != chatID {
		return nil, models.ErrNotFound
	}
	for i := range m.chat.Messages {
		msg := m.chat.Messages[i]
		if msg.SenderID == senderID && msg.ClientKey == clientKey {
			return &msg, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memChatRepo) MarkMessagesRead(ctx context.Context, chatID, readerID primitive.ObjectID) error {
	return nil
}

func (m *memChatRepo) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return 0, nil
}

type handlerFixture struct {
	users  *memUserRepo
	chats  *memChatRepo
	authUC *usecase.AuthUseCase
	server *httptest.Server
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	users := newMemUserRepo()
	chats := &memChatRepo{}
	conf := &config.Config{Auth: config.AuthConfig{
		JWTSecret: "handler-test-secret",
		TokenTTL:  time.Hour,
	}}

	authUC := usecase.NewAuthUseCase(users, conf)
	chatUC := usecase.NewChatUseCase(chats, users)
	table := NewTable()
	hub := NewHub(table)
	chatUC.AttachBroadcaster(hub)
	handler := NewHandler(hub, table, authUC, chatUC, users)

	e := echo.New()
	e.GET("/ws", handler.Serve)
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	return &handlerFixture{users: users, chats: chats, authUC: authUC, server: server}
}

func (f *handlerFixture) signup(t *testing.T, name string) *usecase.AuthResponse {
	t.Helper()
	resp, err := f.authUC.Signup(context.Background(), usecase.SignupRequest{
		Name:     name,
		Email:    name + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return resp
}

func (f *handlerFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) models.SocketEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event models.SocketEvent
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestHandlerAuthenticateFlow(t *testing.T) {
	f := newHandlerFixture(t)
	alice := f.signup(t, "alice")
	conn := f.dial(t)

	// a bad token reports auth_error and leaves the connection usable
	require.NoError(t, conn.WriteJSON(models.NewSocketEvent(models.EventAuthenticate, models.AuthenticatePayload{
		Token: "not-a-token",
	})))
	event := readEvent(t, conn)
	assert.Equal(t, models.EventAuthError, event.Name)

	require.NoError(t, conn.WriteJSON(models.NewSocketEvent(models.EventAuthenticate, models.AuthenticatePayload{
		Token: alice.Token,
	})))
	event = readEvent(t, conn)
	require.Equal(t, models.EventAuthenticated, event.Name)

	var payload models.AuthenticatedPayload
	require.NoError(t, event.DecodePayload(&payload))
	assert.Equal(t, alice.User.ID.Hex(), payload.UserID)
	assert.Equal(t, "alice", payload.Name)

	stored, err := f.users.GetByID(context.Background(), alice.User.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsOnline)
}

func TestHandlerRequiresAuthBeforeSending(t *testing.T) {
	f := newHandlerFixture(t)
	conn := f.dial(t)

	require.NoError(t, conn.WriteJSON(models.NewSocketEvent(models.EventSendMessage, models.SendMessagePayload{
		ChatID:  primitive.NewObjectID().Hex(),
		Content: "hi",
	})))

	event := readEvent(t, conn)
	require.Equal(t, models.EventError, event.Name)
	var payload models.ErrorPayload
	require.NoError(t, event.DecodePayload(&payload))
	assert.Equal(t, "authentication required", payload.Message)
}

func TestHandlerRejectsInvalidPayload(t *testing.T) {
	f := newHandlerFixture(t)
	alice := f.signup(t, "alice")
	bob := f.signup(t, "bob")

	chat, err := f.chats.FindOrCreate(context.Background(), alice.User.ID, bob.User.ID)
	require.NoError(t, err)

	conn := f.dial(t)
	require.NoError(t, conn.WriteJSON(models.NewSocketEvent(models.EventAuthenticate, models.AuthenticatePayload{
		Token: alice.Token,
	})))
	require.Equal(t, models.EventAuthenticated, readEvent(t, conn).Name)

	// a client key the REST layer would refuse is refused here too
	require.NoError(t, conn.WriteJSON(models.NewSocketEvent(models.EventSendMessage, models.SendMessagePayload{
		ChatID:    chat.ID.Hex(),
		Content:   "hello",
		ClientKey: "not-a-uuid",
	})))
	event := readEvent(t, conn)
	require.Equal(t, models.EventError, event.Name)

	var payload models.ErrorPayload
	require.NoError(t, event.DecodePayload(&payload))
	assert.Contains(t, payload.Message, "invalid payload")

	f.chats.mu.Lock()
	assert.Empty(t, f.chats.chat.Messages)
	f.chats.mu.Unlock()
}

func TestHandlerSendMessageEcho(t *testing.T) {
	f := newHandlerFixture(t)
	alice := f.signup(t, "alice")
	bob := f.signup(t, "bob")

	chat, err := f.chats.FindOrCreate(context.Background(), alice.User.ID, bob.User.ID)
	require.NoError(t, err)

	conn := f.dial(t)
	require.NoError(t, conn.WriteJSON(models.NewSocketEvent(models.EventAuthenticate, models.AuthenticatePayload{
		Token: alice.Token,
	})))
	require.Equal(t, models.EventAuthenticated, readEvent(t, conn).Name)

	require.NoError(t, conn.WriteJSON(models.NewSocketEvent(models.EventSendMessage, models.SendMessagePayload{
		ChatID:    chat.ID.Hex(),
		Content:   "hello bob",
		ClientKey: uuid.NewString(),
	})))

	event := readEvent(t, conn)
	require.Equal(t, models.EventMessageSent, event.Name)

	var payload models.MessageEventPayload
	require.NoError(t, event.DecodePayload(&payload))
	assert.Equal(t, chat.ID.Hex(), payload.ChatID)
	assert.Equal(t, "hello bob", payload.Content)
	assert.Equal(t, alice.User.ID, payload.SenderID)

	f.chats.mu.Lock()
	require.Len(t, f.chats.chat.Messages, 1)
	f.chats.mu.Unlock()
}
