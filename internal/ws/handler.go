package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillswap/skillswap/internal/models"
	"github.com/skillswap/skillswap/internal/server/middleware"
	"github.com/skillswap/skillswap/internal/usecase"
)

// StatusStore persists the durable side of presence. The user
// repository implements it.
type StatusStore interface {
	SetOnline(ctx context.Context, userID string, online bool) error
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browser clients connect from the app origin; cross-origin policy
	// is enforced by the CORS layer on the REST side.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades websocket sessions and drives their event protocol:
// authenticate first, then chat traffic until disconnect.
type Handler struct {
	hub      *Hub
	table    *Table
	authUC   *usecase.AuthUseCase
	chatUC   *usecase.ChatUseCase
	status   StatusStore
	validate *middleware.Validator

	// names remembers the display name per authenticated connection so
	// the offline announcement can carry it after the session is gone.
	names sync.Map
}

func NewHandler(hub *Hub, table *Table, authUC *usecase.AuthUseCase, chatUC *usecase.ChatUseCase, status StatusStore) *Handler {
	return &Handler{
		hub:      hub,
		table:    table,
		authUC:   authUC,
		chatUC:   chatUC,
		status:   status,
		validate: middleware.NewValidator(),
	}
}

func (h *Handler) Serve(c echo.Context) error {
	socket, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	conn := newClient(uuid.NewString(), socket)
	h.hub.Register(conn)
	go conn.writePump()

	log.Debugw(ctx, "websocket connected", "conn_id", conn.ID())

	conn.readLoop(func(event models.SocketEvent) {
		h.dispatch(ctx, conn, event)
	})

	h.drop(conn)
	return nil
}

// drop tears a connection down and, when it was the user's live one,
// flips the user offline and announces it.
func (h *Handler) drop(conn *client) {
	ctx := context.Background()
	conn.Close()

	userID, wentOffline := h.hub.Unregister(conn.ID())
	name, _ := h.names.LoadAndDelete(conn.ID())
	if !wentOffline {
		return
	}

	if err := h.status.SetOnline(ctx, userID, false); err != nil {
		log.Warnw(ctx, "failed to persist offline status", "user_id", userID, "error", err)
	}

	payload := models.PresenceEventPayload{UserID: userID}
	if s, ok := name.(string); ok {
		payload.Name = s
	}
	h.hub.Broadcast(models.NewSocketEvent(models.EventUserOffline, payload), "")
	log.Debugw(ctx, "websocket disconnected", "conn_id", conn.ID(), "user_id", userID)
}

func (h *Handler) dispatch(ctx context.Context, conn *client, event models.SocketEvent) {
	switch event.Name {
	case models.EventAuthenticate:
		h.handleAuthenticate(ctx, conn, event)
	case models.EventSendMessage:
		h.handleSendMessage(ctx, conn, event)
	case models.EventTypingStart:
		h.handleTyping(ctx, conn, event, true)
	case models.EventTypingStop:
		h.handleTyping(ctx, conn, event, false)
	default:
		h.sendError(conn, "unknown event "+event.Name)
	}
}

// decodePayload unmarshals an event payload and runs the same struct
// validation the REST layer applies, so a body rejected over HTTP is
// rejected over the socket too.
func (h *Handler) decodePayload(event models.SocketEvent, out any) error {
	if err := event.DecodePayload(out); err != nil {
		return err
	}
	if err := h.validate.Validate(out); err != nil {
		return models.Validationf("invalid payload for %q event", event.Name)
	}
	return nil
}

// handleAuthenticate validates the token and binds the connection. A
// failed attempt reports auth_error and leaves the connection open and
// unauthenticated; presence is untouched.
func (h *Handler) handleAuthenticate(ctx context.Context, conn *client, event models.SocketEvent) {
	var payload models.AuthenticatePayload
	if err := h.decodePayload(event, &payload); err != nil {
		conn.Send(models.NewSocketEvent(models.EventAuthError, models.ErrorPayload{
			Message: "authentication token is required",
		}))
		return
	}

	user, err := h.authUC.ValidateToken(ctx, payload.Token)
	if err != nil {
		conn.Send(models.NewSocketEvent(models.EventAuthError, models.ErrorPayload{
			Message: "invalid authentication token",
		}))
		return
	}

	userID := user.ID.Hex()
	h.hub.Associate(ctx, userID, conn.ID())
	h.names.Store(conn.ID(), user.Name)

	if err := h.status.SetOnline(ctx, userID, true); err != nil {
		log.Warnw(ctx, "failed to persist online status", "user_id", userID, "error", err)
	}

	conn.Send(models.NewSocketEvent(models.EventAuthenticated, models.AuthenticatedPayload{
		UserID: userID,
		Name:   user.Name,
	}))
	h.hub.Broadcast(models.NewSocketEvent(models.EventUserOnline, models.PresenceEventPayload{
		UserID: userID,
		Name:   user.Name,
	}), conn.ID())

	log.Infow(ctx, "websocket authenticated", "conn_id", conn.ID(), "user_id", userID)
}

func (h *Handler) handleSendMessage(ctx context.Context, conn *client, event models.SocketEvent) {
	senderID, ok := h.authedUser(conn)
	if !ok {
		return
	}

	var payload models.SendMessagePayload
	if err := h.decodePayload(event, &payload); err != nil {
		h.sendError(conn, userFacingError(err))
		return
	}
	chatID, err := primitive.ObjectIDFromHex(payload.ChatID)
	if err != nil {
		h.sendError(conn, "invalid chat id")
		return
	}

	messageType := models.MessageType(payload.MessageType)
	if messageType == "" {
		messageType = models.MessageText
	}

	_, err = h.chatUC.SendMessage(ctx, usecase.SendMessageParams{
		ChatID:       chatID,
		SenderID:     senderID,
		Content:      payload.Content,
		Type:         messageType,
		ClientKey:    payload.ClientKey,
		OriginConnID: conn.ID(),
	})
	if err != nil {
		h.sendError(conn, userFacingError(err))
	}
}

func (h *Handler) handleTyping(ctx context.Context, conn *client, event models.SocketEvent, typing bool) {
	userID, ok := h.authedUser(conn)
	if !ok {
		return
	}

	var payload models.TypingPayload
	if err := h.decodePayload(event, &payload); err != nil {
		h.sendError(conn, userFacingError(err))
		return
	}
	chatID, err := primitive.ObjectIDFromHex(payload.ChatID)
	if err != nil {
		h.sendError(conn, "invalid chat id")
		return
	}

	if err := h.chatUC.MarkTyping(ctx, userID, chatID, typing); err != nil {
		h.sendError(conn, userFacingError(err))
	}
}

// authedUser resolves the user bound to a connection, reporting an
// error event when the connection never authenticated.
func (h *Handler) authedUser(conn *client) (primitive.ObjectID, bool) {
	userHex, ok := h.table.Resolve(conn.ID())
	if !ok {
		h.sendError(conn, "authentication required")
		return primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(userHex)
	if err != nil {
		h.sendError(conn, "authentication required")
		return primitive.NilObjectID, false
	}
	return userID, true
}

func (h *Handler) sendError(conn *client, message string) {
	conn.Send(models.NewSocketEvent(models.EventError, models.ErrorPayload{Message: message}))
}

// userFacingError keeps taxonomy messages and hides everything else.
func userFacingError(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}
