package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillswap/skillswap/internal/models"
	"github.com/skillswap/skillswap/internal/server/middleware"
	"github.com/skillswap/skillswap/internal/usecase"
)

type ChatController interface {
	ListChats(c echo.Context) error
	GetChat(c echo.Context) error
	StartChat(c echo.Context) error
	SendMessage(c echo.Context) error
	MarkRead(c echo.Context) error
	UnreadCount(c echo.Context) error
}

// SendMessageRequest mirrors the socket send_message payload so clients
// can fall back to REST with the same idempotency key.
type SendMessageRequest struct {
	Content     string `json:"content" validate:"required"`
	MessageType string `json:"message_type" validate:"omitempty,oneof=text"`
	ClientKey   string `json:"client_key" validate:"omitempty,uuid4"`
}

type chatController struct {
	chatUsecase *usecase.ChatUseCase
}

func NewChatController(chatUsecase *usecase.ChatUseCase) ChatController {
	return &chatController{
		chatUsecase: chatUsecase,
	}
}

func (cc *chatController) ListChats(c echo.Context) error {
	user := middleware.GetUser(c)

	chats, err := cc.chatUsecase.GetUserChats(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, chats)
}

func (cc *chatController) GetChat(c echo.Context) error {
	user := middleware.GetUser(c)

	chatID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid chat id")
	}

	chat, err := cc.chatUsecase.GetChat(c.Request().Context(), user.ID, chatID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, chat)
}

func (cc *chatController) StartChat(c echo.Context) error {
	user := middleware.GetUser(c)

	var req usecase.StartChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	chat, err := cc.chatUsecase.StartChat(c.Request().Context(), user.ID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, chat)
}

func (cc *chatController) SendMessage(c echo.Context) error {
	user := middleware.GetUser(c)

	chatID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid chat id")
	}

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	messageType := models.MessageType(req.MessageType)
	if messageType == "" {
		messageType = models.MessageText
	}

	message, err := cc.chatUsecase.SendMessage(c.Request().Context(), usecase.SendMessageParams{
		ChatID:    chatID,
		SenderID:  user.ID,
		Content:   req.Content,
		Type:      messageType,
		ClientKey: req.ClientKey,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, message)
}

func (cc *chatController) MarkRead(c echo.Context) error {
	user := middleware.GetUser(c)

	chatID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid chat id")
	}

	if err := cc.chatUsecase.MarkRead(c.Request().Context(), user.ID, chatID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "read"})
}

func (cc *chatController) UnreadCount(c echo.Context) error {
	user := middleware.GetUser(c)

	count, err := cc.chatUsecase.UnreadCount(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"unread": count})
}
