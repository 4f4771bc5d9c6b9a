package app

import (
	"github.com/carousell/ct-go/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"

	"github.com/skillswap/skillswap/internal/config"
	"github.com/skillswap/skillswap/internal/repo/mongodb"
	"github.com/skillswap/skillswap/internal/server"
	"github.com/skillswap/skillswap/internal/usecase"
	"github.com/skillswap/skillswap/internal/ws"
)

func Invoke(funcs ...any) *fx.App {
	log := logger.MustNamed("app")
	conf := config.MustLoad()
	log.Debugw("config loaded", log.Reflect("config", conf))
	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: log.Unwrap().Desugar(),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Provide(
			newMongoDB,

			server.NewHealthController,
			server.NewAuthController,
			server.NewUserController,
			server.NewSkillController,
			server.NewChatController,

			usecase.NewAuthUseCase,
			usecase.NewUserUseCase,
			usecase.NewSkillUseCase,
			usecase.NewChatUseCase,

			mongodb.NewUserRepository,
			mongodb.NewSkillOfferRepository,
			mongodb.NewChatRepository,

			ws.NewTable,
			ws.NewHub,
			newSocketHandler,
		),
		fx.Supply(conf),
		fx.Invoke(attachBroadcaster),
		fx.Invoke(funcs...),
	)
}

// attachBroadcaster closes the loop between the chat use case and the
// websocket hub after both exist.
func attachBroadcaster(chatUC *usecase.ChatUseCase, hub *ws.Hub) {
	chatUC.AttachBroadcaster(hub)
}

func newSocketHandler(
	hub *ws.Hub,
	table *ws.Table,
	authUC *usecase.AuthUseCase,
	chatUC *usecase.ChatUseCase,
	userRepo mongodb.UserRepository,
) *ws.Handler {
	return ws.NewHandler(hub, table, authUC, chatUC, userRepo)
}
