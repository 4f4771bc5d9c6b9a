package server

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/carousell/ct-go/pkg/logger"
	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/labstack/echo/v4"
	echomdw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"

	"github.com/skillswap/skillswap/internal/config"
	pkgmdw "github.com/skillswap/skillswap/internal/server/middleware"
	"github.com/skillswap/skillswap/internal/usecase"
	"github.com/skillswap/skillswap/internal/ws"
)

type Controllers struct {
	fx.In

	Health HealthController
	Auth   AuthController
	User   UserController
	Skill  SkillController
	Chat   ChatController
	Socket *ws.Handler
}

func StartServer(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	authUsecase *usecase.AuthUseCase,
	ctrl Controllers,
) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = pkgmdw.NewValidator()
	e.HTTPErrorHandler = errorHandler()

	logConfig := pkgmdw.LogRequestConfig{
		Logger: logger.MustNamed("http"),
		Enabled: func(c echo.Context) bool {
			uri := c.Request().RequestURI
			return uri != "/health" && uri != "/metrics" && uri != "/ws"
		},
		RequestBody: func(c echo.Context) bool {
			// credentials never reach the log
			uri := c.Request().RequestURI
			return uri != "/api/login" && uri != "/api/signup"
		},
	}

	e.Use(pkgmdw.Metrics())
	e.Use(pkgmdw.RequestID())
	e.Use(pkgmdw.CORS(regexp.MustCompile(conf.Server.CORSOrigins)))
	e.Use(pkgmdw.LogRequest(logConfig))
	e.Use(echomdw.RecoverWithConfig(echomdw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Errorw(c.Request().Context(), "PANIC RECOVER", "error", err, "stack", string(stack))
			return nil
		},
	}))

	e.GET("/health", ctrl.Health.Health)
	e.GET("/ws", ctrl.Socket.Serve)

	auth := pkgmdw.JWTAuth(authUsecase)
	api := e.Group("/api")

	api.POST("/signup", ctrl.Auth.Signup)
	api.POST("/login", ctrl.Auth.Login)

	users := api.Group("/users")
	users.GET("/profile", ctrl.User.GetProfile, auth)
	users.PUT("/profile", ctrl.User.UpdateProfile, auth)
	users.GET("/search", ctrl.User.Search)
	users.GET("/online", ctrl.User.ListOnline)
	users.PUT("/online-status", ctrl.User.SetOnlineStatus, auth)
	users.POST("/:id/rate", ctrl.User.Rate, auth)
	users.GET("/:id", ctrl.User.GetByID)

	skills := api.Group("/skills")
	skills.GET("", ctrl.Skill.ListOffers)
	skills.POST("", ctrl.Skill.CreateOffer, auth)
	skills.GET("/requests/received", ctrl.Skill.ReceivedRequests, auth)
	skills.GET("/:id", ctrl.Skill.GetOffer)
	skills.POST("/:id/request", ctrl.Skill.RequestSkill, auth)
	skills.PUT("/:id/request/:reqID", ctrl.Skill.UpdateRequestStatus, auth)

	chats := api.Group("/chats", auth)
	chats.GET("", ctrl.Chat.ListChats)
	chats.POST("/start", ctrl.Chat.StartChat)
	chats.GET("/unread/count", ctrl.Chat.UnreadCount)
	chats.GET("/:id", ctrl.Chat.GetChat)
	chats.POST("/:id/messages", ctrl.Chat.SendMessage)
	chats.PUT("/:id/read", ctrl.Chat.MarkRead)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Infow(ctx, "starting HTTP server", "addr", conf.Server.Addr())
				if err := e.Start(conf.Server.Addr()); !errors.Is(err, http.ErrServerClosed) {
					sd.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}
