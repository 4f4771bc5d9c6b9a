package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skillswap/skillswap/internal/usecase"
)

type AuthController interface {
	Signup(c echo.Context) error
	Login(c echo.Context) error
}

type authController struct {
	authUsecase *usecase.AuthUseCase
}

func NewAuthController(authUsecase *usecase.AuthUseCase) AuthController {
	return &authController{
		authUsecase: authUsecase,
	}
}

func (ac *authController) Signup(c echo.Context) error {
	var req usecase.SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	response, err := ac.authUsecase.Signup(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, response)
}

func (ac *authController) Login(c echo.Context) error {
	var req usecase.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	response, err := ac.authUsecase.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, response)
}
