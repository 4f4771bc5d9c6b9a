package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillswap/skillswap/internal/models"
	"github.com/skillswap/skillswap/internal/repo/mongodb"
	"github.com/skillswap/skillswap/internal/server/middleware"
	"github.com/skillswap/skillswap/internal/usecase"
)

type UserController interface {
	GetProfile(c echo.Context) error
	UpdateProfile(c echo.Context) error
	Search(c echo.Context) error
	ListOnline(c echo.Context) error
	GetByID(c echo.Context) error
	SetOnlineStatus(c echo.Context) error
	Rate(c echo.Context) error
}

type ProfileUpdateRequest struct {
	Name          *string               `json:"name"`
	Location      *string               `json:"location"`
	Bio           *string               `json:"bio"`
	Avatar        *string               `json:"avatar"`
	SkillsOffered []models.Skill        `json:"skills_offered"`
	SkillsWanted  []models.Skill        `json:"skills_wanted"`
	Availability  []models.Availability `json:"availability" validate:"omitempty,dive,oneof=weekdays weekends evenings mornings flexible"`
	Preferences   *models.Preferences   `json:"preferences"`
}

type OnlineStatusRequest struct {
	IsOnline *bool `json:"is_online" validate:"required"`
}

type RateRequest struct {
	Rating float64 `json:"rating" validate:"required"`
}

type userController struct {
	userUsecase *usecase.UserUseCase
}

func NewUserController(userUsecase *usecase.UserUseCase) UserController {
	return &userController{
		userUsecase: userUsecase,
	}
}

func (uc *userController) GetProfile(c echo.Context) error {
	user := middleware.GetUser(c)
	return c.JSON(http.StatusOK, user)
}

func (uc *userController) UpdateProfile(c echo.Context) error {
	user := middleware.GetUser(c)

	var req ProfileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := uc.userUsecase.UpdateProfile(c.Request().Context(), user.ID, mongodb.ProfileUpdate{
		Name:          req.Name,
		Location:      req.Location,
		Bio:           req.Bio,
		Avatar:        req.Avatar,
		SkillsOffered: req.SkillsOffered,
		SkillsWanted:  req.SkillsWanted,
		Availability:  req.Availability,
		Preferences:   req.Preferences,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (uc *userController) Search(c echo.Context) error {
	params := mongodb.SearchParams{
		Query:        c.QueryParam("q"),
		Skill:        c.QueryParam("skill"),
		Location:     c.QueryParam("location"),
		Availability: c.QueryParam("availability"),
	}

	users, err := uc.userUsecase.Search(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (uc *userController) ListOnline(c echo.Context) error {
	users, err := uc.userUsecase.ListOnline(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (uc *userController) GetByID(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	user, err := uc.userUsecase.GetProfile(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (uc *userController) SetOnlineStatus(c echo.Context) error {
	user := middleware.GetUser(c)

	var req OnlineStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := uc.userUsecase.SetOnlineStatus(c.Request().Context(), user.ID, *req.IsOnline); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"is_online": *req.IsOnline})
}

func (uc *userController) Rate(c echo.Context) error {
	rater := middleware.GetUser(c)

	targetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var req RateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := uc.userUsecase.Rate(c.Request().Context(), rater.ID, targetID, req.Rating)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}
