package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillswap/skillswap/internal/repo/mongodb"
	"github.com/skillswap/skillswap/internal/server/middleware"
	"github.com/skillswap/skillswap/internal/usecase"
)

type SkillController interface {
	ListOffers(c echo.Context) error
	GetOffer(c echo.Context) error
	CreateOffer(c echo.Context) error
	ReceivedRequests(c echo.Context) error
	RequestSkill(c echo.Context) error
	UpdateRequestStatus(c echo.Context) error
}

type skillController struct {
	skillUsecase *usecase.SkillUseCase
}

func NewSkillController(skillUsecase *usecase.SkillUseCase) SkillController {
	return &skillController{
		skillUsecase: skillUsecase,
	}
}

func (sc *skillController) ListOffers(c echo.Context) error {
	filter := mongodb.OfferFilter{
		Category:     c.QueryParam("category"),
		Level:        c.QueryParam("level"),
		Availability: c.QueryParam("availability"),
	}

	offers, err := sc.skillUsecase.ListOffers(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, offers)
}

func (sc *skillController) GetOffer(c echo.Context) error {
	offerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid offer id")
	}

	offer, err := sc.skillUsecase.GetOffer(c.Request().Context(), offerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, offer)
}

func (sc *skillController) CreateOffer(c echo.Context) error {
	user := middleware.GetUser(c)

	var req usecase.CreateOfferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	offer, err := sc.skillUsecase.CreateOffer(c.Request().Context(), user.ID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, offer)
}

func (sc *skillController) ReceivedRequests(c echo.Context) error {
	user := middleware.GetUser(c)

	received, err := sc.skillUsecase.ReceivedRequests(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, received)
}

func (sc *skillController) RequestSkill(c echo.Context) error {
	user := middleware.GetUser(c)

	offerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid offer id")
	}

	var req usecase.RequestSkillRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	request, err := sc.skillUsecase.RequestSkill(c.Request().Context(), user.ID, offerID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, request)
}

func (sc *skillController) UpdateRequestStatus(c echo.Context) error {
	user := middleware.GetUser(c)

	offerID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid offer id")
	}
	requestID, err := primitive.ObjectIDFromHex(c.Param("reqID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}

	var req usecase.UpdateRequestStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	request, err := sc.skillUsecase.UpdateRequestStatus(c.Request().Context(), user.ID, offerID, requestID, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, request)
}
