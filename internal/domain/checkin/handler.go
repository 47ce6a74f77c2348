package checkin

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler exposes the kiosk-facing check-in endpoint.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(kiosk *echo.Group) {
	kiosk.POST("/checkin", h.CheckIn)
}

// CheckInRequest is the inbound match request from the kiosk.
type CheckInRequest struct {
	Phone    string `json:"phone"`
	LastName string `json:"last_name"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (h *Handler) CheckIn(c echo.Context) error {
	var req CheckInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Phone == "" || req.LastName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "phone and last_name are required")
	}

	res, err := h.svc.CheckIn(c.Request().Context(), req.Phone, req.LastName)
	if err != nil {
		kind, ok := KindOf(err)
		if !ok {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(statusFor(kind), errorBody{Error: errorDetail{Kind: kind, Message: err.Error()}})
	}
	return c.JSON(http.StatusOK, res)
}

func statusFor(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyCheckedIn:
		return http.StatusConflict
	case KindTooEarly, KindTooLate, KindInvalidDate:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusServiceUnavailable
	}
}
