package appointment

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lindseystead/foodbank-checkin-portfolio-sub001/internal/platform/scheduling"
	"github.com/lindseystead/foodbank-checkin-portfolio-sub001/pkg/pagination"
)

// Handler exposes the admin record endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/records", h.ListRecords)
	admin.GET("/records/:id", h.GetRecord)
	admin.POST("/records", h.CreateRecord)
	admin.PUT("/records/:id/status", h.UpdateStatus)
	admin.DELETE("/records/:id", h.DeleteRecord)
	admin.POST("/records/:id/reschedule", h.Reschedule)
	admin.POST("/import", h.Import)
	admin.GET("/export", h.Export)
	admin.GET("/version", h.DataVersion)
}

func (h *Handler) ListRecords(c echo.Context) error {
	pg := pagination.FromContext(c)

	var (
		recs []*Record
		err  error
	)
	if c.QueryParam("scope") == "all" {
		recs, err = h.svc.ListAll(c.Request().Context())
	} else {
		recs, err = h.svc.ListToday(c.Request().Context())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	total := len(recs)
	recs = pagination.Page(recs, pg.Limit, pg.Offset)
	return c.JSON(http.StatusOK, pagination.NewResponse(recs, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetRecord(c echo.Context) error {
	rec, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) CreateRecord(c echo.Context) error {
	var rec Record
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, rec)
}

// StatusRequest is an admin status edit.
type StatusRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "record not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "record not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// RescheduleRequest moves an appointment to a new slot.
type RescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func (h *Handler) Reschedule(c echo.Context) error {
	var req RescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.Reschedule(c.Request().Context(), c.Param("id"), req.Date, req.Time)
	if err != nil {
		switch {
		case errors.Is(err, ErrRecordNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "record not found")
		case errors.Is(err, scheduling.ErrInvalidDate):
			return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
				"error": map[string]string{"kind": "invalid_date", "message": err.Error()},
			})
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) Import(c echo.Context) error {
	body := c.Request().Body
	// Admin panels upload as multipart; curl-style clients post the raw CSV.
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		defer f.Close()
		body = f
	}

	res, err := h.svc.Import(c.Request().Context(), body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Export(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="records.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return h.svc.Export(c.Request().Context(), c.Response())
}

func (h *Handler) DataVersion(c echo.Context) error {
	v, err := h.svc.DataVersion(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]uint64{"version": v})
}
