package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/meteolab/weather-forecast-service/internal/weather"
)

var validate = validator.New()

// ErrorHandler is the app-wide fiber error handler. Every error response is a
// JSON object with a single "error" string field.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := err.Error()
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		msg = e.Message
	}
	return c.Status(code).JSON(fiber.Map{
		"error": msg,
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	api := app.Group("/api/weather")

	api.Get("/current", handleCurrent(service))
	api.Get("/forecast", handleForecast(service))
	api.Get("/history", handleHistory(service))
	api.Get("/cities", handleCities(service))
	api.Post("/alerts", handleAlerts(service))
}

func handleCurrent(service *weather.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		city, err := requireCityQuery(c)
		if err != nil {
			return err
		}

		rec, err := service.Current(c.UserContext(), city)
		if err != nil {
			return mapServiceError(err)
		}
		return c.JSON(rec)
	}
}

func handleForecast(service *weather.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		city, err := requireCityQuery(c)
		if err != nil {
			return err
		}

		rec, err := service.Forecast(c.UserContext(), city)
		if err != nil {
			return mapServiceError(err)
		}
		return c.JSON(rec)
	}
}

func handleHistory(service *weather.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		city, err := requireCityQuery(c)
		if err != nil {
			return err
		}

		// Unparseable or absent limits fall back to the service default.
		limit := int64(c.QueryInt("limit", 0))

		result, err := service.History(c.UserContext(), city, limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(result)
	}
}

func handleCities(service *weather.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		summaries := service.PopularCities(c.UserContext())
		return c.JSON(fiber.Map{
			"cities": summaries,
		})
	}
}

// alertsRequest is the alerts endpoint body. Email is accepted for future
// alert delivery and currently unused beyond format validation.
type alertsRequest struct {
	City  string `json:"city" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

func handleAlerts(service *weather.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req alertsRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if err := validate.Struct(req); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && verrs[0].Field() == "City" {
				return fiber.NewError(fiber.StatusBadRequest, "City is required")
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.AlertReport(c.UserContext(), req.City)
		if err != nil {
			var upErr *weather.UpstreamError
			if errors.As(err, &upErr) && upErr.StatusCode == fiber.StatusNotFound {
				return fiber.NewError(fiber.StatusNotFound, "City not found")
			}
			return mapServiceError(err)
		}
		return c.JSON(report)
	}
}

// cityQuery holds the common city query parameter.
type cityQuery struct {
	City string `validate:"required"`
}

func requireCityQuery(c *fiber.Ctx) (string, error) {
	q := cityQuery{City: c.Query("city")}
	if err := validate.Struct(q); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "City parameter is required")
	}
	return q.City, nil
}

// mapServiceError translates orchestrator errors into the HTTP taxonomy:
// validation 400, missing credential 500 (generic message), provider-reported
// failures passed through with their status, everything else 500.
func mapServiceError(err error) error {
	var upErr *weather.UpstreamError
	switch {
	case errors.As(err, &upErr):
		return fiber.NewError(upErr.StatusCode, upErr.Message)
	case errors.Is(err, weather.ErrNoAPIKey):
		return fiber.NewError(fiber.StatusInternalServerError, "API key not configured")
	case errors.Is(err, weather.ErrEmptyCity):
		return fiber.NewError(fiber.StatusBadRequest, "City parameter is required")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
