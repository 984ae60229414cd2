package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"code.cloudfoundry.org/clock"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/i474232898/skypulse/internal/geocode"
	"github.com/i474232898/skypulse/internal/metrics"
	"github.com/i474232898/skypulse/internal/radar"
	"github.com/i474232898/skypulse/internal/store"
	"github.com/i474232898/skypulse/internal/weather"
)

var validate = validator.New()

// RadarSource supplies the radar frame manifest.
type RadarSource interface {
	Manifest(ctx context.Context) (radar.Manifest, error)
}

// Suggester serves debounced city suggestions.
type Suggester interface {
	Query(ctx context.Context, text string) ([]weather.Coordinates, error)
}

// Deps are the collaborators behind the routes. Radar and Metrics may be nil.
type Deps struct {
	Composer    *weather.Composer
	Session     *weather.Session
	Resolver    *geocode.Resolver
	Suggest     Suggester
	Radar       RadarSource
	Preferences *store.MemoryStore
	Metrics     *metrics.Registry
	Clock       clock.Clock
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	if d.Clock == nil {
		d.Clock = clock.NewClock()
	}
	h := &handlers{Deps: d}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "skypulse",
		})
	})
	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))
	}

	v1 := app.Group("/api/v1")

	v1.Get("/weather", h.weather)

	v1.Get("/session", h.getSession)
	v1.Put("/session", h.putSession)
	v1.Patch("/session/label", h.patchLabel)
	v1.Put("/session/units", h.putUnits)

	v1.Get("/geocode", h.geocode)
	v1.Get("/geocode/reverse", h.reverse)
	v1.Get("/geocode/suggest", h.suggest)
	v1.Get("/geocode/cache", h.cacheStats)
	v1.Delete("/geocode/cache", h.purgeCache)

	v1.Get("/radar/insight", h.radarInsight)
	v1.Get("/radar/frames", h.radarFrames)
	v1.Get("/radar/external", h.radarExternal)

	v1.Get("/preferences", h.getPreferences)
	v1.Put("/preferences", h.putPreferences)
	v1.Post("/preferences/locations", h.addLocation)
	v1.Delete("/preferences/locations/:name", h.removeLocation)
}

type handlers struct {
	Deps
}

// weatherResponse is a one-shot composition with its derived keys.
type weatherResponse struct {
	Weather *weather.Data   `json:"weather"`
	Derived weather.Derived `json:"derived"`
}

func (h *handlers) weather(c *fiber.Ctx) error {
	unit, err := weather.ParseUnit(c.Query("units"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	ctx := c.UserContext()

	var data *weather.Data
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		data, err = h.Composer.ComposeQuery(ctx, q, unit)
	} else {
		var coords weather.Coordinates
		if coords, err = parseLatLon(c); err != nil {
			return err
		}
		data, err = h.Composer.Compose(ctx, coords, unit)
	}
	if err != nil {
		return err
	}
	return c.JSON(weatherResponse{Weather: data, Derived: h.Composer.Derive(data)})
}

// sessionRequest selects the active location by coordinates or free-text query.
type sessionRequest struct {
	Lat   *float64 `json:"lat" validate:"required_without=Query"`
	Lon   *float64 `json:"lon" validate:"required_with=Lat"`
	Query string   `json:"query" validate:"required_without=Lat,max=200"`
	Units string   `json:"units" validate:"omitempty,oneof=metric imperial C F celsius fahrenheit"`
	Label string   `json:"label" validate:"max=120"`
}

func (h *handlers) putSession(c *fiber.Ctx) error {
	var req sessionRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	unit := h.Preferences.Unit()
	if req.Units != "" {
		unit, _ = weather.ParseUnit(req.Units)
	}

	var coords weather.Coordinates
	if req.Lat != nil {
		coords = weather.Coordinates{Lat: *req.Lat, Lon: *req.Lon}
	} else {
		found, ok := h.Resolver.Coordinates(c.UserContext(), req.Query)
		if !ok {
			return weather.ErrLocationNotFound
		}
		coords = *found
	}

	snap, err := h.Session.Refresh(c.UserContext(), coords, unit)
	if err != nil {
		return err
	}
	h.Preferences.SetUnit(unit)
	if req.Label != "" {
		h.Session.SetLocationLabel(req.Label)
		snap, _ = h.Session.Snapshot()
	}
	return c.JSON(snap)
}

func (h *handlers) getSession(c *fiber.Ctx) error {
	snap, lastErr := h.Session.Snapshot()
	if snap == nil {
		if lastErr != nil {
			return lastErr
		}
		return weather.ErrNoSession
	}
	if lastErr != nil {
		c.Set("X-Last-Error", lastErr.Error())
	}
	return c.JSON(snap)
}

type labelRequest struct {
	Label string `json:"label" validate:"required,max=120"`
}

func (h *handlers) patchLabel(c *fiber.Ctx) error {
	var req labelRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if coords, _ := h.Session.Active(); coords == nil {
		return weather.ErrNoSession
	}
	h.Session.SetLocationLabel(req.Label)
	snap, _ := h.Session.Snapshot()
	if snap == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(snap)
}

type unitsRequest struct {
	Units string `json:"units" validate:"required,oneof=metric imperial C F celsius fahrenheit"`
}

func (h *handlers) putUnits(c *fiber.Ctx) error {
	var req unitsRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	unit, _ := weather.ParseUnit(req.Units)
	h.Preferences.SetUnit(unit)

	snap, err := h.Session.SetUnit(c.UserContext(), unit)
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

func (h *handlers) geocode(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return fiber.NewError(fiber.StatusBadRequest, "q query parameter is required")
	}
	found, ok := h.Resolver.Coordinates(c.UserContext(), q)
	if !ok {
		return weather.ErrLocationNotFound
	}
	return c.JSON(found)
}

func (h *handlers) reverse(c *fiber.Ctx) error {
	coords, err := parseLatLon(c)
	if err != nil {
		return err
	}
	found, ok := h.Resolver.CityFromCoordinates(c.UserContext(), coords.Lat, coords.Lon)
	if !ok {
		return weather.ErrLocationNotFound
	}
	return c.JSON(found)
}

func (h *handlers) suggest(c *fiber.Ctx) error {
	results, err := h.Suggest.Query(c.UserContext(), c.Query("q"))
	if errors.Is(err, context.Canceled) {
		return fiber.NewError(fiber.StatusConflict, "superseded by a newer query")
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"suggestions": results})
}

func (h *handlers) cacheStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"entries": h.Resolver.CacheSize(c.UserContext())})
}

func (h *handlers) purgeCache(c *fiber.Ctx) error {
	h.Resolver.PurgeCache(c.UserContext())
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) radarInsight(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"keys": h.Session.RadarKeys()})
}

type frameResponse struct {
	Time    int64  `json:"time"`
	TileURL string `json:"tileUrl"`
}

type tileQuery struct {
	Z      int `query:"z" validate:"gte=0,lte=12"`
	X      int `query:"x" validate:"gte=0"`
	Y      int `query:"y" validate:"gte=0"`
	Color  int `query:"color" validate:"gte=0,lte=8"`
	Smooth int `query:"smooth" validate:"oneof=0 1"`
}

func (h *handlers) radarFrames(c *fiber.Ctx) error {
	if h.Radar == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "radar source not configured")
	}
	q := tileQuery{Z: 2, X: 1, Y: 1, Color: 1, Smooth: 1}
	if err := c.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	manifest, err := h.Radar.Manifest(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	frames := radar.FramesLastHour(manifest.Timestamps(), h.Clock.Now())
	out := make([]frameResponse, 0, len(frames))
	for _, ts := range frames {
		out = append(out, frameResponse{Time: ts, TileURL: radar.TileURL(ts, q.Z, q.X, q.Y, q.Color, q.Smooth)})
	}
	resp := fiber.Map{"frames": out}
	if latest, ok := manifest.Latest(); ok {
		resp["latest"] = latest
	}
	return c.JSON(resp)
}

func (h *handlers) radarExternal(c *fiber.Ctx) error {
	coords, _ := h.Session.Active()
	return c.JSON(fiber.Map{
		"url":            radar.ExternalURL(coords),
		"openExternally": h.Preferences.RadarOpenExternally(),
	})
}

func (h *handlers) getPreferences(c *fiber.Ctx) error {
	return c.JSON(h.Preferences.Snapshot())
}

func (h *handlers) putPreferences(c *fiber.Ctx) error {
	var req store.Update
	if err := bindBody(c, &req); err != nil {
		return err
	}
	prefs, err := h.Preferences.Apply(req)
	if err != nil {
		return err
	}
	return c.JSON(prefs)
}

type locationRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

func (h *handlers) addLocation(c *fiber.Ctx) error {
	var req locationRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if err := h.Preferences.AddSavedLocation(req.Name); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(h.Preferences.Snapshot())
}

func (h *handlers) removeLocation(c *fiber.Ctx) error {
	if err := h.Preferences.RemoveSavedLocation(c.Params("name")); err != nil {
		return err
	}
	return c.JSON(h.Preferences.Snapshot())
}

func parseLatLon(c *fiber.Ctx) (weather.Coordinates, error) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" || lonStr == "" {
		return weather.Coordinates{}, fiber.NewError(fiber.StatusBadRequest, "either q or lat and lon query parameters are required")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return weather.Coordinates{}, fiber.NewError(fiber.StatusBadRequest, "invalid lat")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return weather.Coordinates{}, fiber.NewError(fiber.StatusBadRequest, "invalid lon")
	}
	return weather.Coordinates{Lat: lat, Lon: lon}, nil
}

func bindBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
