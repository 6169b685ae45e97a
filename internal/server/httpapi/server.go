// Package httpapi exposes the Chronica HTTP API handlers.
package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/chronica-app/chronica/internal/errs"
	"github.com/chronica-app/chronica/internal/geocode"
	"github.com/chronica-app/chronica/internal/media"
	"github.com/chronica-app/chronica/internal/model"
	"github.com/chronica-app/chronica/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	auth    service.AuthService
	entries service.EntryService
	audio   *media.AudioStore
	geocode geocode.Resolver
	signKey []byte
	log     *zap.Logger
}

// New constructs a server with injected services.
func New(auth service.AuthService, entries service.EntryService, audio *media.AudioStore,
	g geocode.Resolver, signKey []byte, log *zap.Logger) *Server {
	return &Server{auth: auth, entries: entries, audio: audio, geocode: g, signKey: signKey, log: log}
}

// Register attaches all endpoints to the app.
func (s *Server) Register(app *fiber.App) {
	app.Use(Recover(s.log))
	app.Use(Logging(s.log))

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })

	api := app.Group("/api")
	api.Post("/auth/register", s.handleRegister)
	api.Post("/auth/login", s.handleLogin)

	authed := api.Group("", AuthRequired(s.signKey))
	authed.Get("/entries", s.handleListEntries)
	authed.Post("/entries", s.handleCreateEntry)
	authed.Get("/entries/:id", s.handleGetEntry)
	authed.Patch("/entries/:id", s.handleUpdateEntry)
	authed.Delete("/entries/:id", s.handleDeleteEntry)
	authed.Get("/entries/:id/audio", s.handleGetAudio)
	authed.Get("/map/entries", s.handleMapEntries)
	authed.Post("/locate", s.handleLocate)
}

// errorResp is the JSON error envelope shared by all endpoints.
type errorResp struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func badReq(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorResp{OK: false, Error: msg})
}

// fail maps sentinel errors onto stable HTTP statuses.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, errs.ErrImageTooLarge):
		status = fiber.StatusRequestEntityTooLarge
	case errors.Is(err, errs.ErrUnauthorized):
		status = fiber.StatusUnauthorized
	case errors.Is(err, errs.ErrRateLimited):
		status = fiber.StatusTooManyRequests
	case errors.Is(err, errs.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, errs.ErrAlreadyExists):
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(errorResp{OK: false, Error: err.Error()})
}

// entryJSON mirrors the persisted document shape.
type entryJSON struct {
	ID            string  `json:"id"`
	UserID        string  `json:"userId"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	Date          string  `json:"date"`
	Location      string  `json:"location"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Timestamp     int64   `json:"timestamp"`
	ImageBase64   string  `json:"imageBase64,omitempty"`
	AudioFileName string  `json:"audioFileName,omitempty"`
}

func toEntryJSON(e *model.Entry) entryJSON {
	out := entryJSON{
		ID:            e.ID.String(),
		UserID:        e.UserID.String(),
		Title:         e.Title,
		Content:       e.Content,
		Date:          e.Date,
		Location:      e.Location,
		Timestamp:     e.Timestamp,
		ImageBase64:   e.ImageBase64,
		AudioFileName: e.AudioFileName,
	}
	if e.Geo != nil {
		out.Latitude = e.Geo.Latitude
		out.Longitude = e.Geo.Longitude
	}
	return out
}

func toEntryList(es []model.Entry) []entryJSON {
	out := make([]entryJSON, 0, len(es))
	for i := range es {
		out = append(out, toEntryJSON(&es[i]))
	}
	return out
}
