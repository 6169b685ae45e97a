package httpapi

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/chronica-app/chronica/internal/errs"
	"github.com/chronica-app/chronica/internal/model"
)

type entriesResp struct {
	OK      bool        `json:"ok"`
	Entries []entryJSON `json:"entries"`
}

type entryResp struct {
	OK    bool      `json:"ok"`
	Entry entryJSON `json:"entry"`
}

type okResp struct {
	OK bool `json:"ok"`
}

// createEntryReq is the JSON form of a create submission. ImageBase64 carries
// the source photo; the server re-runs the size policy on it.
type createEntryReq struct {
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	Location    string  `json:"location"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	ImageBase64 string  `json:"imageBase64"`
}

// updateEntryReq is the JSON form of an edit. Nil pointers mean "untouched";
// an empty string clears the field. New audio travels only via multipart.
type updateEntryReq struct {
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	Location      string  `json:"location"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	ImageBase64   *string `json:"imageBase64"`
	AudioFileName *string `json:"audioFileName"`
}

func (s *Server) handleListEntries(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return fail(c, errs.ErrUnauthorized)
	}
	es, err := s.entries.List(c.Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(entriesResp{OK: true, Entries: toEntryList(es)})
}

func (s *Server) handleCreateEntry(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return fail(c, errs.ErrUnauthorized)
	}

	var draft model.EntryDraft
	ct := c.Get(fiber.HeaderContentType)
	switch {
	case strings.HasPrefix(ct, fiber.MIMEApplicationJSON):
		var req createEntryReq
		if err := c.BodyParser(&req); err != nil {
			return badReq(c, "invalid JSON")
		}
		draft = model.EntryDraft{
			Title:    req.Title,
			Content:  req.Content,
			Location: req.Location,
			Geo:      &model.GeoPoint{Latitude: req.Latitude, Longitude: req.Longitude},
		}
		if req.ImageBase64 != "" {
			img, err := base64.StdEncoding.DecodeString(req.ImageBase64)
			if err != nil {
				return badReq(c, "invalid imageBase64")
			}
			draft.Image = img
		}
	case strings.HasPrefix(ct, fiber.MIMEMultipartForm):
		d, err := s.draftFromMultipart(c)
		if err != nil {
			return badReq(c, err.Error())
		}
		draft = *d
	default:
		return c.Status(fiber.StatusUnsupportedMediaType).
			JSON(errorResp{OK: false, Error: "unsupported content type"})
	}

	e, err := s.entries.Create(c.Context(), userID, draft)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entryResp{OK: true, Entry: toEntryJSON(e)})
}

func (s *Server) handleGetEntry(c *fiber.Ctx) error {
	userID, entryID, err := s.scope(c)
	if err != nil {
		return fail(c, err)
	}
	e, err := s.entries.Get(c.Context(), userID, entryID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(entryResp{OK: true, Entry: toEntryJSON(e)})
}

func (s *Server) handleUpdateEntry(c *fiber.Ctx) error {
	userID, entryID, err := s.scope(c)
	if err != nil {
		return fail(c, err)
	}

	var upd model.EntryUpdate
	ct := c.Get(fiber.HeaderContentType)
	switch {
	case strings.HasPrefix(ct, fiber.MIMEApplicationJSON):
		var req updateEntryReq
		if err := c.BodyParser(&req); err != nil {
			return badReq(c, "invalid JSON")
		}
		upd = model.EntryUpdate{
			Title:    req.Title,
			Content:  req.Content,
			Location: req.Location,
			Geo:      &model.GeoPoint{Latitude: req.Latitude, Longitude: req.Longitude},
		}
		if req.ImageBase64 != nil {
			upd.ImageChanged = true
			if *req.ImageBase64 != "" {
				img, err := base64.StdEncoding.DecodeString(*req.ImageBase64)
				if err != nil {
					return badReq(c, "invalid imageBase64")
				}
				upd.Image = img
			}
		}
		if req.AudioFileName != nil {
			if *req.AudioFileName != "" {
				return badReq(c, "new audio must be uploaded as multipart")
			}
			upd.AudioChanged = true // clear
		}
	case strings.HasPrefix(ct, fiber.MIMEMultipartForm):
		u, err := s.updateFromMultipart(c)
		if err != nil {
			return badReq(c, err.Error())
		}
		upd = *u
	default:
		return c.Status(fiber.StatusUnsupportedMediaType).
			JSON(errorResp{OK: false, Error: "unsupported content type"})
	}

	if err := s.entries.Update(c.Context(), userID, entryID, upd); err != nil {
		return fail(c, err)
	}
	return c.JSON(okResp{OK: true})
}

func (s *Server) handleDeleteEntry(c *fiber.Ctx) error {
	userID, entryID, err := s.scope(c)
	if err != nil {
		return fail(c, err)
	}
	if err := s.entries.Delete(c.Context(), userID, entryID); err != nil {
		return fail(c, err)
	}
	return c.JSON(okResp{OK: true})
}

func (s *Server) handleGetAudio(c *fiber.Ctx) error {
	userID, entryID, err := s.scope(c)
	if err != nil {
		return fail(c, err)
	}
	e, err := s.entries.Get(c.Context(), userID, entryID)
	if err != nil {
		return fail(c, err)
	}
	if !e.HasAudio() {
		return c.Status(fiber.StatusNotFound).JSON(errorResp{OK: false, Error: "no audio"})
	}
	f, err := s.audio.Open(e.AudioFileName)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(errorResp{OK: false, Error: "audio missing"})
	}
	c.Set(fiber.HeaderContentType, "audio/3gpp")
	return c.SendStream(f)
}

func (s *Server) handleMapEntries(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return fail(c, errs.ErrUnauthorized)
	}
	es, err := s.entries.MapEntries(c.Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(entriesResp{OK: true, Entries: toEntryList(es)})
}

type locateReq struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type locateResp struct {
	OK    bool   `json:"ok"`
	Label string `json:"label"`
}

func (s *Server) handleLocate(c *fiber.Ctx) error {
	var req locateReq
	if err := c.BodyParser(&req); err != nil {
		return badReq(c, "invalid JSON")
	}
	label := s.geocode.Reverse(c.Context(), req.Latitude, req.Longitude)
	return c.JSON(locateResp{OK: true, Label: label})
}

// --- helpers ---

// scope extracts the (user, entry) pair every entry-scoped route needs.
func (s *Server) scope(c *fiber.Ctx) (userID, entryID uuid.UUID, err error) {
	userID, ok := currentUserID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, errs.ErrUnauthorized
	}
	entryID, err = uuid.FromString(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: invalid entry id", errs.ErrValidation)
	}
	return userID, entryID, nil
}

func (s *Server) draftFromMultipart(c *fiber.Ctx) (*model.EntryDraft, error) {
	d := &model.EntryDraft{
		Title:    strings.TrimSpace(c.FormValue("title")),
		Content:  strings.TrimSpace(c.FormValue("content")),
		Location: strings.TrimSpace(c.FormValue("location")),
	}
	geo, err := geoFromForm(c)
	if err != nil {
		return nil, err
	}
	d.Geo = geo

	if img, err := formFileBytes(c, "photo"); err != nil {
		return nil, err
	} else if img != nil {
		d.Image = img
	}

	if fh, err := c.FormFile("audio"); err == nil && fh != nil {
		tmp, err := s.saveAudioUpload(fh)
		if err != nil {
			return nil, err
		}
		d.AudioTemp = tmp
	}
	return d, nil
}

func (s *Server) updateFromMultipart(c *fiber.Ctx) (*model.EntryUpdate, error) {
	u := &model.EntryUpdate{
		Title:    strings.TrimSpace(c.FormValue("title")),
		Content:  strings.TrimSpace(c.FormValue("content")),
		Location: strings.TrimSpace(c.FormValue("location")),
	}
	geo, err := geoFromForm(c)
	if err != nil {
		return nil, err
	}
	u.Geo = geo

	if parseBool(c.FormValue("image_changed")) {
		u.ImageChanged = true
		if img, err := formFileBytes(c, "photo"); err != nil {
			return nil, err
		} else if img != nil {
			u.Image = img
		}
	}
	if parseBool(c.FormValue("audio_changed")) {
		u.AudioChanged = true
		if fh, err := c.FormFile("audio"); err == nil && fh != nil {
			tmp, err := s.saveAudioUpload(fh)
			if err != nil {
				return nil, err
			}
			u.AudioTemp = tmp
		}
	}
	return u, nil
}

func (s *Server) saveAudioUpload(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	tmp, err := s.audio.SaveTemp(src)
	if err != nil {
		s.log.Warn("audio upload", zap.Error(err))
		return "", err
	}
	return tmp, nil
}

func geoFromForm(c *fiber.Ctx) (*model.GeoPoint, error) {
	latStr, lngStr := c.FormValue("latitude"), c.FormValue("longitude")
	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, errors.New("invalid latitude")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, errors.New("invalid longitude")
	}
	return &model.GeoPoint{Latitude: lat, Longitude: lng}, nil
}

func formFileBytes(c *fiber.Ctx, key string) ([]byte, error) {
	fh, err := c.FormFile(key)
	if err != nil || fh == nil {
		return nil, nil
	}
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}

// parseBool understands common truthy strings.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
