package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chronica-app/chronica/internal/errs"
	"github.com/chronica-app/chronica/internal/media"
	"github.com/chronica-app/chronica/internal/model"
)

var testSignKey = []byte("test-sign-key")

type fakeAuth struct {
	registerErr error
	loginErr    error
	user        model.User
}

func (f *fakeAuth) Register(_ context.Context, email, password string) (string, error) {
	if f.registerErr != nil {
		return "", f.registerErr
	}
	return f.user.ID.String(), nil
}

func (f *fakeAuth) LoginWithIP(_ context.Context, email, password, ip string) (model.Tokens, model.User, error) {
	if f.loginErr != nil {
		return model.Tokens{}, model.User{}, f.loginErr
	}
	return model.Tokens{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}, f.user, nil
}

type fakeEntries struct {
	entries map[uuid.UUID]*model.Entry

	lastDraft  model.EntryDraft
	lastUpdate model.EntryUpdate
	created    *model.Entry
	err        error
}

func newFakeEntries() *fakeEntries {
	return &fakeEntries{entries: map[uuid.UUID]*model.Entry{}}
}

func (f *fakeEntries) Create(_ context.Context, userID uuid.UUID, draft model.EntryDraft) (*model.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastDraft = draft
	geo := draft.Geo
	if geo != nil && geo.IsOrigin() {
		geo = nil
	}
	id := uuid.Must(uuid.NewV4())
	e := &model.Entry{
		ID: id, UserID: userID,
		Title: draft.Title, Content: draft.Content,
		Location: draft.Location, Geo: geo,
		Date: "30 Aug 2026", Timestamp: 1,
	}
	f.entries[id] = e
	f.created = e
	return e, nil
}

func (f *fakeEntries) Update(_ context.Context, userID, entryID uuid.UUID, upd model.EntryUpdate) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.entries[entryID]; !ok {
		return errs.ErrNotFound
	}
	f.lastUpdate = upd
	return nil
}

func (f *fakeEntries) Delete(_ context.Context, userID, entryID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.entries[entryID]; !ok {
		return errs.ErrNotFound
	}
	delete(f.entries, entryID)
	return nil
}

func (f *fakeEntries) Get(_ context.Context, userID, entryID uuid.UUID) (*model.Entry, error) {
	e, ok := f.entries[entryID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return e, nil
}

func (f *fakeEntries) List(_ context.Context, userID uuid.UUID) ([]model.Entry, error) {
	out := make([]model.Entry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeEntries) MapEntries(_ context.Context, userID uuid.UUID) ([]model.Entry, error) {
	out := []model.Entry{}
	for _, e := range f.entries {
		if e.Geo != nil {
			out = append(out, *e)
		}
	}
	return out, nil
}

type staticResolver struct{ label string }

func (s staticResolver) Reverse(_ context.Context, lat, lng float64) string { return s.label }

func newTestApp(t *testing.T, entries *fakeEntries, auth *fakeAuth) (*fiber.App, *media.AudioStore) {
	t.Helper()
	store, err := media.NewAudioStore(t.TempDir())
	require.NoError(t, err)
	srv := New(auth, entries, store, staticResolver{label: "Riga, Latvia"}, testSignKey, zap.NewNop())
	app := fiber.New()
	srv.Register(app)
	return app, store
}

func bearerFor(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := tok.SignedString(testSignKey)
	require.NoError(t, err)
	return "Bearer " + signed
}

func doJSON(t *testing.T, app *fiber.App, method, path, bearer string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, bearer)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthz(t *testing.T) {
	app, _ := newTestApp(t, newFakeEntries(), &fakeAuth{})
	resp := doJSON(t, app, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegister(t *testing.T) {
	uid := uuid.Must(uuid.NewV4())
	app, _ := newTestApp(t, newFakeEntries(), &fakeAuth{user: model.User{ID: uid}})

	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "",
		credentialsReq{Email: "a@b.c", Password: "secret1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[registerResp](t, resp)
	require.True(t, out.OK)
	require.Equal(t, uid.String(), out.UserID)
}

func TestRegisterConflict(t *testing.T) {
	app, _ := newTestApp(t, newFakeEntries(), &fakeAuth{registerErr: errs.ErrAlreadyExists})
	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "",
		credentialsReq{Email: "a@b.c", Password: "secret1"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	uid := uuid.Must(uuid.NewV4())
	app, _ := newTestApp(t, newFakeEntries(), &fakeAuth{user: model.User{ID: uid, Email: "a@b.c"}})

	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "",
		credentialsReq{Email: "a@b.c", Password: "secret1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[loginResp](t, resp)
	require.Equal(t, "tok", out.AccessToken)
	require.Equal(t, uid.String(), out.UserID)
}

func TestLoginRateLimited(t *testing.T) {
	app, _ := newTestApp(t, newFakeEntries(), &fakeAuth{loginErr: errs.ErrRateLimited})
	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "",
		credentialsReq{Email: "a@b.c", Password: "secret1"})
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestEntriesRequireAuth(t *testing.T) {
	app, _ := newTestApp(t, newFakeEntries(), &fakeAuth{})
	resp := doJSON(t, app, http.MethodGet, "/api/entries", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/entries", "Bearer not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateEntryJSON(t *testing.T) {
	entries := newFakeEntries()
	app, _ := newTestApp(t, entries, &fakeAuth{})
	uid := uuid.Must(uuid.NewV4())

	resp := doJSON(t, app, http.MethodPost, "/api/entries", bearerFor(t, uid), createEntryReq{
		Title: "Hike", Content: "Up the hill", Latitude: 56.95, Longitude: 24.1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[entryResp](t, resp)
	require.True(t, out.OK)
	require.Equal(t, "Hike", out.Entry.Title)
	require.Equal(t, uid.String(), out.Entry.UserID)
	require.NotNil(t, entries.lastDraft.Geo)
}

func TestCreateEntryMultipart(t *testing.T) {
	entries := newFakeEntries()
	app, store := newTestApp(t, entries, &fakeAuth{})
	uid := uuid.Must(uuid.NewV4())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Picnic"))
	require.NoError(t, mw.WriteField("content", "By the river"))
	require.NoError(t, mw.WriteField("latitude", "56.95"))
	require.NoError(t, mw.WriteField("longitude", "24.1"))
	aw, err := mw.CreateFormFile("audio", "clip.3gp")
	require.NoError(t, err)
	_, err = aw.Write([]byte("3gp-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/entries", &buf)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, bearerFor(t, uid))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Equal(t, "Picnic", entries.lastDraft.Title)
	require.NotEmpty(t, entries.lastDraft.AudioTemp)
	require.True(t, strings.HasPrefix(entries.lastDraft.AudioTemp, store.Dir()))
}

func TestCreateEntryUnsupportedContentType(t *testing.T) {
	app, _ := newTestApp(t, newFakeEntries(), &fakeAuth{})
	uid := uuid.Must(uuid.NewV4())

	req := httptest.NewRequest(http.MethodPost, "/api/entries", strings.NewReader("title=x"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	req.Header.Set(fiber.HeaderAuthorization, bearerFor(t, uid))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestGetEntry(t *testing.T) {
	entries := newFakeEntries()
	app, _ := newTestApp(t, entries, &fakeAuth{})
	uid := uuid.Must(uuid.NewV4())

	doJSON(t, app, http.MethodPost, "/api/entries", bearerFor(t, uid),
		createEntryReq{Title: "One", Content: "body"})
	id := entries.created.ID

	resp := doJSON(t, app, http.MethodGet, "/api/entries/"+id.String(), bearerFor(t, uid), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[entryResp](t, resp)
	require.Equal(t, id.String(), out.Entry.ID)
}

func TestGetEntryBadID(t *testing.T) {
	app, _ := newTestApp(t, newFakeEntries(), &fakeAuth{})
	uid := uuid.Must(uuid.NewV4())
	resp := doJSON(t, app, http.MethodGet, "/api/entries/not-a-uuid", bearerFor(t, uid), nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetEntryNotFound(t *testing.T) {
	app, _ := newTestApp(t, newFakeEntries(), &fakeAuth{})
	uid := uuid.Must(uuid.NewV4())
	resp := doJSON(t, app, http.MethodGet,
		"/api/entries/"+uuid.Must(uuid.NewV4()).String(), bearerFor(t, uid), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateEntryClearImage(t *testing.T) {
	entries := newFakeEntries()
	app, _ := newTestApp(t, entries, &fakeAuth{})
	uid := uuid.Must(uuid.NewV4())

	doJSON(t, app, http.MethodPost, "/api/entries", bearerFor(t, uid),
		createEntryReq{Title: "One", Content: "body"})
	id := entries.created.ID

	empty := ""
	resp := doJSON(t, app, http.MethodPatch, "/api/entries/"+id.String(), bearerFor(t, uid),
		updateEntryReq{Title: "One", Content: "edited", ImageBase64: &empty})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, entries.lastUpdate.ImageChanged)
	require.Nil(t, entries.lastUpdate.Image)
	require.False(t, entries.lastUpdate.AudioChanged)
}

func TestUpdateEntryRejectsInlineAudio(t *testing.T) {
	entries := newFakeEntries()
	app, _ := newTestApp(t, entries, &fakeAuth{})
	uid := uuid.Must(uuid.NewV4())

	doJSON(t, app, http.MethodPost, "/api/entries", bearerFor(t, uid),
		createEntryReq{Title: "One", Content: "body"})
	id := entries.created.ID

	name := "clip.3gp"
	resp := doJSON(t, app, http.MethodPatch, "/api/entries/"+id.String(), bearerFor(t, uid),
		updateEntryReq{Title: "One", Content: "body", AudioFileName: &name})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateEntryMultipartAudioChanged(t *testing.T) {
	entries := newFakeEntries()
	app, _ := newTestApp(t, entries, &fakeAuth{})
	uid := uuid.Must(uuid.NewV4())

	doJSON(t, app, http.MethodPost, "/api/entries", bearerFor(t, uid),
		createEntryReq{Title: "One", Content: "body"})
	id := entries.created.ID

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "One"))
	require.NoError(t, mw.WriteField("content", "body"))
	require.NoError(t, mw.WriteField("audio_changed", "true"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPatch, "/api/entries/"+id.String(), &buf)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, bearerFor(t, uid))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// flag set with no file uploaded clears the clip
	require.True(t, entries.lastUpdate.AudioChanged)
	require.Empty(t, entries.lastUpdate.AudioTemp)
}

func TestDeleteEntry(t *testing.T) {
	entries := newFakeEntries()
	app, _ := newTestApp(t, entries, &fakeAuth{})
	uid := uuid.Must(uuid.NewV4())

	doJSON(t, app, http.MethodPost, "/api/entries", bearerFor(t, uid),
		createEntryReq{Title: "One", Content: "body"})
	id := entries.created.ID

	resp := doJSON(t, app, http.MethodDelete, "/api/entries/"+id.String(), bearerFor(t, uid), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, entries.entries)
}

func TestGetAudioNone(t *testing.T) {
	entries := newFakeEntries()
	app, _ := newTestApp(t, entries, &fakeAuth{})
	uid := uuid.Must(uuid.NewV4())

	doJSON(t, app, http.MethodPost, "/api/entries", bearerFor(t, uid),
		createEntryReq{Title: "One", Content: "body"})
	id := entries.created.ID

	resp := doJSON(t, app, http.MethodGet, "/api/entries/"+id.String()+"/audio", bearerFor(t, uid), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetAudioStreams(t *testing.T) {
	entries := newFakeEntries()
	app, store := newTestApp(t, entries, &fakeAuth{})
	uid := uuid.Must(uuid.NewV4())

	doJSON(t, app, http.MethodPost, "/api/entries", bearerFor(t, uid),
		createEntryReq{Title: "One", Content: "body"})
	e := entries.created

	tmp, err := store.SaveTemp(strings.NewReader("3gp-bytes"))
	require.NoError(t, err)
	name, ok := store.Attach(tmp, e.ID)
	require.True(t, ok)
	e.AudioFileName = name

	resp := doJSON(t, app, http.MethodGet, "/api/entries/"+e.ID.String()+"/audio", bearerFor(t, uid), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "audio/3gpp", resp.Header.Get(fiber.HeaderContentType))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "3gp-bytes", string(body))
}

func TestMapEntriesOnlyLocated(t *testing.T) {
	entries := newFakeEntries()
	app, _ := newTestApp(t, entries, &fakeAuth{})
	uid := uuid.Must(uuid.NewV4())

	doJSON(t, app, http.MethodPost, "/api/entries", bearerFor(t, uid),
		createEntryReq{Title: "No geo", Content: "body"})
	doJSON(t, app, http.MethodPost, "/api/entries", bearerFor(t, uid),
		createEntryReq{Title: "With geo", Content: "body", Latitude: 56.95, Longitude: 24.1})

	resp := doJSON(t, app, http.MethodGet, "/api/map/entries", bearerFor(t, uid), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[entriesResp](t, resp)
	require.Len(t, out.Entries, 1)
	require.Equal(t, "With geo", out.Entries[0].Title)
}

func TestLocate(t *testing.T) {
	app, _ := newTestApp(t, newFakeEntries(), &fakeAuth{})
	uid := uuid.Must(uuid.NewV4())

	resp := doJSON(t, app, http.MethodPost, "/api/locate", bearerFor(t, uid),
		locateReq{Latitude: 56.95, Longitude: 24.1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[locateResp](t, resp)
	require.Equal(t, "Riga, Latvia", out.Label)
}

func TestOversizeImageMapsTo413(t *testing.T) {
	entries := newFakeEntries()
	entries.err = fmt.Errorf("create: %w", errs.ErrImageTooLarge)
	app, _ := newTestApp(t, entries, &fakeAuth{})
	uid := uuid.Must(uuid.NewV4())

	resp := doJSON(t, app, http.MethodPost, "/api/entries", bearerFor(t, uid),
		createEntryReq{Title: "Big", Content: "body"})
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}
