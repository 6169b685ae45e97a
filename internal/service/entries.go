package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/chronica-app/chronica/internal/errs"
	"github.com/chronica-app/chronica/internal/geocode"
	"github.com/chronica-app/chronica/internal/media"
	"github.com/chronica-app/chronica/internal/model"
	"github.com/chronica-app/chronica/internal/repository"
)

// EntryService defines the entry lifecycle operations.
type EntryService interface {
	// Create validates a draft and writes a complete entry document.
	Create(ctx context.Context, userID uuid.UUID, draft model.EntryDraft) (*model.Entry, error)
	// Update applies a partial update; untouched fields keep their stored values.
	Update(ctx context.Context, userID, entryID uuid.UUID, upd model.EntryUpdate) error
	// Delete removes the document first, then best-effort cleans its media.
	Delete(ctx context.Context, userID, entryID uuid.UUID) error
	// Get returns a single entry.
	Get(ctx context.Context, userID, entryID uuid.UUID) (*model.Entry, error)
	// List returns the user's entries, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]model.Entry, error)
	// MapEntries returns only entries that carry a location.
	MapEntries(ctx context.Context, userID uuid.UUID) ([]model.Entry, error)
}

type EntryServiceImpl struct {
	repo    repository.EntryRepository
	audio   *media.AudioStore
	geocode geocode.Resolver
	photos  media.Policy
	now     func() time.Time
}

// NewEntryService constructs EntryService with its collaborators.
func NewEntryService(repo repository.EntryRepository, audio *media.AudioStore, g geocode.Resolver) *EntryServiceImpl {
	return &EntryServiceImpl{repo: repo, audio: audio, geocode: g, photos: media.DefaultPolicy, now: time.Now}
}

// validateText applies the submission checks: title and content must be
// non-empty after trimming. Violations block the operation locally.
func validateText(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return "", "", fmt.Errorf("%w: title is required", errs.ErrValidation)
	}
	if content == "" {
		return "", "", fmt.Errorf("%w: content is required", errs.ErrValidation)
	}
	return title, content, nil
}

// normalizeGeo drops the origin pair, which legacy clients send for "no
// location", and returns a copy otherwise.
func normalizeGeo(p *model.GeoPoint) *model.GeoPoint {
	if p == nil || p.IsOrigin() {
		return nil
	}
	cp := *p
	return &cp
}

// resolveLabel fills in a display label for a located entry whose client did
// not send one. Geocoding failures degrade to formatted coordinates inside
// the resolver, never into an error here.
func (s *EntryServiceImpl) resolveLabel(ctx context.Context, label string, geo *model.GeoPoint) string {
	label = strings.TrimSpace(label)
	if geo == nil || label != "" {
		return label
	}
	return s.geocode.Reverse(ctx, geo.Latitude, geo.Longitude)
}

// Create assigns a fresh ID, stamps date and timestamp, runs the photo
// policy, attaches any recorded clip, and writes the complete document.
func (s *EntryServiceImpl) Create(ctx context.Context, userID uuid.UUID, draft model.EntryDraft) (*model.Entry, error) {
	if userID == uuid.Nil {
		return nil, errors.New("empty userID")
	}
	title, content, err := validateText(draft.Title, draft.Content)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	geo := normalizeGeo(draft.Geo)
	now := s.now()
	e := &model.Entry{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Content:   content,
		Date:      now.Format(model.DateLayout),
		Timestamp: now.UnixMilli(),
		Geo:       geo,
		Location:  s.resolveLabel(ctx, draft.Location, geo),
	}

	if len(draft.Image) > 0 {
		img, err := s.photos.EncodeForCreate(draft.Image)
		switch {
		case err == nil:
			e.ImageBase64 = img
		case errors.Is(err, errs.ErrImageTooLarge):
			// oversize rejects the whole submission, nothing is written
			return nil, err
		default:
			// undecodable image: the entry is saved without a photo
		}
	}

	if draft.AudioTemp != "" {
		if name, ok := s.audio.Attach(draft.AudioTemp, id); ok {
			e.AudioFileName = name
		}
		// a failed rename silently omits the audio reference
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Update writes only the fields the submission touched.
func (s *EntryServiceImpl) Update(ctx context.Context, userID, entryID uuid.UUID, upd model.EntryUpdate) error {
	if userID == uuid.Nil || entryID == uuid.Nil {
		return errors.New("empty userID/entryID")
	}
	title, content, err := validateText(upd.Title, upd.Content)
	if err != nil {
		return err
	}

	geo := normalizeGeo(upd.Geo)
	p := model.EntryPatch{
		Title:    title,
		Content:  content,
		Geo:      geo,
		Location: s.resolveLabel(ctx, upd.Location, geo),
	}

	if upd.ImageChanged {
		if len(upd.Image) > 0 {
			img, err := s.photos.EncodeForEdit(upd.Image)
			switch {
			case err == nil:
				p.ImageChanged = true
				p.ImageBase64 = img
			case errors.Is(err, errs.ErrImageTooLarge):
				return err
			default:
				// undecodable image: the stored photo is left as is
			}
		} else {
			p.ImageChanged = true // clear the photo
		}
	}

	if upd.AudioChanged {
		if upd.AudioTemp != "" {
			if name, ok := s.audio.Attach(upd.AudioTemp, entryID); ok {
				p.AudioChanged = true
				p.AudioFileName = name
			}
		} else {
			// clear the reference; the clip file itself is not reconciled
			p.AudioChanged = true
		}
	}

	return s.repo.Update(ctx, userID, entryID, p)
}

// Delete removes the document first; media cleanup runs only after the store
// delete succeeded and its failures are swallowed.
func (s *EntryServiceImpl) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	e, err := s.repo.Get(ctx, userID, entryID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, entryID); err != nil {
		return err
	}
	if e.HasAudio() {
		_ = s.audio.Remove(e.AudioFileName)
	}
	return nil
}

// Get fetches a single entry by ID.
func (s *EntryServiceImpl) Get(ctx context.Context, userID, entryID uuid.UUID) (*model.Entry, error) {
	if userID == uuid.Nil || entryID == uuid.Nil {
		return nil, errors.New("empty userID/entryID")
	}
	return s.repo.Get(ctx, userID, entryID)
}

// List returns all entries of the user ordered by creation timestamp descending.
func (s *EntryServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]model.Entry, error) {
	if userID == uuid.Nil {
		return nil, errors.New("empty userID")
	}
	return s.repo.ListByUser(ctx, userID)
}

// MapEntries returns the user's geo-tagged entries.
func (s *EntryServiceImpl) MapEntries(ctx context.Context, userID uuid.UUID) ([]model.Entry, error) {
	if userID == uuid.Nil {
		return nil, errors.New("empty userID")
	}
	return s.repo.ListWithLocation(ctx, userID)
}
