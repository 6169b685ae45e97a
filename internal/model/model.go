// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// DateLayout is the human-readable creation date stamped on an entry.
// It is fixed at creation and never recomputed.
const DateLayout = "02 Jan 2006"

// AudioExt is the container extension for recorded clips.
const AudioExt = ".3gp"

// Tokens collects issued access tokens (refresh optional).
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // access token expiry (for diagnostics)
}

// GeoPoint is a coordinate pair. Entries without a location carry a nil
// *GeoPoint; the origin is not used as an in-band sentinel.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsOrigin reports whether the point is exactly (0,0). Incoming origin
// coordinates are treated as "no location" for compatibility with clients
// that still send the zero pair.
func (p GeoPoint) IsOrigin() bool { return p.Latitude == 0 && p.Longitude == 0 }

// Entry is a single journal record. Media is optional: the photo is stored
// inline Base64-encoded, the audio clip lives in the media directory and only
// its filename is persisted.
type Entry struct {
	ID            uuid.UUID // server-generated PK, immutable after create
	UserID        uuid.UUID // FK -> users.id
	Title         string
	Content       string
	Date          string    // DateLayout string, fixed at creation
	Timestamp     int64     // creation instant (unix millis), ordering only
	Location      string    // geocoded label, or formatted coordinates, or ""
	Geo           *GeoPoint // nil when no fix was obtained
	ImageBase64   string    // "" means no photo
	AudioFileName string    // "" means no clip; otherwise "<id>.3gp"
}

// HasAudio reports whether the entry references a recorded clip.
func (e *Entry) HasAudio() bool { return e.AudioFileName != "" }

// EntryDraft carries the fields of a create submission. Media and location
// are optional; Image holds the source photo bytes before processing.
type EntryDraft struct {
	Title     string
	Content   string
	Location  string
	Geo       *GeoPoint
	Image     []byte // source image bytes, nil when no photo attached
	AudioTemp string // path of a recorded temp clip, "" when none
}

// EntryUpdate carries only the fields an edit submission touched. Text and
// location always travel; image and audio travel only when changed in the
// session, signalled by the *Changed flags. A changed field with an empty
// value clears it.
type EntryUpdate struct {
	Title    string
	Content  string
	Location string
	Geo      *GeoPoint

	ImageChanged bool
	Image        []byte // nil with ImageChanged=true removes the photo

	AudioChanged bool
	AudioTemp    string // "" with AudioChanged=true removes the clip
}

// EntryPatch is the persisted form of an update: text and location always
// apply, media columns only when the corresponding Changed flag is set.
type EntryPatch struct {
	Title    string
	Content  string
	Location string
	Geo      *GeoPoint

	ImageChanged bool
	ImageBase64  string

	AudioChanged  bool
	AudioFileName string
}

// User represents an account. Passwords are stored as Argon2id hashes with a
// per-user salt, never in plaintext.
type User struct {
	ID        uuid.UUID // PK
	Email     string    // unique
	PwdHash   []byte    // Argon2id(password, Salt)
	Salt      []byte    // per-user auth salt
	CreatedAt time.Time
}
