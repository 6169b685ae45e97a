package client

// SingleMarkerZoom is the zoom level used when only one marker is on the map
// and there are no bounds to fit.
const SingleMarkerZoom = 12

// Marker is one pinned entry on the map.
type Marker struct {
	EntryID   string
	Title     string
	Date      string
	Location  string
	Latitude  float64
	Longitude float64
}

// Bounds is a lat/lng bounding box.
type Bounds struct {
	MinLat, MinLng float64
	MaxLat, MaxLng float64
}

// Viewport describes where the camera should sit after loading markers.
type Viewport struct {
	// Fit is set when two or more markers define a box to frame.
	Fit *Bounds
	// Center/Zoom are used for the single-marker case.
	Center *Marker
	Zoom   int
}

// MapView holds the markers and the selected-summary state of the map screen.
type MapView struct {
	markers  []Marker
	selected int // index into markers, -1 when no card is open
}

// NewMapView builds a view from the located entries.
func NewMapView(entries []Entry) *MapView {
	ms := make([]Marker, 0, len(entries))
	for _, e := range entries {
		ms = append(ms, Marker{
			EntryID:   e.ID,
			Title:     e.Title,
			Date:      e.Date,
			Location:  e.Location,
			Latitude:  e.Latitude,
			Longitude: e.Longitude,
		})
	}
	return &MapView{markers: ms, selected: -1}
}

// Markers returns all pins.
func (v *MapView) Markers() []Marker { return v.markers }

// Viewport computes the initial camera: a bounds fit over all markers, or a
// fixed zoom centered on the only marker.
func (v *MapView) Viewport() Viewport {
	switch len(v.markers) {
	case 0:
		return Viewport{}
	case 1:
		m := v.markers[0]
		return Viewport{Center: &m, Zoom: SingleMarkerZoom}
	}

	b := Bounds{
		MinLat: v.markers[0].Latitude, MaxLat: v.markers[0].Latitude,
		MinLng: v.markers[0].Longitude, MaxLng: v.markers[0].Longitude,
	}
	for _, m := range v.markers[1:] {
		if m.Latitude < b.MinLat {
			b.MinLat = m.Latitude
		}
		if m.Latitude > b.MaxLat {
			b.MaxLat = m.Latitude
		}
		if m.Longitude < b.MinLng {
			b.MinLng = m.Longitude
		}
		if m.Longitude > b.MaxLng {
			b.MaxLng = m.Longitude
		}
	}
	return Viewport{Fit: &b}
}

// Select opens the summary card for the marker with the given entry ID.
// Selecting an unknown ID dismisses any open card.
func (v *MapView) Select(entryID string) {
	for i, m := range v.markers {
		if m.EntryID == entryID {
			v.selected = i
			return
		}
	}
	v.selected = -1
}

// Selected returns the marker behind the open summary card, or nil.
func (v *MapView) Selected() *Marker {
	if v.selected < 0 || v.selected >= len(v.markers) {
		return nil
	}
	m := v.markers[v.selected]
	return &m
}

// Dismiss closes the summary card. It reports whether a card was open, so a
// back action can consume the event instead of leaving the screen.
func (v *MapView) Dismiss() bool {
	if v.selected < 0 {
		return false
	}
	v.selected = -1
	return true
}
