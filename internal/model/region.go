package model

// Coordinates is a map viewport: a center point plus the visible span.
type Coordinates struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LatitudeDelta  float64 `json:"latitudeDelta"`
	LongitudeDelta float64 `json:"longitudeDelta"`
}

// Region is a sub-region known to the external API. Regions are loaded from a
// static table and never mutated.
type Region struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"displayName"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Area is one node of the external region hierarchy, flattened.
type Area struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
}
