// Package region holds the static catalog of supported sub-regions and a
// client for the external region hierarchy.
package region

import (
	"strings"

	"github.com/rsilvagit/go-vacancies/internal/model"
)

// RootID is the Republic of Sakha (Yakutia), the catalog's geographic root.
const RootID = "1174"

var catalog = []model.Region{
	{ID: "1174", DisplayName: "Республика Саха (Якутия)", Coordinates: &model.Coordinates{Latitude: 62.0281, Longitude: 129.7326, LatitudeDelta: 10, LongitudeDelta: 10}},
	{ID: "1179", DisplayName: "Мирный", Coordinates: &model.Coordinates{Latitude: 62.5353, Longitude: 113.961, LatitudeDelta: 0.5, LongitudeDelta: 0.5}},
	{ID: "1183", DisplayName: "Покровск", Coordinates: &model.Coordinates{Latitude: 61.478, Longitude: 129.127, LatitudeDelta: 0.5, LongitudeDelta: 0.5}},
	{ID: "7372", DisplayName: "Ленский", Coordinates: &model.Coordinates{Latitude: 62.0281, Longitude: 129.7326, LatitudeDelta: 0.2, LongitudeDelta: 0.2}},
	{ID: "6916", DisplayName: "Солнечный", Coordinates: &model.Coordinates{Latitude: 60.3028, Longitude: 137.5556, LatitudeDelta: 0.5, LongitudeDelta: 0.5}},
	{ID: "6012", DisplayName: "Чернышевский", Coordinates: &model.Coordinates{Latitude: 63.0128, Longitude: 112.4714, LatitudeDelta: 0.5, LongitudeDelta: 0.5}},
}

// All returns a copy of the catalog in display order.
func All() []model.Region {
	out := make([]model.Region, len(catalog))
	for i, r := range catalog {
		out[i] = clone(r)
	}
	return out
}

// ByID looks a region up by its external identifier.
func ByID(id string) (model.Region, bool) {
	id = strings.TrimSpace(id)
	for _, r := range catalog {
		if r.ID == id {
			return clone(r), true
		}
	}
	return model.Region{}, false
}

// ByName looks a region up by display name, ignoring case and surrounding space.
func ByName(name string) (model.Region, bool) {
	name = strings.TrimSpace(name)
	for _, r := range catalog {
		if strings.EqualFold(r.DisplayName, name) {
			return clone(r), true
		}
	}
	return model.Region{}, false
}

// Resolve accepts either an id or a display name.
func Resolve(s string) (model.Region, bool) {
	if r, ok := ByID(s); ok {
		return r, true
	}
	return ByName(s)
}

func clone(r model.Region) model.Region {
	if r.Coordinates != nil {
		c := *r.Coordinates
		r.Coordinates = &c
	}
	return r
}
