// Package domain defines the location catalog types
package domain

import (
	"github.com/alexmarder/hloc/internal/core/codeindex"
	"github.com/alexmarder/hloc/internal/core/normalize"
)

// State is the region a location belongs to
type State struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	ISO3166Code string `json:"iso3166code,omitempty"`
}

// AirportInfo carries the airport codes of a location
type AirportInfo struct {
	IATA []string `json:"iata_codes,omitempty"`
	ICAO []string `json:"icao_codes,omitempty"`
	FAA  []string `json:"faa_codes,omitempty"`
}

// LocodeInfo carries UN/LOCODE place codes without the country prefix
type LocodeInfo struct {
	PlaceCodes []string `json:"place_codes,omitempty"`
}

// Location is one catalog entry
type Location struct {
	ID             int64        `json:"id" validate:"required"`
	Lat            float64      `json:"lat" validate:"gte=-90,lte=90"`
	Lon            float64      `json:"lon" validate:"gte=-180,lte=180"`
	CityName       string       `json:"city_name,omitempty"`
	State          *State       `json:"state,omitempty"`
	Population     int          `json:"population,omitempty"`
	AlternateNames []string     `json:"alternate_names,omitempty"`
	CLLI           []string     `json:"clli,omitempty"`
	Airport        *AirportInfo `json:"airport_info,omitempty"`
	Locode         *LocodeInfo  `json:"locode,omitempty"`
}

// CodeTuples lists every code this location is known by
// - the city name, only when made of ASCII letters and digits
// - CLLI codes
// - alternate names
// - LOCODE place codes prefixed with the state's ISO 3166 code
// - IATA, ICAO and FAA airport codes
func (l Location) CodeTuples() []codeindex.Entry {
	var out []codeindex.Entry
	add := func(code string, t codeindex.CodeType) {
		if c := normalize.Code(code); c != "" {
			out = append(out, codeindex.Entry{Code: c, LocationID: l.ID, Type: t})
		}
	}

	if normalize.IsAlnum(l.CityName) {
		add(l.CityName, codeindex.Geonames)
	}
	for _, c := range l.CLLI {
		add(c, codeindex.CLLI)
	}
	for _, n := range l.AlternateNames {
		add(n, codeindex.Geonames)
	}
	if l.Locode != nil && l.State != nil && l.State.ISO3166Code != "" {
		prefix := normalize.Code(l.State.ISO3166Code)
		for _, pc := range l.Locode.PlaceCodes {
			if pc = normalize.Code(pc); pc != "" {
				out = append(out, codeindex.Entry{Code: prefix + pc, LocationID: l.ID, Type: codeindex.LOCODE})
			}
		}
	}
	if a := l.Airport; a != nil {
		for _, c := range a.IATA {
			add(c, codeindex.IATA)
		}
		for _, c := range a.ICAO {
			add(c, codeindex.ICAO)
		}
		for _, c := range a.FAA {
			add(c, codeindex.FAA)
		}
	}
	return out
}

// Entries flattens the code tuples of every location
func Entries(locs []Location) []codeindex.Entry {
	n := 0
	for i := range locs {
		n += 4 + len(locs[i].AlternateNames)
	}
	out := make([]codeindex.Entry, 0, n)
	for i := range locs {
		out = append(out, locs[i].CodeTuples()...)
	}
	return out
}
