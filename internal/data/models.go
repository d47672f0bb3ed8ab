// internal/data/models.go
package data

import (
	"time"

	"github.com/paulmach/orb"
)

// CrowdLevel is the qualitative bucket derived from a people-count.
type CrowdLevel string

const (
	LevelLow      CrowdLevel = "Low"
	LevelMedium   CrowdLevel = "Medium"
	LevelHigh     CrowdLevel = "High"
	LevelVeryHigh CrowdLevel = "Very High"
)

// ScanTally is the output of one closed scan session. Immutable once
// produced; consumed by the estimator and the submission path, not retained.
type ScanTally struct {
	TotalCount   int       `json:"total_count"`
	UnknownCount int       `json:"unknown_count"`
	Location     orb.Point `json:"location"` // (lon, lat)
	Located      bool      `json:"located"`  // false if no fix was ever acquired
}

// CrowdEstimate is the derived people-count plus its level.
type CrowdEstimate struct {
	PeopleCount int        `json:"people_count"`
	Level       CrowdLevel `json:"level"`
}

// CrowdRecord is one live observation in the shared store. The store assigns
// ID and CreatedAt on insert; records are only ever inserted or deleted,
// never updated in place.
type CrowdRecord struct {
	ID          string    `json:"id"`
	PeopleCount int       `json:"people_count"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	CreatedAt   time.Time `json:"created_at"`
}

// Point returns the record's coordinate as an orb point (lon, lat order).
func (r CrowdRecord) Point() orb.Point {
	return orb.Point{r.Lon, r.Lat}
}
