// internal/data/parser.go
package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrMalformedRecord marks a fetched record whose timestamp cannot be parsed.
// Such records are skipped for the current pass, never deleted on suspicion.
var ErrMalformedRecord = errors.New("malformed record")

// wireRecord is the store's JSON shape. CreatedAt travels as a string so a
// bad timestamp poisons only its own record, not the whole response.
type wireRecord struct {
	ID          string  `json:"id"`
	PeopleCount int     `json:"people_count"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	CreatedAt   string  `json:"created_at"`
}

// ParseRecord decodes a single store record. The timestamp must be RFC3339.
func ParseRecord(raw []byte) (CrowdRecord, error) {
	var w wireRecord
	if err := json.Unmarshal(raw, &w); err != nil {
		return CrowdRecord{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return w.toRecord()
}

// ParseRecords decodes a select-all response. Records with unparsable
// timestamps are dropped and counted in skipped; everything else is kept.
func ParseRecords(raw []byte) (records []CrowdRecord, skipped int, err error) {
	var wires []wireRecord
	if err := json.Unmarshal(raw, &wires); err != nil {
		return nil, 0, fmt.Errorf("decoding record list: %w", err)
	}

	records = make([]CrowdRecord, 0, len(wires))
	for _, w := range wires {
		rec, err := w.toRecord()
		if err != nil {
			log.Printf("Skipping record %q: %v", w.ID, err)
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

func (w wireRecord) toRecord() (CrowdRecord, error) {
	ts, err := time.Parse(time.RFC3339Nano, w.CreatedAt)
	if err != nil {
		return CrowdRecord{}, fmt.Errorf("%w: timestamp %q: %v", ErrMalformedRecord, w.CreatedAt, err)
	}
	return CrowdRecord{
		ID:          w.ID,
		PeopleCount: w.PeopleCount,
		Lat:         w.Lat,
		Lon:         w.Lon,
		CreatedAt:   ts,
	}, nil
}
