// internal/estimate/estimator.go
package estimate

import (
	"github.com/rohanmatta11/CrowdSense/internal/data"
)

// Estimate converts a scan tally into a crowd estimate. Pure function.
//
// The unnamed-device count is the proxy for strangers nearby: named devices
// are disproportionately the observer's own gear or known devices in range,
// so the total count would overcount familiar hardware.
func Estimate(tally data.ScanTally) data.CrowdEstimate {
	people := tally.UnknownCount/3 + 1
	return data.CrowdEstimate{
		PeopleCount: people,
		Level:       levelFor(people),
	}
}

func levelFor(people int) data.CrowdLevel {
	switch {
	case people < 5:
		return data.LevelLow
	case people < 15:
		return data.LevelMedium
	case people < 30:
		return data.LevelHigh
	default:
		return data.LevelVeryHigh
	}
}
