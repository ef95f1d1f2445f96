package retention

import (
	"fmt"
	"sort"
	"time"

	"opengate-hq/keeper/pkg/config"
)

// Mode is the secondary filter applied to recordings kept by an event.
type Mode string

const (
	// ModeAll keeps every recording that overlaps an event.
	ModeAll Mode = "all"

	// ModeMotion keeps overlapping recordings only if they saw motion.
	ModeMotion Mode = "motion"

	// ModeActiveObjects keeps overlapping recordings only if they saw objects.
	ModeActiveObjects Mode = "active_objects"
)

// ParseMode parses a configured retention mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAll, ModeMotion, ModeActiveObjects:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown retention mode %q", s)
	}
}

// Policy is the effective retention of one configured camera.
type Policy struct {
	Camera string  `json:"camera"`
	Days   float64 `json:"days"`
	Mode   Mode    `json:"mode"`
}

// Cutoff returns the time before which recordings of this camera expire.
func (p Policy) Cutoff(now time.Time) time.Time {
	return cutoff(now, p.Days)
}

func cutoff(now time.Time, days float64) time.Time {
	return now.Add(-time.Duration(days * float64(24*time.Hour)))
}

// Plan is the retention configuration of one expiration pass.
type Plan struct {
	// Cameras holds the configured cameras, sorted by name.
	Cameras []Policy `json:"cameras"`

	// DefaultDays applies to recordings of cameras absent from Cameras.
	DefaultDays float64 `json:"default_days"`
}

// CameraNames returns the configured camera names.
func (p Plan) CameraNames() []string {
	names := make([]string, len(p.Cameras))
	for i, c := range p.Cameras {
		names[i] = c.Camera
	}
	return names
}

// Policy returns the policy of a configured camera.
func (p Plan) Policy(camera string) (Policy, bool) {
	for _, c := range p.Cameras {
		if c.Camera == camera {
			return c, true
		}
	}
	return Policy{}, false
}

// PlanFromConfig derives the retention plan from cfg. Disabled cameras are
// still configured: their recordings follow their own policy, not the
// orphan default. Unknown modes fall back to motion; Validate rejects them
// before a config is ever installed.
func PlanFromConfig(cfg *config.Config) Plan {
	plan := Plan{
		DefaultDays: cfg.Record.DefaultRetainDays(),
		Cameras:     make([]Policy, 0, len(cfg.Cameras)),
	}

	for name, cam := range cfg.Cameras {
		mode, err := ParseMode(cam.RetainMode())
		if err != nil {
			mode = ModeMotion
		}
		plan.Cameras = append(plan.Cameras, Policy{
			Camera: name,
			Days:   cam.RetainDays(),
			Mode:   mode,
		})
	}

	sort.Slice(plan.Cameras, func(i, j int) bool {
		return plan.Cameras[i].Camera < plan.Cameras[j].Camera
	})
	return plan
}
