package ability

import (
	"slices"

	"github.com/okian/synaptic/internal/domain/types"
)

// Target is anything an ability can hit.
type Target struct {
	ID       string
	Position types.Vec3
}

// Hit is the effect of one ability on one target. Amount is negative for
// damage and positive for healing.
type Hit struct {
	TargetID string   `json:"target_id"`
	Amount   float64  `json:"amount"`
	Tags     []string `json:"tags"`
}

// Resolve returns one Hit per target within a.AreaRadius of source on the
// x/z plane, boundary included. It does not touch cooldown state.
func Resolve(source types.Vec3, targets []Target, a Ability) []Hit {
	amount := a.Magnitude
	if a.Kind == Offensive {
		amount = -amount
	}

	var hits []Hit
	for _, t := range targets {
		if types.PlanarDistance(source, t.Position) > a.AreaRadius {
			continue
		}
		hits = append(hits, Hit{
			TargetID: t.ID,
			Amount:   amount,
			Tags:     slices.Clone(a.EffectTags),
		})
	}
	return hits
}
