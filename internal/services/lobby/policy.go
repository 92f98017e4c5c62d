package lobby

import "github.com/kwhittier/lobbyhub/internal/model"

// RolePolicy chooses the next host from the remaining membership when the
// current host departs. Implementations must be deterministic and
// side-effect-free.
type RolePolicy interface {
	// NextHost returns the player to promote, or nil if none remain.
	NextHost(remaining []*model.Player, departed *model.Player) *model.Player
}

// EarliestJoinedPolicy promotes the remaining player with the earliest
// original join time. Membership is kept in join order, so ties resolve to
// the earlier list position.
type EarliestJoinedPolicy struct{}

var _ RolePolicy = EarliestJoinedPolicy{}

// NextHost picks the earliest-joined remaining player
func (EarliestJoinedPolicy) NextHost(remaining []*model.Player, departed *model.Player) *model.Player {
	var next *model.Player
	for _, p := range remaining {
		if next == nil || p.JoinedAt.Before(next.JoinedAt) {
			next = p
		}
	}
	return next
}
