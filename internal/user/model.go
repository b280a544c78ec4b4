package user

import "time"

// Viewer is the ranking-relevant projection of a user: who they follow, who
// follows them, and their reputation. A nil *Viewer represents an anonymous
// request and is a valid input everywhere in the feed pipeline.
type Viewer struct {
	ID string `json:"id"`

	// FollowingIDs and FollowerIDs are membership sets keyed by user ID.
	FollowingIDs map[string]struct{} `json:"-"`
	FollowerIDs  map[string]struct{} `json:"-"`

	Rank       Rank    `json:"rank"`
	Reputation float64 `json:"reputation"`
}

// Follows reports whether the viewer follows the given user.
func (v *Viewer) Follows(userID string) bool {
	if v == nil {
		return false
	}
	_, ok := v.FollowingIDs[userID]
	return ok
}

// FollowedBy reports whether the given user follows the viewer.
func (v *Viewer) FollowedBy(userID string) bool {
	if v == nil {
		return false
	}
	_, ok := v.FollowerIDs[userID]
	return ok
}

// Following returns the viewer's followed user IDs as a slice. Returns nil
// for an anonymous viewer.
func (v *Viewer) Following() []string {
	if v == nil {
		return nil
	}
	ids := make([]string, 0, len(v.FollowingIDs))
	for id := range v.FollowingIDs {
		ids = append(ids, id)
	}
	return ids
}

// User is the stored user record backing viewer lookups.
type User struct {
	ID           string    `json:"id"`
	Handle       string    `json:"handle"`
	Verified     bool      `json:"verified"`
	Rank         Rank      `json:"rank"`
	Reputation   float64   `json:"reputation"`
	FollowingIDs []string  `json:"following_ids,omitempty"`
	FollowerIDs  []string  `json:"follower_ids,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Viewer builds the membership-set projection used by scoring.
func (u *User) Viewer() *Viewer {
	v := &Viewer{
		ID:           u.ID,
		FollowingIDs: make(map[string]struct{}, len(u.FollowingIDs)),
		FollowerIDs:  make(map[string]struct{}, len(u.FollowerIDs)),
		Rank:         u.Rank,
		Reputation:   u.Reputation,
	}
	for _, id := range u.FollowingIDs {
		v.FollowingIDs[id] = struct{}{}
	}
	for _, id := range u.FollowerIDs {
		v.FollowerIDs[id] = struct{}{}
	}
	return v
}
