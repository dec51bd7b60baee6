package models

import "time"

// Profile is the per-user persisted record of display and social data,
// keyed by the auth user id (1:1 with Session, no separate generated key).
// Counters are maintained server-side by other parts of the system and are
// only ever read here.
type Profile struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	FullName       string    `json:"full_name"`
	Bio            string    `json:"bio"`
	AvatarURL      string    `json:"avatar_url"`
	FollowersCount int64     `json:"followers_count"`
	FollowingCount int64     `json:"following_count"`
	LikesCount     int64     `json:"likes_count"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewDefaultProfile builds the profile row the client inserts when the
// server-side trigger has not created one: chosen username, empty display
// fields, all counters zero.
func NewDefaultProfile(userID, email, username string) *Profile {
	return &Profile{
		ID:        userID,
		Email:     email,
		Username:  username,
		UpdatedAt: time.Now().UTC(),
	}
}

// ProfilePatch is a partial profile update. Nil fields are left untouched;
// counters are deliberately not patchable from the client.
type ProfilePatch struct {
	Username  *string `json:"username,omitempty"`
	FullName  *string `json:"full_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.Username == nil && p.FullName == nil && p.Bio == nil && p.AvatarURL == nil
}

// Apply merges the patch's non-nil fields into a copy of pr and stamps
// UpdatedAt. The receiver is not modified.
func (p ProfilePatch) Apply(pr Profile) Profile {
	if p.Username != nil {
		pr.Username = *p.Username
	}
	if p.FullName != nil {
		pr.FullName = *p.FullName
	}
	if p.Bio != nil {
		pr.Bio = *p.Bio
	}
	if p.AvatarURL != nil {
		pr.AvatarURL = *p.AvatarURL
	}
	pr.UpdatedAt = time.Now().UTC()
	return pr
}
