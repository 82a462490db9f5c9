package models

// Team is a group of channels. Identity is ID.
type Team struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`

	// PictureETag identifies the team picture content. Empty when the
	// service did not report one.
	PictureETag string `json:"pictureETag,omitempty"`

	TeamSiteInformation TeamSiteInformation `json:"teamSiteInformation"`
	Channels            []Channel           `json:"channels,omitempty"`
}

// TeamSiteInformation carries the group identity used to address team assets.
type TeamSiteInformation struct {
	GroupID string `json:"groupId"`
}

// Channel belongs to exactly one team. The channel whose ID equals the team
// ID is the team's general channel.
type Channel struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Profile resolves message authorship. Profiles are immutable once loaded.
type Profile struct {
	ID          string `json:"mri"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
}

// IsGeneral reports whether c is the general channel of team.
func (c Channel) IsGeneral(team Team) bool {
	return c.ID != "" && c.ID == team.ID
}

// CloneTeam returns a copy of t that shares no slices with it.
func CloneTeam(t Team) Team {
	out := t
	if len(t.Channels) > 0 {
		out.Channels = append([]Channel(nil), t.Channels...)
	}
	return out
}

// ImageRequest addresses a team picture. Identity is the cache key; the
// remaining fields are what the service needs to serve the bytes.
type ImageRequest struct {
	Identity    string
	ETag        string
	GroupID     string
	DisplayName string
}
