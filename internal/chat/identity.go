package chat

// Identity is the public profile bound to an authenticated connection.
type Identity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	AvatarID string `json:"avatarId"`
}

// Complete reports whether every field required to chat is present.
func (i Identity) Complete() bool {
	return i.ID != "" && i.Name != "" && i.AvatarID != ""
}
