package models

// GroupRecord describes a cluster group as stored by a member source.
type GroupRecord struct {
	ID     int      // ID is the unique identifier for the group.
	Name   string   // Name is the human readable group key.
	Anchor GeoPoint // Anchor is where the collapsed representative is drawn.
}

// MemberSeed is a cluster member before it is attached to a group.
// Location is nil until the member's address has been geocoded.
type MemberSeed struct {
	ID       string    // ID is the unique identifier for the member.
	Label    string    // Label is the text shown on the member's marker.
	Address  string    // Address is used to locate members that have no coordinates yet.
	Location *GeoPoint // Location of the member, if known.
}

// Locator returns the text a geocoder should search for: the address when set, the label otherwise.
func (m MemberSeed) Locator() string {
	if m.Address != "" {
		return m.Address
	}

	return m.Label
}
