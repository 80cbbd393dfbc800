package members

// Member is an entry in the member directory: a card holder known to the
// organisation. The UUID is the value burned onto the member's card.
type Member struct {
	UUID     string `json:"uuid"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}
