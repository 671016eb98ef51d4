package models

// Participant represents a member of the pool
type Participant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	Synthetic bool   `json:"synthetic"` // generated always-favorite entrant
}

// DisplayName returns the name, falling back to the id
func (p *Participant) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}
