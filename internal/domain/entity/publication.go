package entity

// Publication represents a news outlet articles are attached to.
// Publications are registered once at process start and never mutated.
type Publication struct {
	ID   string
	Name string
	URL  string
}

// Validate checks that all required Publication fields are present.
func (p *Publication) Validate() error {
	if p.ID == "" {
		return &ValidationError{Field: "id", Message: "must not be empty"}
	}
	if p.Name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if p.URL == "" {
		return &ValidationError{Field: "url", Message: "must not be empty"}
	}
	return nil
}
