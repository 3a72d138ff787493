package shared

// Ref is a CRM lookup field: the related record id plus its display name.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// RefTo builds a lookup used in write payloads; nil when id is empty.
func RefTo(id string) *Ref {
	if id == "" {
		return nil
	}
	return &Ref{ID: id}
}

// RefID returns the id of a possibly nil lookup.
func RefID(r *Ref) string {
	if r == nil {
		return ""
	}
	return r.ID
}

// RefName returns the display name of a possibly nil lookup.
func RefName(r *Ref) string {
	if r == nil {
		return ""
	}
	return r.Name
}
