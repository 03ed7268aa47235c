package service

// Description is the registry's unit of management. The ID is assigned
// by the caller at registration time and never changes; everything else
// is descriptive metadata or the handle itself.
type Description struct {
	// ID uniquely identifies the service within one registry.
	ID string `json:"id" validate:"required"`
	// Name is the human-readable display name.
	Name string `json:"name,omitempty"`
	// Version is the service version string.
	Version string `json:"version,omitempty"`
	// Description is a one-line summary of what the service does.
	Description string `json:"description,omitempty"`
	// Type categorizes the service: "engine", "cache", "checker", etc.
	Type string `json:"type,omitempty"`
	// Tags are free-form labels used by tag lookups.
	Tags []string `json:"tags,omitempty"`
	// Dependencies lists service IDs that must be registered before
	// this service is considered resolvable. Order is preserved.
	Dependencies []string `json:"dependencies,omitempty"`
	// Instance is the supervised handle. It may be nil for pure
	// metadata registrations, in which case the service is never
	// recoverable.
	Instance Handle `json:"-"`
	// Priority is a tie-break weight for callers choosing between
	// services that fill the same role. The supervisor passes it
	// through without interpreting it.
	Priority int `json:"priority,omitempty"`
}

// HasTag reports whether the description carries the given tag.
func (d *Description) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasAllTags reports whether the description carries every given tag.
func (d *Description) HasAllTags(tags []string) bool {
	for _, t := range tags {
		if !d.HasTag(t) {
			return false
		}
	}
	return true
}

// HasAnyTag reports whether the description carries at least one of
// the given tags.
func (d *Description) HasAnyTag(tags []string) bool {
	for _, t := range tags {
		if d.HasTag(t) {
			return true
		}
	}
	return false
}
