package scrape

// Registry maps source ids to their scrapers and fixes the iteration order
// used by aggregate requests. Adding a source means registering one scraper;
// nothing downstream changes.
type Registry struct {
	order    []string
	scrapers map[string]Scraper
}

// NewRegistry builds a registry preserving the given registration order.
func NewRegistry(scrapers ...Scraper) *Registry {
	r := &Registry{scrapers: make(map[string]Scraper, len(scrapers))}
	for _, s := range scrapers {
		id := s.SourceID()
		if _, exists := r.scrapers[id]; exists {
			continue
		}
		r.order = append(r.order, id)
		r.scrapers[id] = s
	}
	return r
}

// Lookup returns the scraper registered for a source id.
func (r *Registry) Lookup(sourceID string) (Scraper, bool) {
	s, ok := r.scrapers[sourceID]
	return s, ok
}

// IDs returns all source ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
