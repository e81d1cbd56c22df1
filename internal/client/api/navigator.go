package api

import "sync"

// RouteTracker is an in-memory Navigator. OnNavigate, when set, is called
// after every route change.
type RouteTracker struct {
	mu         sync.Mutex
	route      string
	navigated  int
	OnNavigate func(route string)
}

// NewRouteTracker returns a tracker positioned at route.
func NewRouteTracker(route string) *RouteTracker {
	return &RouteTracker{route: route}
}

// Route implements Navigator.
func (t *RouteTracker) Route() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.route
}

// Navigate implements Navigator.
func (t *RouteTracker) Navigate(route string) {
	t.mu.Lock()
	t.route = route
	t.navigated++
	cb := t.OnNavigate
	t.mu.Unlock()

	if cb != nil {
		cb(route)
	}
}

// Navigations returns how many times Navigate has been called.
func (t *RouteTracker) Navigations() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.navigated
}
