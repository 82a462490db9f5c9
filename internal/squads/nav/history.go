package nav

// History is the back/forward stack behind the navbar. The zero value
// is on the home page.
type History struct {
	back    []Page
	forward []Page
	current Page
}

// Current returns the page being shown.
func (h *History) Current() Page {
	return h.current
}

// Open navigates to page and clears the forward stack. Opening the current
// page is a no-op.
func (h *History) Open(page Page) {
	if page == h.current {
		return
	}
	h.back = append(h.back, h.current)
	h.current = page
	h.forward = h.forward[:0]
}

// Back steps back and reports whether it moved.
func (h *History) Back() bool {
	if len(h.back) == 0 {
		return false
	}
	h.forward = append(h.forward, h.current)
	h.current = h.back[len(h.back)-1]
	h.back = h.back[:len(h.back)-1]
	return true
}

// Forward undoes a Back.
func (h *History) Forward() bool {
	if len(h.forward) == 0 {
		return false
	}
	h.back = append(h.back, h.current)
	h.current = h.forward[len(h.forward)-1]
	h.forward = h.forward[:len(h.forward)-1]
	return true
}

// CanBack reports whether Back would move.
func (h *History) CanBack() bool { return len(h.back) > 0 }

// CanForward reports whether Forward would move.
func (h *History) CanForward() bool { return len(h.forward) > 0 }
