package models

import "slices"

// Calendar is the in-memory set of events a user owns or attends. It is
// rebuilt wholesale on every load and never shared between users.
type Calendar []*Event

// Find returns the event stored under id.
func (c Calendar) Find(id int64) (*Event, bool) {
	for _, ev := range c {
		if ev.ID != nil && *ev.ID == id {
			return ev, true
		}
	}
	return nil, false
}

// Contains reports whether an event with id is present.
func (c Calendar) Contains(id int64) bool {
	_, ok := c.Find(id)
	return ok
}

// Add appends an event.
func (c *Calendar) Add(ev *Event) {
	*c = append(*c, ev)
}

// Remove drops the event stored under id and reports whether one was found.
func (c *Calendar) Remove(id int64) bool {
	for i, ev := range *c {
		if ev.ID != nil && *ev.ID == id {
			*c = slices.Delete(*c, i, i+1)
			return true
		}
	}
	return false
}

// Clear empties the calendar in place, releasing the events it held.
func (c *Calendar) Clear() {
	clear(*c)
	*c = (*c)[:0]
}
