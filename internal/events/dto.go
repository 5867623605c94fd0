package events

import (
	"time"

	"github.com/eventdesk/eventdesk/internal/backend"
)

// datetime-local inputs post this layout.
const formTimeLayout = "2006-01-02T15:04"

// EventForm carries the raw form values for create/edit screens.
type EventForm struct {
	Title       string `validate:"required,max=200"`
	Description string `validate:"max=5000"`
	Venue       string `validate:"required,max=200"`
	Category    string `validate:"max=100"`
	Capacity    int    `validate:"gte=1,lte=1000000"`
	StartsAt    string `validate:"required"`
	EndsAt      string `validate:"required"`
}

// Input converts the form to a backend payload, parsing the schedule fields
// itself; a failed parse is returned as the error.
func (f EventForm) Input() (backend.EventInput, error) {
	starts, ends, err := f.Times()
	if err != nil {
		return backend.EventInput{}, err
	}
	return backend.EventInput{
		Title:       f.Title,
		Description: f.Description,
		Venue:       f.Venue,
		Category:    f.Category,
		Capacity:    f.Capacity,
		StartsAt:    starts,
		EndsAt:      ends,
	}, nil
}

// Times parses the schedule fields.
func (f EventForm) Times() (time.Time, time.Time, error) {
	starts, err := time.Parse(formTimeLayout, f.StartsAt)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	ends, err := time.Parse(formTimeLayout, f.EndsAt)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return starts, ends, nil
}

// formFromEvent prefills the form from an existing record.
func formFromEvent(e *backend.Event) EventForm {
	return EventForm{
		Title:       e.Title,
		Description: e.Description,
		Venue:       e.Venue,
		Category:    e.Category,
		Capacity:    e.Capacity,
		StartsAt:    e.StartsAt.Format(formTimeLayout),
		EndsAt:      e.EndsAt.Format(formTimeLayout),
	}
}
