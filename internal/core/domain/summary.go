package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMissingCategories is returned when a record carries no categories string.
	ErrMissingCategories = errors.New("categories not set for RSO")
	ErrMissingID         = errors.New("id not set for RSO")
	ErrMissingTitle      = errors.New("title not set for RSO")
)

// CategoryError reports a categories string whose prefix is not a known color.
type CategoryError struct {
	Categories string
	Prefix     string
}

func (e *CategoryError) Error() string {
	return fmt.Sprintf("unknown RSO color: %q (categories %q)", e.Prefix, e.Categories)
}

// RawOrganization is the record shape served by the RSO backend.
type RawOrganization struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Categories string `json:"categories"`
}

// Summary is the listing entry shown before an RSO's full detail is loaded.
// Values are immutable once constructed; use Equal to compare, since identity
// is the ID alone.
type Summary struct {
	id    string
	title string
	color Color
}

// NewSummary builds a Summary from a raw backend record, deriving the color
// from its categories string.
func NewSummary(raw RawOrganization) (Summary, error) {
	color, err := ColorFromCategories(raw.Categories)
	if err != nil {
		return Summary{}, fmt.Errorf("rso %q: %w", raw.ID, err)
	}
	return NewSummaryWithColor(raw.ID, raw.Title, color)
}

// NewSummaryWithColor builds a Summary whose color has already been resolved.
func NewSummaryWithColor(id, title string, color Color) (Summary, error) {
	if id == "" {
		return Summary{}, ErrMissingID
	}
	if title == "" {
		return Summary{}, fmt.Errorf("rso %q: %w", id, ErrMissingTitle)
	}
	if !color.Valid() {
		return Summary{}, fmt.Errorf("rso %q: unknown color %q", id, string(color))
	}
	return Summary{id: id, title: title, color: color}, nil
}

func (s Summary) ID() string    { return s.id }
func (s Summary) Title() string { return s.title }
func (s Summary) Color() Color  { return s.color }

// Equal reports whether s and other identify the same RSO.
func (s Summary) Equal(other Summary) bool {
	return s.id == other.id
}

func (s Summary) String() string {
	return fmt.Sprintf("%s (%s, %s)", s.title, s.id, s.color)
}

// summaryWire accepts both the raw record shape and the pre-resolved shape.
type summaryWire struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Categories *string `json:"categories"`
	Color      *string `json:"color"`
}

// MarshalJSON writes the pre-resolved shape {id, title, color}.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Color Color  `json:"color"`
	}{s.id, s.title, s.color})
}

// UnmarshalJSON decodes either {id, title, categories} or {id, title, color}.
// A categories field wins when both are present.
func (s *Summary) UnmarshalJSON(data []byte) error {
	var w summaryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var (
		parsed Summary
		err    error
	)
	switch {
	case w.Categories != nil:
		parsed, err = NewSummary(RawOrganization{ID: w.ID, Title: w.Title, Categories: *w.Categories})
	case w.Color != nil:
		var color Color
		if color, err = ParseColor(*w.Color); err != nil {
			return fmt.Errorf("rso %q: %w", w.ID, err)
		}
		parsed, err = NewSummaryWithColor(w.ID, w.Title, color)
	default:
		err = fmt.Errorf("rso %q: %w", w.ID, ErrMissingCategories)
	}
	if err != nil {
		return err
	}

	*s = parsed
	return nil
}

// DecodeSummaries decodes a JSON array of records. The batch is all or
// nothing: one bad record fails the whole decode.
func DecodeSummaries(body []byte) ([]Summary, error) {
	var summaries []Summary
	if err := json.Unmarshal(body, &summaries); err != nil {
		return nil, err
	}
	if summaries == nil {
		// "null" is valid JSON but not a collection.
		return nil, errors.New("summary payload is not an array")
	}
	return summaries, nil
}
