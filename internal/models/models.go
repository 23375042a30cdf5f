package models

import "strings"

const (
	DefaultTheme       = "light"
	DefaultAccentColor = "#f4a7b9"

	// DateLayout is the calendar-day format used by every date field.
	DateLayout = "2006-01-02"
)

// Profile is the whole persisted state of one user. It is always read and
// written as a single record.
type Profile struct {
	CompletedSessions int      `json:"completed_sessions"`
	LastActivityDate  string   `json:"last_date"`
	Streak            int      `json:"streak"`
	Collection        []string `json:"collection"`
	DailyOptions      []string `json:"daily_options"`
	OptionsDate       string   `json:"options_date"`
	OptionsClaimed    bool     `json:"options_claimed"`
	SelectedItem      string   `json:"selected_item"`
	Theme             string   `json:"theme"`
	AccentColor       string   `json:"accent_color"`
}

// NewProfile returns the record created on first access.
func NewProfile() Profile {
	return Profile{
		Collection:   []string{},
		DailyOptions: []string{},
		Theme:        DefaultTheme,
		AccentColor:  DefaultAccentColor,
	}
}

// Owns reports whether id has been claimed.
func (p Profile) Owns(id string) bool {
	for _, owned := range p.Collection {
		if owned == id {
			return true
		}
	}
	return false
}

// Offered reports whether id is among the current daily options.
func (p Profile) Offered(id string) bool {
	for _, option := range p.DailyOptions {
		if option == id {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with p.
func (p Profile) Clone() Profile {
	out := p
	out.Collection = append([]string{}, p.Collection...)
	out.DailyOptions = append([]string{}, p.DailyOptions...)
	return out
}

// Normalize fills fields missing from older records and restores the
// invariants a hand-edited record may have broken.
func (p Profile) Normalize() Profile {
	out := p.Clone()
	if out.CompletedSessions < 0 {
		out.CompletedSessions = 0
	}
	if out.Streak < 0 {
		out.Streak = 0
	}
	seen := make(map[string]struct{}, len(out.Collection))
	collection := out.Collection[:0]
	for _, id := range out.Collection {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		collection = append(collection, id)
	}
	out.Collection = collection
	if out.SelectedItem != "" && !out.Owns(out.SelectedItem) {
		out.SelectedItem = ""
	}
	if strings.TrimSpace(out.Theme) == "" {
		out.Theme = DefaultTheme
	}
	if strings.TrimSpace(out.AccentColor) == "" {
		out.AccentColor = DefaultAccentColor
	}
	return out
}

// Settings is the display preference subset of a profile.
type Settings struct {
	Theme       string `json:"theme"`
	AccentColor string `json:"accent_color"`
}

func (p Profile) Settings() Settings {
	return Settings{Theme: p.Theme, AccentColor: p.AccentColor}
}
