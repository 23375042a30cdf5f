package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"bunnyfocus/internal/auth"
	"bunnyfocus/internal/catalog"
	"bunnyfocus/internal/models"
	"bunnyfocus/internal/repo"
	"bunnyfocus/internal/streak"
)

// maxSettingLength bounds theme and accent values, in bytes.
const maxSettingLength = 64

var (
	ErrInvalidSettings = errors.New("invalid settings")
	ErrChatDisabled    = errors.New("chat disabled")
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Random draws daily options and quotes.
type Random interface {
	Perm(n int) []int
	Intn(n int) int
}

type ChatClient interface {
	Ask(ctx context.Context, message string, items []catalog.Item) (string, error)
}

type Service struct {
	Store     repo.Store
	Catalog   *catalog.Catalog
	Random    Random
	Clock     Clock
	Location  *time.Location
	Auth      *auth.Manager
	Assistant ChatClient
}

func New(store repo.Store, cat *catalog.Catalog, rnd Random) *Service {
	return &Service{Store: store, Catalog: cat, Random: rnd, Clock: systemClock{}, Location: time.Local}
}

// Today is the current calendar day in the service's location.
func (s *Service) Today() string {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	return s.Clock.Now().In(loc).Format(models.DateLayout)
}

type Dashboard struct {
	Today             string          `json:"today"`
	FocusQuote        string          `json:"focus_quote"`
	BreakQuote        string          `json:"break_quote"`
	CompletedSessions int             `json:"completed_sessions"`
	Streak            int             `json:"streak"`
	SelectedItem      *catalog.Item   `json:"selected_item"`
	Settings          models.Settings `json:"settings"`
}

func (s *Service) Dashboard(ctx context.Context, profileID string) (Dashboard, error) {
	p, err := s.Store.Load(ctx, profileID)
	if err != nil {
		return Dashboard{}, err
	}
	d := Dashboard{
		Today:             s.Today(),
		FocusQuote:        s.pick(focusQuotes),
		BreakQuote:        s.pick(breakQuotes),
		CompletedSessions: p.CompletedSessions,
		Streak:            p.Streak,
		Settings:          p.Settings(),
	}
	if item, ok := s.Catalog.Get(p.SelectedItem); ok {
		d.SelectedItem = &item
	}
	return d, nil
}

func (s *Service) pick(quotes []string) string {
	return quotes[s.Random.Intn(len(quotes))]
}

func (s *Service) Profile(ctx context.Context, profileID string) (models.Profile, error) {
	return s.Store.Load(ctx, profileID)
}

type Completion struct {
	Profile    models.Profile `json:"profile"`
	NewOptions bool           `json:"new_options"`
	Offer      streak.Offer   `json:"offer"`
}

// CompleteSession records one finished focus session.
func (s *Service) CompleteSession(ctx context.Context, profileID string) (Completion, error) {
	today := s.Today()
	var generated bool
	p, err := s.Store.Update(ctx, profileID, func(p *models.Profile) error {
		*p, generated = streak.RecordSessionCompletion(*p, s.Catalog, today, s.Random)
		return nil
	})
	if err != nil {
		return Completion{}, err
	}
	return Completion{Profile: p, NewOptions: generated, Offer: streak.TodayOffer(p, s.Catalog, today)}, nil
}

func (s *Service) Offer(ctx context.Context, profileID string) (streak.Offer, error) {
	p, err := s.Store.Load(ctx, profileID)
	if err != nil {
		return streak.Offer{}, err
	}
	return streak.TodayOffer(p, s.Catalog, s.Today()), nil
}

func (s *Service) Claim(ctx context.Context, profileID, itemID string) (models.Profile, error) {
	today := s.Today()
	return s.Store.Update(ctx, profileID, func(p *models.Profile) error {
		next, err := streak.ClaimItem(*p, s.Catalog, itemID, today)
		if err != nil {
			return err
		}
		*p = next
		return nil
	})
}

func (s *Service) Select(ctx context.Context, profileID, itemID string) (models.Profile, error) {
	return s.Store.Update(ctx, profileID, func(p *models.Profile) error {
		next, err := streak.SelectOwnedItem(*p, itemID)
		if err != nil {
			return err
		}
		*p = next
		return nil
	})
}

func (s *Service) CatalogView(ctx context.Context, profileID string) ([]streak.CollectionEntry, error) {
	p, err := s.Store.Load(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return streak.CatalogView(p, s.Catalog), nil
}

func (s *Service) Settings(ctx context.Context, profileID string) (models.Settings, error) {
	p, err := s.Store.Load(ctx, profileID)
	if err != nil {
		return models.Settings{}, err
	}
	return p.Settings(), nil
}

// SettingsUpdate holds the fields to change. Nil fields are left as they are.
type SettingsUpdate struct {
	Theme       *string
	AccentColor *string
}

func (s *Service) UpdateSettings(ctx context.Context, profileID string, u SettingsUpdate) (models.Settings, error) {
	if u.Theme == nil && u.AccentColor == nil {
		return models.Settings{}, ErrInvalidSettings
	}
	theme, err := cleanSetting(u.Theme)
	if err != nil {
		return models.Settings{}, err
	}
	accent, err := cleanSetting(u.AccentColor)
	if err != nil {
		return models.Settings{}, err
	}
	p, err := s.Store.Update(ctx, profileID, func(p *models.Profile) error {
		if theme != "" {
			p.Theme = theme
		}
		if accent != "" {
			p.AccentColor = accent
		}
		return nil
	})
	if err != nil {
		return models.Settings{}, err
	}
	return p.Settings(), nil
}

func cleanSetting(v *string) (string, error) {
	if v == nil {
		return "", nil
	}
	out := strings.TrimSpace(*v)
	if out == "" || len(out) > maxSettingLength {
		return "", ErrInvalidSettings
	}
	return out, nil
}

// Chat forwards message to the chat client with the catalog as context.
func (s *Service) Chat(ctx context.Context, message string) (string, error) {
	if s.Assistant == nil {
		return "", ErrChatDisabled
	}
	return s.Assistant.Ask(ctx, message, s.Catalog.Items())
}

func (s *Service) Login(password, profileID string) (string, time.Time, error) {
	if s.Auth == nil {
		return "", time.Time{}, auth.ErrAuthDisabled
	}
	return s.Auth.Login(password, profileID)
}
