package streak

import (
	"errors"

	"bunnyfocus/internal/catalog"
	"bunnyfocus/internal/models"
)

var (
	ErrNoOfferToday     = errors.New("no offer for today")
	ErrAlreadyClaimed   = errors.New("today's offer already claimed")
	ErrOptionNotOffered = errors.New("item is not among today's options")
	ErrUnknownItem      = errors.New("unknown item")
	ErrStreakTooLow     = errors.New("streak too low for item")
	ErrItemNotOwned     = errors.New("item not owned")
)

// ClaimItem adds one of today's options to the collection. Checks run in a
// fixed order and the first failure is returned with p unchanged.
func ClaimItem(p models.Profile, cat *catalog.Catalog, itemID, today string) (models.Profile, error) {
	if p.OptionsDate != today {
		return p, ErrNoOfferToday
	}
	if p.OptionsClaimed {
		return p, ErrAlreadyClaimed
	}
	if !p.Offered(itemID) {
		return p, ErrOptionNotOffered
	}
	item, ok := cat.Get(itemID)
	if !ok {
		return p, ErrUnknownItem
	}
	// The first claim ignores thresholds so day one always yields a bunny.
	if len(p.Collection) > 0 && p.Streak < item.UnlockStreak {
		return p, ErrStreakTooLow
	}

	out := p.Clone()
	if !out.Owns(itemID) {
		out.Collection = append(out.Collection, itemID)
	}
	out.OptionsClaimed = true
	return out, nil
}

// SelectOwnedItem marks an owned item as the displayed companion.
func SelectOwnedItem(p models.Profile, itemID string) (models.Profile, error) {
	if !p.Owns(itemID) {
		return p, ErrItemNotOwned
	}
	out := p.Clone()
	out.SelectedItem = itemID
	return out, nil
}
