package streak

import (
	"bunnyfocus/internal/catalog"
	"bunnyfocus/internal/models"
)

// Offer is today's set of claimable items.
type Offer struct {
	Date    string         `json:"date"`
	Items   []catalog.Item `json:"items"`
	Claimed bool           `json:"claimed"`
}

// TodayOffer resolves the daily options of p into catalog items. The offer is
// empty when options were generated for another day.
func TodayOffer(p models.Profile, cat *catalog.Catalog, today string) Offer {
	offer := Offer{Date: today, Items: []catalog.Item{}}
	if p.OptionsDate != today {
		return offer
	}
	offer.Claimed = p.OptionsClaimed
	for _, id := range p.DailyOptions {
		if item, ok := cat.Get(id); ok {
			offer.Items = append(offer.Items, item)
		}
	}
	return offer
}

// CollectionEntry is a catalog item annotated with the profile's state.
type CollectionEntry struct {
	catalog.Item
	Owned    bool `json:"owned"`
	Unlocked bool `json:"unlocked"`
	Selected bool `json:"selected"`
}

// CatalogView annotates every catalog item, in catalog order.
func CatalogView(p models.Profile, cat *catalog.Catalog) []CollectionEntry {
	items := cat.Items()
	out := make([]CollectionEntry, 0, len(items))
	for _, item := range items {
		out = append(out, CollectionEntry{
			Item:     item,
			Owned:    p.Owns(item.ID),
			Unlocked: item.UnlockStreak <= p.Streak,
			Selected: p.SelectedItem == item.ID,
		})
	}
	return out
}
