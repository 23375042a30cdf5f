// Package streak implements the daily streak and reward rules.
//
// All functions are pure: they take a profile value and return an updated
// copy. Persistence and locking belong to the caller.
package streak

import (
	"bunnyfocus/internal/catalog"
	"bunnyfocus/internal/models"
)

// MaxDailyOptions is the number of items offered per day when the pool allows it.
const MaxDailyOptions = 3

// Random is the source used to draw daily options.
type Random interface {
	Perm(n int) []int
}

// RecordSessionCompletion counts one completed session on day today
// (formatted with models.DateLayout). It reports whether a new set of daily
// options was generated.
//
// Any change of day increments the streak, whatever the gap since the last
// session. Resetting on missed days is not done.
func RecordSessionCompletion(p models.Profile, cat *catalog.Catalog, today string, rnd Random) (models.Profile, bool) {
	out := p.Clone()
	out.CompletedSessions++

	newDay := false
	switch out.LastActivityDate {
	case "":
		out.Streak = 1
		newDay = true
	case today:
	default:
		out.Streak++
		newDay = true
	}

	if newDay {
		out.DailyOptions = DrawOptions(out, cat, rnd)
		out.OptionsDate = today
		out.OptionsClaimed = false
	}
	out.LastActivityDate = today
	return out, newDay
}

// DrawOptions picks up to MaxDailyOptions distinct ids from the offer pool.
func DrawOptions(p models.Profile, cat *catalog.Catalog, rnd Random) []string {
	pool := OptionPool(p, cat)
	n := len(pool)
	if n > MaxDailyOptions {
		n = MaxDailyOptions
	}
	picked := make([]string, 0, n)
	for _, i := range rnd.Perm(len(pool))[:n] {
		picked = append(picked, pool[i])
	}
	return picked
}

// OptionPool returns the candidate ids for today's offer: unlocked items not
// yet owned, else anything not owned, else the whole catalog.
func OptionPool(p models.Profile, cat *catalog.Catalog) []string {
	items := cat.Items()
	var unlocked, unowned []string
	for _, item := range items {
		if p.Owns(item.ID) {
			continue
		}
		unowned = append(unowned, item.ID)
		if item.UnlockStreak <= p.Streak {
			unlocked = append(unlocked, item.ID)
		}
	}
	if len(unlocked) > 0 {
		return unlocked
	}
	if len(unowned) > 0 {
		return unowned
	}
	all := make([]string, 0, len(items))
	for _, item := range items {
		all = append(all, item.ID)
	}
	return all
}
