package projections

import (
	"context"

	"warteam/internal/application/listutil"
	"warteam/internal/domain/game"
	"warteam/internal/domain/member"
	"warteam/internal/domain/preference"
)

// GetScheduleQuery carries query parameters.
type GetScheduleQuery struct {
	Params listutil.ScheduleParams
	Today  string // YYYY-MM-DD in the team's time zone
}

// GetScheduleDeps holds dependencies for GetSchedule.
type GetScheduleDeps struct {
	GameStore       GameLister
	PreferenceStore PreferenceLister
	Directory       *member.Directory
}

// PlayerView is a player as shown on a game card.
type PlayerView struct {
	ID         string
	Name       string
	Preference string
	IsSub      bool
}

// RosterOption is one player offered in a game's roster picker.
type RosterOption struct {
	PlayerView
	Available bool
	Selected  bool
}

// GameCard is one game with its player sets resolved to names.
type GameCard struct {
	Game        game.Game
	DateLabel   string
	TimeLabel   string
	Available   []PlayerView
	Unavailable []PlayerView
	NoResponse  []PlayerView // active members who have not answered
	Roster      []PlayerView
	Subs        []PlayerView
	Withdrawals []PlayerView
	// RosterOptions lists available starters, then available subs, then
	// everyone else, with the current roster selected.
	RosterOptions []RosterOption
	Capacity      int
	RosterFull    bool
}

// ScheduleResult carries the query result.
type ScheduleResult struct {
	Cards    []GameCard
	PageInfo listutil.PageInfo
	Params   listutil.ScheduleParams
}

// QueryGetSchedule builds the game cards for the schedule page.
// PRE: Today is a YYYY-MM-DD date
// POST: cards are in date then time order, filtered and paged by Params
// INVARIANT: unknown player ids are shown verbatim
func QueryGetSchedule(ctx context.Context, query GetScheduleQuery, deps GetScheduleDeps) (ScheduleResult, error) {
	games, err := deps.GameStore.List(ctx)
	if err != nil {
		return ScheduleResult{}, err
	}
	prefs, err := deps.PreferenceStore.All(ctx)
	if err != nil {
		return ScheduleResult{}, err
	}

	var matched []game.Game
	for _, g := range games {
		if query.Params.InScope(g.Date, query.Today) && query.Params.Matches(g.League, g.Opponent) {
			matched = append(matched, g)
		}
	}
	if query.Params.Scope == listutil.ScopePast {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}

	info := listutil.NewPageInfo(query.Params.Page, query.Params.PerPage, len(matched))
	page := listutil.Window(matched, info)

	active, _ := deps.Directory.Split()
	all := deps.Directory.All()
	cards := make([]GameCard, 0, len(page))
	for _, g := range page {
		cards = append(cards, buildCard(g, active, all, prefs, deps.Directory))
	}
	return ScheduleResult{Cards: cards, PageInfo: info, Params: query.Params}, nil
}

func buildCard(g game.Game, active, all []member.Member, prefs map[string]string, dir *member.Directory) GameCard {
	view := func(ids []string) []PlayerView {
		out := make([]PlayerView, 0, len(ids))
		for _, id := range ids {
			m, ok := dir.Get(id)
			pv := PlayerView{ID: id, Name: id, Preference: preference.Resolve(prefs, id)}
			if ok {
				pv.Name, pv.IsSub = m.Name, m.IsSub
			}
			out = append(out, pv)
		}
		return out
	}

	var silent []string
	for _, m := range active {
		if !g.Available.Contains(m.ID) && !g.Unavailable.Contains(m.ID) {
			silent = append(silent, m.ID)
		}
	}

	available := view(g.Available.IDs())
	return GameCard{
		Game:          g,
		DateLabel:     g.DisplayDate(),
		TimeLabel:     g.DisplayTime(),
		Available:     available,
		Unavailable:   view(g.Unavailable.IDs()),
		NoResponse:    view(silent),
		Roster:        view(g.Roster.IDs()),
		Subs:          view(g.Subs.IDs()),
		Withdrawals:   view(g.Withdrawals.IDs()),
		RosterOptions: rosterOptions(g, available, all, view),
		Capacity:      g.RosterCapacity(),
		RosterFull:    g.Roster.Len() >= g.RosterCapacity(),
	}
}

// rosterOptions orders the picker: available players preferring to start,
// available players preferring the bench, remaining members, then rostered
// ids the directory no longer knows.
// POST: every rostered id appears exactly once
func rosterOptions(g game.Game, available []PlayerView, all []member.Member, view func([]string) []PlayerView) []RosterOption {
	out := make([]RosterOption, 0, len(all)+g.Roster.Len())
	seen := make(map[string]bool, cap(out))
	add := func(pv PlayerView) {
		if seen[pv.ID] {
			return
		}
		seen[pv.ID] = true
		out = append(out, RosterOption{PlayerView: pv, Available: g.Available.Contains(pv.ID), Selected: g.Roster.Contains(pv.ID)})
	}

	for _, pv := range available {
		if pv.Preference == preference.Starter {
			add(pv)
		}
	}
	for _, pv := range available {
		add(pv)
	}
	ids := make([]string, 0, len(all))
	for _, m := range all {
		ids = append(ids, m.ID)
	}
	for _, pv := range view(ids) {
		add(pv)
	}
	for _, pv := range view(g.Roster.IDs()) {
		add(pv)
	}
	return out
}
