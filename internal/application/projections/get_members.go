package projections

import (
	"context"

	"warteam/internal/domain/member"
)

// MemberWithStatus is a member plus whether an account is linked to them.
type MemberWithStatus struct {
	member.Member
	Linked bool `json:"linked"`
}

// MembersResult carries the query result.
type MembersResult struct {
	Active []MemberWithStatus `json:"active"`
	Subs   []MemberWithStatus `json:"subs"`
}

// GetMembersDeps holds dependencies for GetMembers.
type GetMembersDeps struct {
	Directory    *member.Directory
	AccountStore LinkedPlayerLister
	// IncludeContact keeps DiscordID and Email. Only managers get them.
	IncludeContact bool
}

// QueryGetMembers lists active members and subs with their link status.
// POST: both lists are non-nil and in sort order; contact details are
// cleared unless deps.IncludeContact
func QueryGetMembers(ctx context.Context, deps GetMembersDeps) (MembersResult, error) {
	linkedIDs, err := deps.AccountStore.LinkedPlayerIDs(ctx)
	if err != nil {
		return MembersResult{}, err
	}
	linked := make(map[string]bool, len(linkedIDs))
	for _, id := range linkedIDs {
		linked[id] = true
	}

	active, subs := deps.Directory.Split()
	if !deps.IncludeContact {
		active, subs = member.WithoutContact(active), member.WithoutContact(subs)
	}
	res := MembersResult{
		Active: make([]MemberWithStatus, 0, len(active)),
		Subs:   make([]MemberWithStatus, 0, len(subs)),
	}
	for _, m := range active {
		res.Active = append(res.Active, MemberWithStatus{Member: m, Linked: linked[m.ID]})
	}
	for _, m := range subs {
		res.Subs = append(res.Subs, MemberWithStatus{Member: m, Linked: linked[m.ID]})
	}
	return res, nil
}
