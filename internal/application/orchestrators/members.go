package orchestrators

import (
	"context"
	"log/slog"
	"strings"

	"warteam/internal/domain/apperr"
	"warteam/internal/domain/member"
)

// ErrMemberExists is returned when adding a member whose id is taken.
var ErrMemberExists = apperr.Conflict("Member already exists")

// MemberStoreForWrite defines the store interface needed by member mutations.
type MemberStoreForWrite interface {
	Save(ctx context.Context, m member.Member) error
	Delete(ctx context.Context, id string) error
}

// MemberDeps holds dependencies for member mutations.
type MemberDeps struct {
	MemberStore MemberStoreForWrite
	Directory   *member.Directory
}

// AddMemberInput carries input for the orchestrator. ID is derived from Name when empty.
type AddMemberInput struct {
	ID        string
	Name      string
	Year      int
	Region    string
	Note      string
	IsSub     bool
	DiscordID string
	Email     string
}

// ExecuteAddMember adds a team member and places them last in sort order.
// PRE: caller is a manager
// POST: the member is persisted and visible through the directory
// INVARIANT: member ids are unique
func ExecuteAddMember(ctx context.Context, input AddMemberInput, deps MemberDeps) (member.Member, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = Slugify(input.Name)
	}
	m := member.Member{
		ID:        id,
		Name:      strings.TrimSpace(input.Name),
		Year:      input.Year,
		Region:    strings.TrimSpace(input.Region),
		Note:      strings.TrimSpace(input.Note),
		IsSub:     input.IsSub,
		SortOrder: deps.Directory.NextSortOrder(),
		DiscordID: strings.TrimSpace(input.DiscordID),
		Email:     strings.TrimSpace(input.Email),
	}
	if err := m.Validate(); err != nil {
		return member.Member{}, err
	}
	if _, exists := deps.Directory.Get(m.ID); exists {
		return member.Member{}, ErrMemberExists
	}

	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return member.Member{}, err
	}
	deps.Directory.Put(m)

	slog.Info("member_event", "event", "member_added", "member_id", m.ID, "is_sub", m.IsSub)
	return m, nil
}

// ExecuteDeleteMember removes a team member. Game records keep the id,
// which then renders verbatim.
// PRE: caller is a manager
// POST: the member is gone from store and directory; member.ErrNotFound otherwise
func ExecuteDeleteMember(ctx context.Context, id string, deps MemberDeps) error {
	if err := deps.MemberStore.Delete(ctx, id); err != nil {
		return err
	}
	deps.Directory.Remove(id)

	slog.Info("member_event", "event", "member_deleted", "member_id", id)
	return nil
}

// Slugify derives a member id from a display name: lowercase letters and
// digits, other runs collapsed to '-'.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// MemberStoreForSeed defines the store interface needed by SeedMembers.
type MemberStoreForSeed interface {
	Count(ctx context.Context) (int, error)
	SaveAll(ctx context.Context, members []member.Member) error
	List(ctx context.Context) ([]member.Member, error)
}

// SeedMembersDeps holds dependencies for SeedMembers.
type SeedMembersDeps struct {
	MemberStore MemberStoreForSeed
	Seed        func() ([]member.Member, error)
}

// ExecuteSeedMembers loads the embedded roster into an empty member table
// and returns the directory built from the store.
// POST: the store holds at least the seed when it was empty
// INVARIANT: an existing member table is never overwritten
func ExecuteSeedMembers(ctx context.Context, deps SeedMembersDeps) (*member.Directory, error) {
	n, err := deps.MemberStore.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		seed, err := deps.Seed()
		if err != nil {
			return nil, err
		}
		if err := deps.MemberStore.SaveAll(ctx, seed); err != nil {
			return nil, err
		}
		slog.Info("member_event", "event", "members_seeded", "count", len(seed))
	}

	members, err := deps.MemberStore.List(ctx)
	if err != nil {
		return nil, err
	}
	return member.NewDirectory(members), nil
}
