package memberrepo

import (
	"context"

	"github.com/zamalek-residents/member-registry/internal/domain"
)

//go:generate mockgen -source=repo.go -destination=mocks/repo_mock.go -package=mocks

// Repository owns the canonical member collection.
//
// Result ordering: List and SearchByName return members in storage iteration
// order (ascending ID for the bundled adapters); callers must not rely on more.
type Repository interface {
	List(ctx context.Context) ([]domain.Member, error)
	GetByID(ctx context.Context, id domain.MemberID) (domain.Member, error)
	// GetByMembershipNumber looks a member up by membership number. The
	// service does not call it: Create and Update enforce uniqueness
	// themselves and return ErrMembershipNumberTaken.
	GetByMembershipNumber(ctx context.Context, number int) (domain.Member, error)
	// SearchByName is a case-insensitive substring match on Name.
	SearchByName(ctx context.Context, query string) ([]domain.Member, error)

	// Create assigns m.ID (max existing ID + 1, or 1) and stores m.
	// The incoming m.ID is ignored.
	Create(ctx context.Context, m domain.Member) (domain.Member, error)
	// Update replaces the stored member with the same ID.
	Update(ctx context.Context, m domain.Member) error
	Delete(ctx context.Context, id domain.MemberID) error

	Stats(ctx context.Context) (domain.Stats, error)

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}

// NextID returns the identifier Create assigns given the current collection.
func NextID(ms []domain.Member) domain.MemberID {
	var max domain.MemberID
	for _, m := range ms {
		if m.ID > max {
			max = m.ID
		}
	}
	return max + 1
}
