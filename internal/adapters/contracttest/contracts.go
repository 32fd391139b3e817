package contracttest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zamalek-residents/member-registry/internal/domain"
	memberrepoport "github.com/zamalek-residents/member-registry/internal/ports/out/memberrepo"
)

type CleanupFunc = func()

// MemberRepoFactory returns an empty repository. Every subtest gets a fresh one.
type MemberRepoFactory func(t *testing.T) (memberrepoport.Repository, CleanupFunc)

func newRepo(t *testing.T, factory MemberRepoFactory) memberrepoport.Repository {
	t.Helper()
	repo, cleanup := factory(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}
	return repo
}

func member(name string, number int) domain.Member {
	return domain.Member{
		Name:             name,
		MembershipNumber: number,
		UnitNumber:       3,
		BuildingNumber:   4,
		District:         "Zamalek",
		AmountPaid:       100,
		RegistrationDate: "2024-06-01",
	}
}

func mustCreate(t *testing.T, repo memberrepoport.Repository, m domain.Member) domain.Member {
	t.Helper()
	created, err := repo.Create(context.Background(), m)
	require.NoError(t, err, "Create %q", m.Name)
	return created
}

func count(t *testing.T, repo memberrepoport.Repository) int {
	t.Helper()
	ms, err := repo.List(context.Background())
	require.NoError(t, err)
	return len(ms)
}

// RunMemberRepo pins the behavior every memberrepo.Repository adapter shares.
func RunMemberRepo(t *testing.T, factory MemberRepoFactory) {
	t.Helper()
	ctx := context.Background()

	t.Run("create assigns sequential ids and round-trips", func(t *testing.T) {
		repo := newRepo(t, factory)

		in := member("  Alice Johnson ", 2001)
		in.District = " Zamalek East "
		in.AmountPaid = 7500.5
		a := mustCreate(t, repo, in)
		b := mustCreate(t, repo, member("Bob", 2002))
		assert.Equal(t, domain.MemberID(1), a.ID)
		assert.Equal(t, domain.MemberID(2), b.ID)

		got, err := repo.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.Member{
			ID:               1,
			Name:             "Alice Johnson",
			MembershipNumber: 2001,
			UnitNumber:       3,
			BuildingNumber:   4,
			District:         "Zamalek East",
			AmountPaid:       7500.5,
			RegistrationDate: "2024-06-01",
		}, got)
		assert.Equal(t, got, a)
	})

	t.Run("create ignores caller supplied id", func(t *testing.T) {
		repo := newRepo(t, factory)
		in := member("A", 1)
		in.ID = 99
		a := mustCreate(t, repo, in)
		assert.Equal(t, domain.MemberID(1), a.ID)
	})

	t.Run("next id follows the current maximum", func(t *testing.T) {
		repo := newRepo(t, factory)
		mustCreate(t, repo, member("A", 1))
		mustCreate(t, repo, member("B", 2))
		mustCreate(t, repo, member("C", 3))

		require.NoError(t, repo.Delete(ctx, 3))
		d := mustCreate(t, repo, member("D", 4))
		assert.Equal(t, domain.MemberID(3), d.ID)

		require.NoError(t, repo.Delete(ctx, 2))
		e := mustCreate(t, repo, member("E", 5))
		assert.Equal(t, domain.MemberID(4), e.ID)
	})

	t.Run("create rejects duplicate membership number", func(t *testing.T) {
		repo := newRepo(t, factory)
		mustCreate(t, repo, member("A", 1001))

		_, err := repo.Create(ctx, member("B", 1001))
		require.Error(t, err)
		assert.True(t, errors.Is(err, memberrepoport.ErrMembershipNumberTaken), "err=%v", err)
		assert.Equal(t, 1, count(t, repo))
	})

	t.Run("get by membership number", func(t *testing.T) {
		repo := newRepo(t, factory)
		a := mustCreate(t, repo, member("A", 1001))

		got, err := repo.GetByMembershipNumber(ctx, 1001)
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)

		_, err = repo.GetByMembershipNumber(ctx, 4040)
		assert.ErrorIs(t, err, memberrepoport.ErrNotFound)

		_, err = repo.GetByID(ctx, 77)
		assert.ErrorIs(t, err, memberrepoport.ErrNotFound)
	})

	t.Run("update replaces the stored member", func(t *testing.T) {
		repo := newRepo(t, factory)
		a := mustCreate(t, repo, member("A", 1001))

		a.Name = " Alice Z "
		a.MembershipNumber = 1500
		a.AmountPaid = 42.25
		require.NoError(t, repo.Update(ctx, a))

		got, err := repo.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice Z", got.Name)
		assert.Equal(t, 1500, got.MembershipNumber)
		assert.Equal(t, 42.25, got.AmountPaid)
		assert.Equal(t, "2024-06-01", got.RegistrationDate)

		// The old number is free again.
		_, err = repo.GetByMembershipNumber(ctx, 1001)
		assert.ErrorIs(t, err, memberrepoport.ErrNotFound)
		mustCreate(t, repo, member("B", 1001))
	})

	t.Run("update keeping own membership number succeeds", func(t *testing.T) {
		repo := newRepo(t, factory)
		a := mustCreate(t, repo, member("A", 1001))
		a.UnitNumber = 9
		require.NoError(t, repo.Update(ctx, a))
	})

	t.Run("update to another member's number conflicts", func(t *testing.T) {
		repo := newRepo(t, factory)
		a := mustCreate(t, repo, member("A", 1001))
		mustCreate(t, repo, member("B", 1002))

		a.MembershipNumber = 1002
		err := repo.Update(ctx, a)
		assert.ErrorIs(t, err, memberrepoport.ErrMembershipNumberTaken)

		got, err := repo.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 1001, got.MembershipNumber)
	})

	t.Run("update unknown id is not found", func(t *testing.T) {
		repo := newRepo(t, factory)
		err := repo.Update(ctx, domain.Member{ID: 12, Name: "ghost", MembershipNumber: 1})
		assert.ErrorIs(t, err, memberrepoport.ErrNotFound)
		assert.Equal(t, 0, count(t, repo))
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t, factory)
		a := mustCreate(t, repo, member("A", 1001))
		mustCreate(t, repo, member("B", 1002))

		assert.ErrorIs(t, repo.Delete(ctx, 404), memberrepoport.ErrNotFound)
		assert.Equal(t, 2, count(t, repo))

		require.NoError(t, repo.Delete(ctx, a.ID))
		assert.Equal(t, 1, count(t, repo))
		_, err := repo.GetByID(ctx, a.ID)
		assert.ErrorIs(t, err, memberrepoport.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, a.ID), memberrepoport.ErrNotFound)
	})

	t.Run("list returns members in id order", func(t *testing.T) {
		repo := newRepo(t, factory)
		mustCreate(t, repo, member("A", 3))
		mustCreate(t, repo, member("B", 1))
		mustCreate(t, repo, member("C", 2))

		ms, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, ms, 3)
		assert.Equal(t, []domain.MemberID{1, 2, 3}, []domain.MemberID{ms[0].ID, ms[1].ID, ms[2].ID})
	})

	t.Run("search by name is a case-insensitive substring match", func(t *testing.T) {
		repo := newRepo(t, factory)
		a := mustCreate(t, repo, member("أحمد محمد علي", 1))
		mustCreate(t, repo, member("فاطمة حسن", 2))
		c := mustCreate(t, repo, member("Alice Johnson", 3))

		res, err := repo.SearchByName(ctx, "محمد")
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, a.ID, res[0].ID)

		res, err = repo.SearchByName(ctx, "JOHN")
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, c.ID, res[0].ID)

		res, err = repo.SearchByName(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("stats", func(t *testing.T) {
		repo := newRepo(t, factory)
		s, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.Stats{}, s)

		a := member("A", 1)
		a.AmountPaid = 100
		a.District = "East"
		b := member("B", 2)
		b.AmountPaid = 50.5
		b.District = "West"
		c := member("C", 3)
		c.AmountPaid = 0
		c.District = "East"
		mustCreate(t, repo, a)
		mustCreate(t, repo, b)
		mustCreate(t, repo, c)

		s, err = repo.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, s.TotalMembers)
		assert.InDelta(t, 150.5, s.TotalAmount, 1e-9)
		assert.Equal(t, 2, s.Districts)
		assert.InDelta(t, 150.5/3, s.AverageAmount, 1e-9)
	})

	t.Run("ping", func(t *testing.T) {
		repo := newRepo(t, factory)
		assert.NoError(t, repo.Ping(ctx))
	})
}

// RunSeededMemberRepo checks an adapter bootstrapped with domain.SampleMembers.
func RunSeededMemberRepo(t *testing.T, factory MemberRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo := newRepo(t, factory)
	ms, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SampleMembers(), ms)

	created, err := repo.Create(ctx, member("X", 2001))
	require.NoError(t, err)
	assert.Equal(t, domain.MemberID(4), created.ID)

	_, err = repo.Create(ctx, member("Y", 1002))
	assert.ErrorIs(t, err, memberrepoport.ErrMembershipNumberTaken)
}
