package memberrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/zamalek-residents/member-registry/internal/domain"
	"github.com/zamalek-residents/member-registry/internal/ports/out/memberrepo"
)

// Repo is an in-memory implementation of memberrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID       map[domain.MemberID]domain.Member
	idByNumber map[int]domain.MemberID
}

func NewRepo() *Repo {
	return &Repo{
		byID:       make(map[domain.MemberID]domain.Member),
		idByNumber: make(map[int]domain.MemberID),
	}
}

// NewSeededRepo returns a Repo holding the sample members.
func NewSeededRepo() *Repo {
	r := NewRepo()
	for _, m := range domain.SampleMembers() {
		r.byID[m.ID] = m
		r.idByNumber[m.MembershipNumber] = m.ID
	}
	return r
}

func (r *Repo) List(ctx context.Context) ([]domain.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Member, 0, len(r.byID))
	for _, m := range r.byID {
		out = append(out, m)
	}
	sortByID(out)
	return out, nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return domain.Member{}, memberrepo.ErrNotFound
	}
	return m, nil
}

func (r *Repo) GetByMembershipNumber(ctx context.Context, number int) (domain.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idByNumber[number]
	if !ok {
		return domain.Member{}, memberrepo.ErrNotFound
	}
	m, ok := r.byID[id]
	if !ok {
		return domain.Member{}, memberrepo.ErrNotFound
	}
	return m, nil
}

func (r *Repo) SearchByName(ctx context.Context, query string) ([]domain.Member, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Member, 0)
	for _, m := range r.byID {
		if domain.MatchesName(m.Name, query) {
			out = append(out, m)
		}
	}
	sortByID(out)
	return out, nil
}

func (r *Repo) Create(ctx context.Context, m domain.Member) (domain.Member, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.idByNumber[m.MembershipNumber]; ok {
		return domain.Member{}, memberrepo.ErrMembershipNumberTaken
	}

	var max domain.MemberID
	for id := range r.byID {
		if id > max {
			max = id
		}
	}
	m.ID = max + 1
	m.Name = domain.NormalizeText(m.Name)
	m.District = domain.NormalizeText(m.District)

	r.byID[m.ID] = m
	r.idByNumber[m.MembershipNumber] = m.ID
	return m, nil
}

func (r *Repo) Update(ctx context.Context, m domain.Member) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[m.ID]
	if !ok {
		return memberrepo.ErrNotFound
	}
	if owner, ok := r.idByNumber[m.MembershipNumber]; ok && owner != m.ID {
		return memberrepo.ErrMembershipNumberTaken
	}

	m.Name = domain.NormalizeText(m.Name)
	m.District = domain.NormalizeText(m.District)
	delete(r.idByNumber, existing.MembershipNumber)
	r.byID[m.ID] = m
	r.idByNumber[m.MembershipNumber] = m.ID
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.MemberID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[id]
	if !ok {
		return memberrepo.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.idByNumber, existing.MembershipNumber)
	return nil
}

func (r *Repo) Stats(ctx context.Context) (domain.Stats, error) {
	ms, err := r.List(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.ComputeStats(ms), nil
}

func (r *Repo) Ping(ctx context.Context) error {
	_ = ctx
	return nil
}

func sortByID(ms []domain.Member) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })
}
