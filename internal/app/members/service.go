package members

import (
	"context"
	"errors"

	"github.com/zamalek-residents/member-registry/internal/domain"
	clockport "github.com/zamalek-residents/member-registry/internal/ports/out/clock"
	"github.com/zamalek-residents/member-registry/internal/ports/out/memberrepo"
)

type Service struct {
	repo memberrepo.Repository
	clk  clockport.Clock
}

func NewService(repo memberrepo.Repository, clk clockport.Clock) *Service {
	return &Service{repo: repo, clk: clk}
}

func (s *Service) ListMembers(ctx context.Context) ([]domain.Member, error) {
	ms, err := s.repo.List(ctx)
	if err != nil {
		return nil, storageFailure(msgListFailed, err)
	}
	return ms, nil
}

func (s *Service) GetMember(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.Member{}, memberNotFound()
		}
		return domain.Member{}, storageFailure(msgListFailed, err)
	}
	return m, nil
}

// SearchMembers returns members whose name contains query, ignoring case.
// No match is an empty result, not an error.
func (s *Service) SearchMembers(ctx context.Context, query string) ([]domain.Member, error) {
	q := domain.NormalizeText(query)
	if q == "" {
		return nil, &Error{
			Status:  400,
			Code:    CodeValidation,
			Message: msgSearchQueryRequired,
			Details: map[string]any{"name": "must be non-empty"},
		}
	}
	ms, err := s.repo.SearchByName(ctx, q)
	if err != nil {
		return nil, storageFailure(msgSearchFailed, err)
	}
	return ms, nil
}

// AddMember validates the required fields, coerces the rest and stores the
// member with today's registration date.
func (s *Service) AddMember(ctx context.Context, in CreateMemberInput) (domain.Member, error) {
	required := map[string]any{
		domain.LabelName:             in.Name,
		domain.LabelMembershipNumber: in.MembershipNumber,
		domain.LabelUnitNumber:       in.UnitNumber,
		domain.LabelBuildingNumber:   in.BuildingNumber,
		domain.LabelDistrict:         in.District,
	}
	for _, label := range domain.RequiredLabels {
		if domain.IsBlank(required[label]) {
			return domain.Member{}, fieldRequired(label)
		}
	}

	m := domain.Member{
		Name:             domain.CoerceText(in.Name),
		MembershipNumber: domain.CoerceInt(in.MembershipNumber),
		UnitNumber:       domain.CoerceInt(in.UnitNumber),
		BuildingNumber:   domain.CoerceInt(in.BuildingNumber),
		District:         domain.CoerceText(in.District),
		AmountPaid:       domain.CoerceAmount(in.AmountPaid),
		RegistrationDate: clockport.Today(s.clk),
	}

	created, err := s.repo.Create(ctx, m)
	if err != nil {
		if errors.Is(err, memberrepo.ErrMembershipNumberTaken) {
			return domain.Member{}, membershipNumberTaken(m.MembershipNumber)
		}
		return domain.Member{}, storageFailure(msgAddFailed, err)
	}
	return created, nil
}

// UpdateMember applies a partial replacement. The id and registration date
// never change. Keeping the member's own membership number is always allowed.
func (s *Service) UpdateMember(ctx context.Context, id domain.MemberID, in UpdateMemberInput) (domain.Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.Member{}, memberNotFound()
		}
		return domain.Member{}, storageFailure(msgUpdateFailed, err)
	}

	if err := applyText(&m.Name, domain.LabelName, in.Name); err != nil {
		return domain.Member{}, err
	}
	if err := applyInt(&m.MembershipNumber, domain.LabelMembershipNumber, in.MembershipNumber); err != nil {
		return domain.Member{}, err
	}
	if err := applyInt(&m.UnitNumber, domain.LabelUnitNumber, in.UnitNumber); err != nil {
		return domain.Member{}, err
	}
	if err := applyInt(&m.BuildingNumber, domain.LabelBuildingNumber, in.BuildingNumber); err != nil {
		return domain.Member{}, err
	}
	if err := applyText(&m.District, domain.LabelDistrict, in.District); err != nil {
		return domain.Member{}, err
	}
	if in.AmountPaid.IsSpecified() {
		m.AmountPaid = domain.CoerceAmount(in.AmountPaid.Value())
	}

	if err := s.repo.Update(ctx, m); err != nil {
		switch {
		case errors.Is(err, memberrepo.ErrNotFound):
			return domain.Member{}, memberNotFound()
		case errors.Is(err, memberrepo.ErrMembershipNumberTaken):
			return domain.Member{}, membershipNumberTaken(m.MembershipNumber)
		default:
			return domain.Member{}, storageFailure(msgUpdateFailed, err)
		}
	}
	return m, nil
}

func (s *Service) DeleteMember(ctx context.Context, id domain.MemberID) (domain.Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.Member{}, memberNotFound()
		}
		return domain.Member{}, storageFailure(msgDeleteFailed, err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.Member{}, memberNotFound()
		}
		return domain.Member{}, storageFailure(msgDeleteFailed, err)
	}
	return m, nil
}

func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return domain.Stats{}, storageFailure(msgStatsFailed, err)
	}
	return st, nil
}

// Health pings the repository and counts members.
func (s *Service) Health(ctx context.Context) (int, error) {
	if err := s.repo.Ping(ctx); err != nil {
		return 0, err
	}
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return 0, err
	}
	return st.TotalMembers, nil
}

// Required text fields may be replaced but never nulled or blanked.
func applyText(dst *string, label string, o Optional[any]) error {
	if !o.IsSpecified() {
		return nil
	}
	if o.IsNull() {
		return fieldNotNull(label)
	}
	if domain.IsBlank(o.Value()) {
		return fieldRequired(label)
	}
	*dst = domain.CoerceText(o.Value())
	return nil
}

func applyInt(dst *int, label string, o Optional[any]) error {
	if !o.IsSpecified() {
		return nil
	}
	if o.IsNull() {
		return fieldNotNull(label)
	}
	if domain.IsBlank(o.Value()) {
		return fieldRequired(label)
	}
	*dst = domain.CoerceInt(o.Value())
	return nil
}
