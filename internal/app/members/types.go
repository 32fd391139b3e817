package members

import "github.com/zamalek-residents/member-registry/internal/domain"

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

// CreateMemberInput carries raw caller values. They are coerced, not
// type-checked: a non-numeric membership number becomes 0.
type CreateMemberInput struct {
	Name             any
	MembershipNumber any
	UnitNumber       any
	BuildingNumber   any
	District         any
	AmountPaid       any
}

// CreateMemberInputFromFields reads a label-keyed field map. Unknown keys,
// the id and the registration date are ignored.
func CreateMemberInputFromFields(fields map[string]any) CreateMemberInput {
	return CreateMemberInput{
		Name:             fields[domain.LabelName],
		MembershipNumber: fields[domain.LabelMembershipNumber],
		UnitNumber:       fields[domain.LabelUnitNumber],
		BuildingNumber:   fields[domain.LabelBuildingNumber],
		District:         fields[domain.LabelDistrict],
		AmountPaid:       fields[domain.LabelAmountPaid],
	}
}

// UpdateMemberInput is a partial replacement; unspecified fields keep their
// stored value.
type UpdateMemberInput struct {
	Name             Optional[any]
	MembershipNumber Optional[any]
	UnitNumber       Optional[any]
	BuildingNumber   Optional[any]
	District         Optional[any]
	AmountPaid       Optional[any] // null resets to 0
}
