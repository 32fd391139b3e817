package domain

// Canonical field labels. They are the JSON keys on the wire and the header
// row of the spreadsheet backend, in column order.
const (
	LabelID               = "رقم م"
	LabelName             = "اسم العضو"
	LabelMembershipNumber = "عضوية"
	LabelUnitNumber       = "شقة"
	LabelBuildingNumber   = "عمارة"
	LabelDistrict         = "حي"
	LabelAmountPaid       = "المبلغ المدفوع"
	LabelRegistrationDate = "تاريخ التسجيل"
)

// Labels lists the canonical labels in storage column order.
var Labels = []string{
	LabelID,
	LabelName,
	LabelMembershipNumber,
	LabelUnitNumber,
	LabelBuildingNumber,
	LabelDistrict,
	LabelAmountPaid,
	LabelRegistrationDate,
}

// RequiredLabels are the fields a caller must supply when adding a member.
var RequiredLabels = []string{
	LabelName,
	LabelMembershipNumber,
	LabelUnitNumber,
	LabelBuildingNumber,
	LabelDistrict,
}

// Member is the domain representation of a registry entry.
type Member struct {
	ID MemberID

	Name             string
	MembershipNumber int
	UnitNumber       int
	BuildingNumber   int
	District         string

	// AmountPaid is never negative.
	AmountPaid float64
	// RegistrationDate is an ISO calendar date (YYYY-MM-DD), or "" when the stored value could not be decoded.
	RegistrationDate string
}

// Fields returns the transport form keyed by canonical labels.
func (m Member) Fields() map[string]any {
	return map[string]any{
		LabelID:               int(m.ID),
		LabelName:             m.Name,
		LabelMembershipNumber: m.MembershipNumber,
		LabelUnitNumber:       m.UnitNumber,
		LabelBuildingNumber:   m.BuildingNumber,
		LabelDistrict:         m.District,
		LabelAmountPaid:       m.AmountPaid,
		LabelRegistrationDate: m.RegistrationDate,
	}
}

// Row returns the member as a storage row in Labels order.
func (m Member) Row() []any {
	return []any{
		int(m.ID),
		NormalizeText(m.Name),
		m.MembershipNumber,
		m.UnitNumber,
		m.BuildingNumber,
		NormalizeText(m.District),
		m.AmountPaid,
		m.RegistrationDate,
	}
}

// SampleMembers returns the fixed rows a fresh store is seeded with.
func SampleMembers() []Member {
	return []Member{
		{
			ID:               1,
			Name:             "أحمد محمد علي",
			MembershipNumber: 1001,
			UnitNumber:       5,
			BuildingNumber:   1,
			District:         "الزمالك الشرقي",
			AmountPaid:       5000.00,
			RegistrationDate: "2024-01-15",
		},
		{
			ID:               2,
			Name:             "فاطمة حسن محمود",
			MembershipNumber: 1002,
			UnitNumber:       12,
			BuildingNumber:   2,
			District:         "الزمالك الغربي",
			AmountPaid:       7500.50,
			RegistrationDate: "2024-02-20",
		},
		{
			ID:               3,
			Name:             "محمد عبد الرحمن",
			MembershipNumber: 1003,
			UnitNumber:       8,
			BuildingNumber:   1,
			District:         "الزمالك الشمالي",
			AmountPaid:       6200.25,
			RegistrationDate: "2024-03-10",
		},
	}
}
