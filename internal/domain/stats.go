package domain

// Stats aggregates the registry.
type Stats struct {
	TotalMembers  int
	TotalAmount   float64
	Districts     int
	AverageAmount float64
}

// ComputeStats aggregates ms. AverageAmount is 0 for an empty slice.
func ComputeStats(ms []Member) Stats {
	districts := make(map[string]struct{})
	var total float64
	for _, m := range ms {
		total += m.AmountPaid
		districts[NormalizeText(m.District)] = struct{}{}
	}
	return NewStats(len(ms), total, len(districts))
}

// NewStats derives AverageAmount from the raw aggregates.
func NewStats(count int, total float64, districts int) Stats {
	s := Stats{
		TotalMembers: count,
		TotalAmount:  total,
		Districts:    districts,
	}
	if count > 0 {
		s.AverageAmount = total / float64(count)
	}
	return s
}
