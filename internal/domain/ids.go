package domain

import "strconv"

// MemberID is the system-assigned identifier for a member record.
// IDs are positive and assigned as max(existing)+1.
type MemberID int

func (id MemberID) String() string { return strconv.Itoa(int(id)) }

// ParseMemberID parses a path segment into a MemberID. Non-positive values are rejected.
func ParseMemberID(s string) (MemberID, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return MemberID(n), true
}
