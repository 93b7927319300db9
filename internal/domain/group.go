package domain

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Membership update errors
var (
	// ErrOverlappingMembership is returned when a student is both added and
	// removed by the same update.
	ErrOverlappingMembership = fmt.Errorf("%w: add and remove sets overlap", ErrValidation)

	// ErrNotAMember is returned when a removal names a student outside the group.
	ErrNotAMember = fmt.Errorf("%w: student is not a member of the group", ErrValidation)

	// ErrAlreadyAMember is returned when an addition names a current member.
	ErrAlreadyAMember = fmt.Errorf("%w: student is already a member of the group", ErrValidation)

	// ErrEmptyUpdate is returned when an update carries no membership change
	// and no new name.
	ErrEmptyUpdate = fmt.Errorf("%w: empty group update", ErrNoOp)
)

// Group is a named subset of a classroom's roster. Members are referenced by
// student id and remain owned by the classroom.
type Group struct {
	ID          int64     `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	ClassRoomID int64     `json:"classroom_id"`
	Name        string    `json:"name,omitempty"`
	MemberIDs   []int64   `json:"member_ids"`
}

// MembershipUpdate describes a change to an existing group.
// A nil Name leaves the group name unchanged.
type MembershipUpdate struct {
	Add    []int64
	Remove []int64
	Name   *string
}

// Clone returns a deep copy of the group.
func (g *Group) Clone() *Group {
	if g == nil {
		return nil
	}
	out := *g
	out.MemberIDs = slices.Clone(g.MemberIDs)
	return &out
}

// HasMember reports whether the student is a member of the group.
func (g *Group) HasMember(studentID int64) bool {
	return slices.Contains(g.MemberIDs, studentID)
}

// RemoveMember drops a student from the group. Returns false if the student
// was not a member.
func (g *Group) RemoveMember(studentID int64) bool {
	i := slices.Index(g.MemberIDs, studentID)
	if i < 0 {
		return false
	}
	g.MemberIDs = slices.Delete(g.MemberIDs, i, i+1)
	return true
}

// Apply validates u against the group and the classroom roster, then applies
// it. Every rule is checked before the first change, so a failing update
// leaves the group exactly as it was.
//
// With no additions and no removals the update is a pure rename and fails
// with ErrEmptyUpdate when no name is supplied either. The rename, if any, is
// applied after the membership change.
func (g *Group) Apply(roster *ClassRoom, u MembershipUpdate) error {
	if len(u.Add) == 0 && len(u.Remove) == 0 {
		if u.Name == nil {
			return ErrEmptyUpdate
		}
		g.Name = *u.Name
		return nil
	}

	removing := make(map[int64]struct{}, len(u.Remove))
	for _, id := range u.Remove {
		removing[id] = struct{}{}
	}
	for _, id := range u.Add {
		if _, overlap := removing[id]; overlap {
			return fmt.Errorf("%w: %d", ErrOverlappingMembership, id)
		}
	}
	for _, id := range u.Remove {
		if !g.HasMember(id) {
			return fmt.Errorf("%w: %d", ErrNotAMember, id)
		}
	}

	adding := make(map[int64]struct{}, len(u.Add))
	for _, id := range u.Add {
		if _, dup := adding[id]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateStudentID, id)
		}
		if !roster.HasStudent(id) {
			return fmt.Errorf("%w: %d", ErrUnknownStudent, id)
		}
		if g.HasMember(id) {
			return fmt.Errorf("%w: %d", ErrAlreadyAMember, id)
		}
		adding[id] = struct{}{}
	}

	members := make([]int64, 0, len(g.MemberIDs)+len(u.Add))
	for _, id := range g.MemberIDs {
		if _, gone := removing[id]; !gone {
			members = append(members, id)
		}
	}
	g.MemberIDs = append(members, u.Add...)

	if u.Name != nil {
		g.Name = *u.Name
	}
	return nil
}
