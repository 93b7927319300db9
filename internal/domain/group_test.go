package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup_Apply(t *testing.T) {
	roster := seededClassRoom(t)

	tests := []struct {
		name        string
		update      MembershipUpdate
		wantErr     error
		wantMembers []int64
		wantName    string
	}{
		{
			name:        "add and remove",
			update:      MembershipUpdate{Add: []int64{3}, Remove: []int64{1}},
			wantMembers: []int64{2, 3},
			wantName:    "Team",
		},
		{
			name:        "rename only",
			update:      MembershipUpdate{Name: ptr("Renamed")},
			wantMembers: []int64{1, 2},
			wantName:    "Renamed",
		},
		{
			name:        "membership and rename",
			update:      MembershipUpdate{Add: []int64{4}, Name: ptr("Four")},
			wantMembers: []int64{1, 2, 4},
			wantName:    "Four",
		},
		{
			name:    "empty update",
			update:  MembershipUpdate{},
			wantErr: ErrEmptyUpdate,
		},
		{
			name:    "add and remove overlap",
			update:  MembershipUpdate{Add: []int64{1, 2}, Remove: []int64{1}},
			wantErr: ErrOverlappingMembership,
		},
		{
			name:    "overlap is reported before membership",
			update:  MembershipUpdate{Add: []int64{4}, Remove: []int64{4}},
			wantErr: ErrOverlappingMembership,
		},
		{
			name:    "remove non-member",
			update:  MembershipUpdate{Remove: []int64{4}},
			wantErr: ErrNotAMember,
		},
		{
			name:    "add existing member",
			update:  MembershipUpdate{Add: []int64{2}},
			wantErr: ErrAlreadyAMember,
		},
		{
			name:    "add twice",
			update:  MembershipUpdate{Add: []int64{3, 3}},
			wantErr: ErrDuplicateStudentID,
		},
		{
			name:    "add unknown student",
			update:  MembershipUpdate{Add: []int64{3, 404}},
			wantErr: ErrUnknownStudent,
		},
		{
			name:    "failed update does not rename",
			update:  MembershipUpdate{Add: []int64{404}, Name: ptr("nope")},
			wantErr: ErrUnknownStudent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Group{ID: 1, ClassRoomID: roster.ID, Name: "Team", MemberIDs: []int64{1, 2}}

			err := g.Apply(roster, tt.update)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, []int64{1, 2}, g.MemberIDs, "membership must be unchanged")
				assert.Equal(t, "Team", g.Name)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMembers, g.MemberIDs)
			assert.Equal(t, tt.wantName, g.Name)
		})
	}
}

func TestGroup_EmptyUpdateIsNoOp(t *testing.T) {
	g := &Group{MemberIDs: []int64{1}}
	err := g.Apply(seededClassRoom(t), MembershipUpdate{Add: []int64{}, Remove: []int64{}})

	assert.ErrorIs(t, err, ErrNoOp)
	assert.False(t, IsValidation(err))
}

func TestGroup_RemoveMember(t *testing.T) {
	g := &Group{MemberIDs: []int64{5, 6, 7}}

	assert.True(t, g.RemoveMember(6))
	assert.Equal(t, []int64{5, 7}, g.MemberIDs)
	assert.False(t, g.RemoveMember(6))
}

func TestGroup_Clone(t *testing.T) {
	g := &Group{ID: 3, MemberIDs: []int64{1, 2}}
	c := g.Clone()
	c.MemberIDs[0] = 9

	assert.Equal(t, int64(1), g.MemberIDs[0])
}
