package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/classplan/internal/domain"
	"github.com/phrazzld/classplan/internal/domain/partition"
	"github.com/phrazzld/classplan/internal/platform/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedRoster creates a classroom with n students and returns it as stored.
func seedRoster(t *testing.T, e *testEngine, owner uuid.UUID, n int) *domain.ClassRoom {
	t.Helper()
	ctx := context.Background()

	c, err := e.classRooms.Create(ctx, owner, "CM1")
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("S%d", i)
		_, err := e.classRooms.CreateStudent(ctx, owner, c.ID, name, name, nil)
		require.NoError(t, err)
	}
	c, err = e.classRooms.Get(ctx, owner, c.ID)
	require.NoError(t, err)
	return c
}

func TestNewGroupService(t *testing.T) {
	t.Parallel()

	classRooms := memory.NewClassRoomStore(nil)
	groups := memory.NewGroupStore(nil)
	p := partition.NewSeededService(1)

	_, err := NewGroupService(classRooms, groups, p, NewKeyedMutex(), nil)
	require.NoError(t, err)

	_, err = NewGroupService(nil, groups, p, NewKeyedMutex(), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = NewGroupService(classRooms, nil, p, NewKeyedMutex(), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = NewGroupService(classRooms, groups, nil, NewKeyedMutex(), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = NewGroupService(classRooms, groups, p, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGroupService_RandomPartition(t *testing.T) {
	ctx := context.Background()

	for n := 1; n <= 9; n++ {
		for k := 1; k <= n; k++ {
			t.Run(fmt.Sprintf("n=%d/k=%d", n, k), func(t *testing.T) {
				e := newTestEngine(t)
				owner := uuid.New()
				c := seedRoster(t, e, owner, n)

				groups, err := e.groups.Random(ctx, owner, c.ID, k)
				require.NoError(t, err)
				require.Len(t, groups, k)

				seen := make(map[int64]int)
				total := 0
				for i, g := range groups {
					if i > 0 {
						assert.Greater(t, g.ID, groups[i-1].ID)
						assert.LessOrEqual(t, len(g.MemberIDs), len(groups[i-1].MemberIDs))
					}
					assert.InDelta(t, n/k, len(g.MemberIDs), 1)
					total += len(g.MemberIDs)
					for _, id := range g.MemberIDs {
						seen[id]++
					}
				}
				assert.Equal(t, n, total)
				for _, id := range c.StudentIDs() {
					assert.Equal(t, 1, seen[id], "student %d", id)
				}

				stored, err := e.groups.List(ctx, owner, c.ID)
				require.NoError(t, err)
				assert.Len(t, stored, k)
			})
		}
	}
}

func TestGroupService_RandomPartitionRejects(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	owner := uuid.New()

	empty, err := e.classRooms.Create(ctx, owner, "empty")
	require.NoError(t, err)
	_, err = e.groups.Random(ctx, owner, empty.ID, 1)
	assert.ErrorIs(t, err, partition.ErrEmptyRoster)

	c := seedRoster(t, e, owner, 3)
	for _, k := range []int{-1, 0, 4} {
		_, err := e.groups.Random(ctx, owner, c.ID, k)
		assert.ErrorIs(t, err, domain.ErrValidation, "k=%d", k)
	}

	groups, err := e.groups.List(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Empty(t, groups)
	groups, err = e.groups.List(ctx, owner, empty.ID)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestGroupService_ManualPartition(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	owner := uuid.New()
	c := seedRoster(t, e, owner, 4)
	ids := c.StudentIDs()

	tests := []struct {
		name    string
		request []ManualGroup
		wantErr error
	}{
		{
			name: "student repeated across groups",
			request: []ManualGroup{
				{MemberIDs: []int64{ids[0], ids[1]}},
				{MemberIDs: []int64{ids[1], ids[2]}},
			},
			wantErr: domain.ErrDuplicateStudentID,
		},
		{
			name:    "empty group",
			request: []ManualGroup{{MemberIDs: []int64{ids[0]}}, {}},
			wantErr: partition.ErrEmptyGroup,
		},
		{
			name:    "unknown student",
			request: []ManualGroup{{MemberIDs: []int64{ids[0], 9999}}},
			wantErr: domain.ErrUnknownStudent,
		},
		{
			name:    "no groups",
			request: nil,
			wantErr: partition.ErrNoGroups,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.groups.Manual(ctx, owner, c.ID, tc.request)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.ErrorIs(t, err, domain.ErrValidation)

			groups, err := e.groups.List(ctx, owner, c.ID)
			require.NoError(t, err)
			assert.Empty(t, groups)
		})
	}

	t.Run("valid request keeps order and names", func(t *testing.T) {
		groups, err := e.groups.Manual(ctx, owner, c.ID, []ManualGroup{
			{Name: "red", MemberIDs: []int64{ids[2], ids[0]}},
			{MemberIDs: []int64{ids[1]}},
		})
		require.NoError(t, err)
		require.Len(t, groups, 2)
		assert.Equal(t, "red", groups[0].Name)
		assert.Equal(t, []int64{ids[2], ids[0]}, groups[0].MemberIDs)
		assert.Empty(t, groups[1].Name)
		assert.Less(t, groups[0].ID, groups[1].ID)

		stored, err := e.groups.List(ctx, owner, c.ID)
		require.NoError(t, err)
		assert.Len(t, stored, 2)
	})
}

func TestGroupService_Update(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	owner := uuid.New()
	c := seedRoster(t, e, owner, 4)
	ids := c.StudentIDs()

	created, err := e.groups.Manual(ctx, owner, c.ID, []ManualGroup{
		{Name: "g", MemberIDs: []int64{ids[0], ids[1]}},
		{Name: "h", MemberIDs: []int64{ids[2]}},
	})
	require.NoError(t, err)
	g := created[0]

	failing := []struct {
		name    string
		update  domain.MembershipUpdate
		wantErr error
	}{
		{
			name:    "overlapping add and remove",
			update:  domain.MembershipUpdate{Add: []int64{ids[0], ids[1]}, Remove: []int64{ids[0]}},
			wantErr: domain.ErrOverlappingMembership,
		},
		{
			name:    "remove non member",
			update:  domain.MembershipUpdate{Remove: []int64{ids[3]}},
			wantErr: domain.ErrNotAMember,
		},
		{
			name:    "add current member",
			update:  domain.MembershipUpdate{Add: []int64{ids[1]}},
			wantErr: domain.ErrAlreadyAMember,
		},
		{
			name:    "add unknown student",
			update:  domain.MembershipUpdate{Add: []int64{9999}, Name: ptr("renamed")},
			wantErr: domain.ErrUnknownStudent,
		},
		{
			name:    "empty update",
			update:  domain.MembershipUpdate{},
			wantErr: domain.ErrNoOp,
		},
	}

	for _, tc := range failing {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.groups.Update(ctx, owner, c.ID, g.ID, tc.update)
			assert.ErrorIs(t, err, tc.wantErr)

			stored, err := e.groups.Get(ctx, owner, c.ID, g.ID)
			require.NoError(t, err)
			assert.Equal(t, "g", stored.Name)
			assert.Equal(t, []int64{ids[0], ids[1]}, stored.MemberIDs)
		})
	}

	t.Run("rename only", func(t *testing.T) {
		updated, err := e.groups.Update(ctx, owner, c.ID, g.ID, domain.MembershipUpdate{Name: ptr("blue")})
		require.NoError(t, err)
		assert.Equal(t, "blue", updated.Name)
		assert.Equal(t, []int64{ids[0], ids[1]}, updated.MemberIDs)
	})

	t.Run("add and remove with rename", func(t *testing.T) {
		updated, err := e.groups.Update(ctx, owner, c.ID, g.ID, domain.MembershipUpdate{
			Add:    []int64{ids[3]},
			Remove: []int64{ids[0]},
			Name:   ptr("green"),
		})
		require.NoError(t, err)
		assert.Equal(t, "green", updated.Name)
		assert.Equal(t, []int64{ids[1], ids[3]}, updated.MemberIDs)

		stored, err := e.groups.Get(ctx, owner, c.ID, g.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, stored)
	})

	t.Run("emptied group is deleted", func(t *testing.T) {
		h := created[1]
		updated, err := e.groups.Update(ctx, owner, c.ID, h.ID, domain.MembershipUpdate{Remove: []int64{ids[2]}})
		require.NoError(t, err)
		assert.Empty(t, updated.MemberIDs)

		_, err = e.groups.Get(ctx, owner, c.ID, h.ID)
		assert.ErrorIs(t, err, domain.ErrGroupNotFound)
	})

	t.Run("unknown group", func(t *testing.T) {
		_, err := e.groups.Update(ctx, owner, c.ID, 9999, domain.MembershipUpdate{Name: ptr("x")})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestGroupService_Delete(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	owner := uuid.New()
	c := seedRoster(t, e, owner, 2)

	groups, err := e.groups.Random(ctx, owner, c.ID, 2)
	require.NoError(t, err)

	require.NoError(t, e.groups.Delete(ctx, owner, c.ID, groups[0].ID))
	assert.ErrorIs(t, e.groups.Delete(ctx, owner, c.ID, groups[0].ID), domain.ErrGroupNotFound)
	assert.ErrorIs(t, e.groups.Delete(ctx, uuid.New(), c.ID, groups[1].ID), domain.ErrNotFound)

	require.NoError(t, e.groups.Delete(ctx, owner, c.ID, groups[1].ID))
	left, err := e.groups.List(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}
