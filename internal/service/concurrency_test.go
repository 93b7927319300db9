package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/classplan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassRoomService_ConcurrentCreateStudent(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	owner := uuid.New()

	c, err := e.classRooms.Create(ctx, owner, "CM1")
	require.NoError(t, err)

	const n = 50
	ids := make([]int64, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := e.classRooms.CreateStudent(ctx, owner, c.ID, fmt.Sprintf("F%d", i), "Last", nil)
			ids[i], errs[i] = s.ID, err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	got, err := e.classRooms.Get(ctx, owner, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Students, n, "no concurrent insert may be lost")
	assert.ElementsMatch(t, ids, got.StudentIDs())
}

func TestGroupService_RandomConcurrentWithDeleteStudent(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	owner := uuid.New()

	c, err := e.classRooms.Create(ctx, owner, "CM1")
	require.NoError(t, err)
	var ids []int64
	for i := 0; i < 12; i++ {
		s, err := e.classRooms.CreateStudent(ctx, owner, c.ID, fmt.Sprintf("F%d", i), "Last", nil)
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}
	deleted := ids[:4]

	var wg sync.WaitGroup
	var randomErr error
	wg.Add(1 + len(deleted))
	go func() {
		defer wg.Done()
		_, randomErr = e.groups.Random(ctx, owner, c.ID, 2)
	}()
	for _, id := range deleted {
		go func(id int64) {
			defer wg.Done()
			assert.NoError(t, e.classRooms.DeleteStudent(ctx, owner, c.ID, id))
		}(id)
	}
	wg.Wait()
	require.NoError(t, randomErr)

	got, err := e.classRooms.Get(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids[4:], got.StudentIDs())

	groups, err := e.groups.List(ctx, owner, c.ID)
	require.NoError(t, err)
	require.NotEmpty(t, groups)

	seen := make(map[int64]int)
	for _, g := range groups {
		assert.NotEmpty(t, g.MemberIDs, "groups without members are deleted")
		for _, id := range g.MemberIDs {
			assert.True(t, got.HasStudent(id), "group %d references removed student %d", g.ID, id)
			seen[id]++
		}
	}
	// Every remaining student sits in exactly one group of the single
	// partition request.
	for _, id := range got.StudentIDs() {
		assert.Equal(t, 1, seen[id], "student %d", id)
	}
	for _, id := range deleted {
		_, ok := seen[id]
		assert.False(t, ok)
		notes, err := e.annotations.ListByStudent(ctx, owner, id)
		require.NoError(t, err)
		assert.Empty(t, notes)
	}
	assert.ErrorIs(t, e.classRooms.DeleteStudent(ctx, owner, c.ID, deleted[0]), domain.ErrStudentNotFound)
}
