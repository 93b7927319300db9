package service

import (
	"testing"

	"github.com/phrazzld/classplan/internal/domain/partition"
	"github.com/phrazzld/classplan/internal/platform/logger"
	"github.com/phrazzld/classplan/internal/platform/memory"
	"github.com/stretchr/testify/require"
)

// testEngine wires the three services on fresh in-memory stores.
type testEngine struct {
	classRoomStore  *memory.ClassRoomStore
	groupStore      *memory.GroupStore
	annotationStore *memory.AnnotationStore
	locks           *KeyedMutex

	classRooms  ClassRoomService
	groups      GroupService
	annotations AnnotationService
	logs        *logger.TestLogBuffer
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	log, buf := logger.NewTestLogger(t)
	e := &testEngine{
		classRoomStore:  memory.NewClassRoomStore(log),
		groupStore:      memory.NewGroupStore(log),
		annotationStore: memory.NewAnnotationStore(log),
		locks:           NewKeyedMutex(),
		logs:            buf,
	}

	var err error
	e.annotations, err = NewAnnotationService(e.annotationStore, NewKeyedMutex(), log)
	require.NoError(t, err)
	e.classRooms, err = NewClassRoomService(e.classRoomStore, e.groupStore, e.annotations, e.locks, log)
	require.NoError(t, err)
	e.groups, err = NewGroupService(e.classRoomStore, e.groupStore, partition.NewSeededService(42), e.locks, log)
	require.NoError(t, err)
	return e
}

func ptr[T any](v T) *T {
	return &v
}
