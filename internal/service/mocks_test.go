package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/classplan/internal/domain"
	"github.com/phrazzld/classplan/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockClassRoomStore is a testify mock of store.ClassRoomStore.
type MockClassRoomStore struct {
	mock.Mock
}

var _ store.ClassRoomStore = (*MockClassRoomStore)(nil)

func (m *MockClassRoomStore) Save(ctx context.Context, c *domain.ClassRoom) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockClassRoomStore) GetByID(ctx context.Context, ownerID uuid.UUID, id int64) (*domain.ClassRoom, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClassRoom), args.Error(1)
}

func (m *MockClassRoomStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.ClassRoom, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ClassRoom), args.Error(1)
}

func (m *MockClassRoomStore) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// MockGroupStore is a testify mock of store.GroupStore.
type MockGroupStore struct {
	mock.Mock
}

var _ store.GroupStore = (*MockGroupStore)(nil)

func (m *MockGroupStore) CreateMultiple(ctx context.Context, groups []*domain.Group) error {
	args := m.Called(ctx, groups)
	return args.Error(0)
}

func (m *MockGroupStore) GetByID(ctx context.Context, ownerID uuid.UUID, classRoomID, id int64) (*domain.Group, error) {
	args := m.Called(ctx, ownerID, classRoomID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

func (m *MockGroupStore) ListByClassRoom(
	ctx context.Context,
	ownerID uuid.UUID,
	classRoomID int64,
) ([]*domain.Group, error) {
	args := m.Called(ctx, ownerID, classRoomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Group), args.Error(1)
}

func (m *MockGroupStore) Update(ctx context.Context, group *domain.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockGroupStore) Delete(ctx context.Context, ownerID uuid.UUID, classRoomID, id int64) error {
	args := m.Called(ctx, ownerID, classRoomID, id)
	return args.Error(0)
}

func (m *MockGroupStore) DeleteByClassRoom(ctx context.Context, ownerID uuid.UUID, classRoomID int64) (int, error) {
	args := m.Called(ctx, ownerID, classRoomID)
	return args.Int(0), args.Error(1)
}
