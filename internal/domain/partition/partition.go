// Package partition implements the pure algorithms that split a classroom
// roster into student groups.
package partition

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/phrazzld/classplan/internal/domain"
)

// Partition errors
var (
	ErrEmptyRoster       = fmt.Errorf("%w: roster is empty", domain.ErrValidation)
	ErrInvalidGroupCount = fmt.Errorf("%w: invalid group count", domain.ErrValidation)
	ErrNoGroups          = fmt.Errorf("%w: no groups requested", domain.ErrValidation)
	ErrEmptyGroup        = fmt.Errorf("%w: group has no members", domain.ErrValidation)
)

// Service defines the partition algorithms.
type Service interface {
	// Random splits roster into count groups whose sizes differ by at most
	// one. The first len(roster) mod count groups receive the extra member.
	// Members are drawn uniformly at random without replacement.
	Random(roster []int64, count int) ([][]int64, error)

	// ValidateManual checks an explicit partition request against the
	// roster: every group non-empty, every id used at most once across the
	// whole request, every id on the roster.
	ValidateManual(roster []int64, groups [][]int64) error
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDefaultService creates a partition service backed by a randomly seeded
// PCG generator.
func NewDefaultService() Service {
	return NewServiceWithSource(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewSeededService creates a partition service whose random draws are
// reproducible for a given seed.
func NewSeededService(seed uint64) Service {
	return NewServiceWithSource(rand.NewPCG(seed, seed))
}

// NewServiceWithSource creates a partition service drawing from src.
func NewServiceWithSource(src rand.Source) Service {
	return &defaultService{rng: rand.New(src)}
}

// Random implements Service.Random.
func (s *defaultService) Random(roster []int64, count int) ([][]int64, error) {
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}
	if count <= 0 || count > len(roster) {
		return nil, fmt.Errorf("%w: %d groups for %d students", ErrInvalidGroupCount, count, len(roster))
	}

	shuffled := slices.Clone(roster)
	s.mu.Lock()
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	s.mu.Unlock()

	return split(shuffled, count), nil
}

// ValidateManual implements Service.ValidateManual.
func (s *defaultService) ValidateManual(roster []int64, groups [][]int64) error {
	if len(groups) == 0 {
		return ErrNoGroups
	}

	onRoster := make(map[int64]struct{}, len(roster))
	for _, id := range roster {
		onRoster[id] = struct{}{}
	}

	seen := make(map[int64]int)
	for i, members := range groups {
		if len(members) == 0 {
			return fmt.Errorf("%w: group %d", ErrEmptyGroup, i)
		}
		for _, id := range members {
			if prev, dup := seen[id]; dup {
				return fmt.Errorf("%w: student %d in groups %d and %d",
					domain.ErrDuplicateStudentID, id, prev, i)
			}
			seen[id] = i
			if _, ok := onRoster[id]; !ok {
				return fmt.Errorf("%w: %d", domain.ErrUnknownStudent, id)
			}
		}
	}
	return nil
}

// split cuts ids into count consecutive chunks, the first len(ids) mod count
// of which are one element longer.
func split(ids []int64, count int) [][]int64 {
	base := len(ids) / count
	remainder := len(ids) % count

	groups := make([][]int64, 0, count)
	start := 0
	for i := 0; i < count; i++ {
		size := base
		if i < remainder {
			size++
		}
		groups = append(groups, slices.Clone(ids[start:start+size]))
		start += size
	}
	return groups
}
