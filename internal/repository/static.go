package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/UnknownOlympus/clusterview/internal/models"
)

// StaticRepository serves one group from memory. It is used when no database is configured.
type StaticRepository struct {
	mu       sync.Mutex
	group    models.GroupRecord
	members  []models.MemberSeed
	failures map[string]int
}

// NewStaticRepository returns a repository holding group and a copy of members.
func NewStaticRepository(group models.GroupRecord, members []models.MemberSeed) *StaticRepository {
	seeds := make([]models.MemberSeed, len(members))
	copy(seeds, members)

	return &StaticRepository{group: group, members: seeds, failures: make(map[string]int)}
}

func (s *StaticRepository) FetchGroup(_ context.Context, name string) (models.GroupRecord, error) {
	if name != s.group.Name {
		return models.GroupRecord{}, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}

	return s.group, nil
}

func (s *StaticRepository) FetchMembers(_ context.Context, groupID int) ([]models.MemberSeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if groupID != s.group.ID {
		return nil, nil
	}

	members := make([]models.MemberSeed, 0, len(s.members))
	for _, member := range s.members {
		if member.Location == nil && s.failures[member.ID] >= MaxLocateAttempts {
			continue
		}
		members = append(members, member)
	}

	return members, nil
}

func (s *StaticRepository) UpdateMemberLocation(_ context.Context, memberID string, location models.GeoPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for idx := range s.members {
		if s.members[idx].ID == memberID {
			loc := location
			s.members[idx].Location = &loc
			delete(s.failures, memberID)
			return nil
		}
	}

	return fmt.Errorf("failed to update member location: unknown member %s", memberID)
}

func (s *StaticRepository) IncrementLocateFailure(_ context.Context, memberID string, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[memberID]++

	return nil
}
