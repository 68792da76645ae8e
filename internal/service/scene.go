package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/UnknownOlympus/clusterview/internal/cluster"
	"github.com/UnknownOlympus/clusterview/internal/geocoding"
	"github.com/UnknownOlympus/clusterview/internal/metrics"
	"github.com/UnknownOlympus/clusterview/internal/models"
	"github.com/UnknownOlympus/clusterview/internal/repository"
)

// ErrEmptyScene is returned when a group has no member with a usable location.
var ErrEmptyScene = errors.New("cluster group has no locatable members")

// Scene is a group record together with the members that have a location, in display order.
type Scene struct {
	Group   models.GroupRecord
	Members []models.MemberSeed
}

// VisualFactory creates the visual for a marker showing label.
type VisualFactory func(label string) cluster.Visual

// GroupOptions are the presentation settings of a group built from a Scene.
type GroupOptions struct {
	Duration     time.Duration
	InitialState cluster.State
	OnSettled    func(cluster.State)
}

// SceneService loads cluster groups from a repository and locates members that have no
// coordinates yet with a pool of geocoding workers.
type SceneService struct {
	log          *slog.Logger         // Logger for logging service activities
	repo         repository.Interface // Source of groups and members
	provider     geocoding.Provider   // Geocoder for unlocated members, may be nil
	providerName string               // Name of the provider for metrics labeling
	metrics      *metrics.Metrics     // Metrics for tracking service performance
	numWorkers   int                  // Number of concurrent geocoding workers
}

type locateJob struct {
	idx    int
	member models.MemberSeed
}

// NewSceneService creates a SceneService. A nil provider leaves unlocated members out of every scene.
func NewSceneService(
	log *slog.Logger,
	repo repository.Interface,
	provider geocoding.Provider,
	providerName string,
	metrics *metrics.Metrics,
	numWorkers int,
) *SceneService {
	return &SceneService{
		log:          log,
		repo:         repo,
		provider:     provider,
		providerName: providerName,
		metrics:      metrics,
		numWorkers:   max(numWorkers, 1),
	}
}

// Load fetches the named group and its members, geocodes the members without a location
// and returns those that could be placed. Members that still have no location are left
// out and their failure is recorded in the repository.
func (s *SceneService) Load(ctx context.Context, groupName string) (Scene, error) {
	group, err := s.repo.FetchGroup(ctx, groupName)
	if err != nil {
		return Scene{}, fmt.Errorf("failed to load group: %w", err)
	}

	seeds, err := s.repo.FetchMembers(ctx, group.ID)
	if err != nil {
		return Scene{}, fmt.Errorf("failed to load members of group %s: %w", group.Name, err)
	}

	s.locate(ctx, seeds)

	members := make([]models.MemberSeed, 0, len(seeds))
	for _, seed := range seeds {
		if seed.Location == nil {
			s.log.WarnContext(ctx, "Member left out of scene, location unknown", "group", group.Name, "member", seed.ID)
			continue
		}
		members = append(members, seed)
	}

	if len(members) == 0 && len(seeds) > 0 {
		return Scene{}, fmt.Errorf("%w: %s", ErrEmptyScene, group.Name)
	}

	s.log.InfoContext(ctx, "Scene loaded", "group", group.Name, "members", len(members), "dropped", len(seeds)-len(members))

	return Scene{Group: group, Members: members}, nil
}

// NewGroup turns scene into a cluster.Group. The parent visual is labelled with the number
// of members. It does not block and may be called on the goroutine that owns the visuals.
func (s *SceneService) NewGroup(scene Scene, opts GroupOptions, newVisual VisualFactory) (*cluster.Group, error) {
	members := make([]*cluster.Member, 0, len(scene.Members))
	for _, seed := range scene.Members {
		if seed.Location == nil {
			return nil, fmt.Errorf("member %s has no location", seed.ID)
		}
		members = append(members, cluster.NewMember(seed.ID, *seed.Location, newVisual(seed.Label)))
	}

	group, err := cluster.NewGroup(s.log, s.metrics, cluster.GroupConfig{
		Name:         scene.Group.Name,
		Anchor:       scene.Group.Anchor,
		Parent:       newVisual(strconv.Itoa(len(members))),
		Members:      members,
		Duration:     opts.Duration,
		InitialState: opts.InitialState,
		OnSettled:    opts.OnSettled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster group %s: %w", scene.Group.Name, err)
	}

	return group, nil
}

// locate geocodes every seed without a location in place.
func (s *SceneService) locate(ctx context.Context, seeds []models.MemberSeed) {
	var jobsCount int
	for _, seed := range seeds {
		if seed.Location == nil {
			jobsCount++
		}
	}
	if jobsCount == 0 {
		return
	}
	if s.provider == nil {
		s.log.WarnContext(ctx, "No geocoding provider configured, skipping unlocated members", "members", jobsCount)
		s.metrics.MembersLocated.WithLabelValues("skipped").Add(float64(jobsCount))
		return
	}

	s.log.InfoContext(ctx, "Locating members. Starting worker pool.", "jobs", jobsCount, "num_workers", s.numWorkers)

	jobs := make(chan locateJob, jobsCount)
	var wgr sync.WaitGroup

	for i := 1; i <= min(s.numWorkers, jobsCount); i++ {
		wgr.Add(1)
		go s.worker(ctx, i, &wgr, jobs, seeds)
	}

	for idx, seed := range seeds {
		if seed.Location == nil {
			jobs <- locateJob{idx: idx, member: seed}
		}
	}
	close(jobs)

	wgr.Wait()
	s.log.InfoContext(ctx, "Locating members finished")
}

// worker geocodes the members it receives and stores each found location both in the
// repository and in seeds. Every job owns a distinct index of seeds.
func (s *SceneService) worker(
	ctx context.Context,
	idx int,
	wg *sync.WaitGroup,
	jobs <-chan locateJob,
	seeds []models.MemberSeed,
) {
	defer wg.Done()
	for job := range jobs {
		member := job.member
		s.log.DebugContext(ctx, "Locating member", "worker", idx, "member", member.ID)

		startTime := time.Now()
		location, err := s.provider.Geocode(ctx, member.Locator())
		s.metrics.LocateRequestTimes.WithLabelValues(s.providerName).Observe(time.Since(startTime).Seconds())

		if err != nil {
			s.log.ErrorContext(ctx, "Failed to locate member", "worker", idx, "member", member.ID, "error", err)
			s.metrics.MembersLocated.WithLabelValues("failure").Inc()

			if err = s.repo.IncrementLocateFailure(ctx, member.ID, err.Error()); err != nil {
				s.log.ErrorContext(ctx, "Could not update failure count for member",
					"worker", idx, "member", member.ID, "error", err)
			}
			continue
		}

		s.metrics.MembersLocated.WithLabelValues("success").Inc()
		seeds[job.idx].Location = location

		if err = s.repo.UpdateMemberLocation(ctx, member.ID, *location); err != nil {
			s.log.ErrorContext(ctx, "Failed to store location of member",
				"worker", idx, "member", member.ID, "error", err)
		}
	}
}
