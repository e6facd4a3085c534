package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/footchat/footchat/internal/domain/entity"
	"github.com/footchat/footchat/internal/platform/logging"
	"github.com/panjf2000/ants/v2"
)

const (
	warmupStatusSuccess   = "success"
	warmupStatusFailed    = "failed"
	warmupStatusAmbiguous = "ambiguous"
)

// WarmupInput names the entities to pre-resolve at startup so the first
// user questions do not pay the provider-search latency.
type WarmupInput struct {
	Teams      []string
	Leagues    []string
	MaxWorkers int
}

type WarmupResult struct {
	TaskCount    int                `json:"task_count"`
	SuccessCount int                `json:"success_count"`
	FailedCount  int                `json:"failed_count"`
	WorkerCount  int                `json:"worker_count"`
	Tasks        []WarmupTaskResult `json:"tasks"`
}

type WarmupTaskResult struct {
	Kind       entity.Kind `json:"kind"`
	Name       string      `json:"name"`
	Status     string      `json:"status"`
	ProviderID int64       `json:"provider_id,omitempty"`
	DurationMs int64       `json:"duration_ms"`
	Message    string      `json:"message,omitempty"`
}

type warmupTask struct {
	kind entity.Kind
	name string
}

// WarmupService pre-populates the entity mapping cache through the normal
// resolve path, so warmed names behave exactly like resolved ones.
type WarmupService struct {
	resolver *EntityResolverService
	logger   *logging.Logger
}

func NewWarmupService(resolver *EntityResolverService, logger *logging.Logger) *WarmupService {
	if logger == nil {
		logger = logging.Default()
	}

	return &WarmupService{
		resolver: resolver,
		logger:   logger,
	}
}

func (s *WarmupService) Warm(ctx context.Context, input WarmupInput) (WarmupResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WarmupService.Warm")
	defer span.End()

	if s.resolver == nil {
		return WarmupResult{}, fmt.Errorf("%w: entity resolver is not configured", ErrDependencyUnavailable)
	}

	tasks := make([]warmupTask, 0, len(input.Teams)+len(input.Leagues))
	for _, name := range dedupeNames(input.Leagues) {
		tasks = append(tasks, warmupTask{kind: entity.KindLeague, name: name})
	}
	for _, name := range dedupeNames(input.Teams) {
		tasks = append(tasks, warmupTask{kind: entity.KindTeam, name: name})
	}

	workerCount := normalizeWarmupWorkerCount(input.MaxWorkers, len(tasks))
	result := WarmupResult{
		TaskCount:   len(tasks),
		WorkerCount: workerCount,
		Tasks:       make([]WarmupTaskResult, 0, len(tasks)),
	}
	if len(tasks) == 0 {
		return result, nil
	}

	results := make(chan WarmupTaskResult, len(tasks))

	var successCount atomic.Int32
	var failedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return WarmupResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, task := range tasks {
		task := task
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := WarmupTaskResult{
				Kind: task.kind,
				Name: task.name,
			}

			ref, err := s.resolver.Resolve(ctx, task.kind, task.name, ResolveScope{})
			row.DurationMs = time.Since(start).Milliseconds()
			switch {
			case err == nil:
				row.Status = warmupStatusSuccess
				row.ProviderID = ref.ProviderID
				successCount.Add(1)
			case isAmbiguous(err):
				// Ambiguous names stay cold; the resolver will ask the user
				// when the name actually comes up in a question.
				row.Status = warmupStatusAmbiguous
				row.Message = err.Error()
				failedCount.Add(1)
			default:
				row.Status = warmupStatusFailed
				row.Message = err.Error()
				failedCount.Add(1)
			}

			results <- row
		}); err != nil {
			workers.Done()
			return WarmupResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Tasks = append(result.Tasks, row)
	}

	sort.SliceStable(result.Tasks, func(i, j int) bool {
		if result.Tasks[i].Kind != result.Tasks[j].Kind {
			return result.Tasks[i].Kind < result.Tasks[j].Kind
		}
		return result.Tasks[i].Name < result.Tasks[j].Name
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	s.logger.InfoContext(ctx, "entity warmup finished",
		"tasks", result.TaskCount,
		"success", result.SuccessCount,
		"failed", result.FailedCount,
		"workers", result.WorkerCount,
	)

	return result, nil
}

func isAmbiguous(err error) bool {
	var ambiguous *AmbiguousEntityError
	return errors.As(err, &ambiguous)
}

func dedupeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

func normalizeWarmupWorkerCount(value int, taskCount int) int {
	if taskCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 1
	}
	if value > 4 {
		value = 4
	}
	if value > taskCount {
		value = taskCount
	}
	return value
}
