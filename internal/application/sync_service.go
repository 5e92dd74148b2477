package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrRateLimited is returned when the sync API rate limit is exceeded.
var ErrRateLimited = errors.New("rate limit exceeded")

// DefaultSyncCooldown is the minimum time between API triggered syncs.
const DefaultSyncCooldown = 30 * time.Second

// SyncReport contains the result of a sync operation.
type SyncReport struct {
	Added           []string  `json:"added"`
	Updated         []string  `json:"updated"`
	Removed         []string  `json:"removed"`
	Failed          []string  `json:"failed"`
	DocumentsTotal  int       `json:"documents_total"`
	SyncedAt        time.Time `json:"synced_at"`
	NextScheduledAt time.Time `json:"next_scheduled_at,omitempty"`
}

// SyncService periodically reconciles the catalog with storage.
type SyncService struct {
	catalog  *Catalog
	interval time.Duration
	cooldown time.Duration
	logger   *slog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Rate limiting for API triggers
	lastAPISync time.Time
	apiMutex    sync.Mutex

	// Prevents concurrent sync operations
	syncOpMutex sync.Mutex

	nextSync time.Time
	syncMu   sync.RWMutex
}

// NewSyncService creates a new sync service.
func NewSyncService(catalog *Catalog, interval time.Duration, logger *slog.Logger) *SyncService {
	return &SyncService{
		catalog:  catalog,
		interval: interval,
		cooldown: DefaultSyncCooldown,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sync scheduler.
func (s *SyncService) Start(ctx context.Context) {
	s.logger.Info("starting sync service", "interval", s.interval)

	s.wg.Add(1)
	go s.run(ctx)
}

func (s *SyncService) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.setNextSync(time.Now().Add(s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sync service stopped: context canceled")
			return
		case <-s.stopCh:
			s.logger.Info("sync service stopped")
			return
		case <-ticker.C:
			s.logger.Debug("scheduled sync triggered")
			if _, err := s.sync(ctx); err != nil {
				s.logger.Error("sync failed", "error", err)
			}
			s.setNextSync(time.Now().Add(s.interval))
		}
	}
}

// Stop gracefully stops the sync service. It is safe to call more than once.
func (s *SyncService) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("stopping sync service")
		close(s.stopCh)
	})
	s.wg.Wait()
}

// TriggerSync runs a sync now. Calls within the cooldown of the previous
// API triggered sync return ErrRateLimited.
func (s *SyncService) TriggerSync(ctx context.Context) (SyncReport, error) {
	s.apiMutex.Lock()
	defer s.apiMutex.Unlock()

	if !s.lastAPISync.IsZero() && time.Since(s.lastAPISync) < s.cooldown {
		return SyncReport{}, ErrRateLimited
	}
	s.lastAPISync = time.Now()

	return s.sync(ctx)
}

func (s *SyncService) sync(ctx context.Context) (SyncReport, error) {
	s.syncOpMutex.Lock()
	defer s.syncOpMutex.Unlock()

	result, err := s.catalog.Sync(ctx)
	if err != nil {
		return SyncReport{}, err
	}

	return SyncReport{
		Added:           nonNil(result.Added),
		Updated:         nonNil(result.Updated),
		Removed:         nonNil(result.Removed),
		Failed:          nonNil(result.Failed),
		DocumentsTotal:  s.catalog.DocumentCount(),
		SyncedAt:        time.Now(),
		NextScheduledAt: s.getNextSync(),
	}, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func (s *SyncService) setNextSync(t time.Time) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	s.nextSync = t
}

func (s *SyncService) getNextSync() time.Time {
	s.syncMu.RLock()
	defer s.syncMu.RUnlock()
	return s.nextSync
}

// Interval returns the sync interval.
func (s *SyncService) Interval() time.Duration {
	return s.interval
}
