package service

import (
	"sync"
	"time"

	"github.com/humphreyhhui/LanguageGames/internal/models"
	"github.com/humphreyhhui/LanguageGames/pkg/logger"
)

// RangeStep is one row of the widening range schedule: from After onwards,
// opponents within Range rating points are acceptable. Range -1 means
// unbounded.
type RangeStep struct {
	After time.Duration
	Range int
}

// SchedulerConfig holds the matchmaking tunables.
type SchedulerConfig struct {
	TickInterval      time.Duration
	StatusInterval    time.Duration
	FallbackThreshold time.Duration
	RangeSchedule     []RangeStep
}

// DefaultRangeSchedule matches tightly right after joining and widens at
// fixed breakpoints until any opponent is acceptable.
func DefaultRangeSchedule() []RangeStep {
	return []RangeStep{
		{After: 0, Range: 100},
		{After: 10 * time.Second, Range: 200},
		{After: 20 * time.Second, Range: 400},
		{After: 30 * time.Second, Range: -1},
	}
}

// MatchNotifier receives scheduler outcomes. The gateway implements it over
// the websocket hub; tests substitute a recording fake.
type MatchNotifier interface {
	HumanMatchFound(room *models.Room, e1, e2 *models.QueueEntry)
	BotMatchCreated(room *models.Room, entry *models.QueueEntry)
	QueueStatus(entry *models.QueueEntry, status models.QueueStatus)
}

// MatchmakingService owns the per-category queues and the periodic matching
// algorithm. Ratings are opaque numbers to it; it only compares gaps.
type MatchmakingService struct {
	mu     sync.Mutex
	queues map[string][]*models.QueueEntry

	roomService *RoomService
	notifier    MatchNotifier
	cfg         SchedulerConfig

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	runMu    sync.Mutex
}

func NewMatchmakingService(roomService *RoomService, notifier MatchNotifier, cfg SchedulerConfig) *MatchmakingService {
	if len(cfg.RangeSchedule) == 0 {
		cfg.RangeSchedule = DefaultRangeSchedule()
	}
	return &MatchmakingService{
		queues:      make(map[string][]*models.QueueEntry),
		roomService: roomService,
		notifier:    notifier,
		cfg:         cfg,
	}
}

// JoinQueue adds an entry to its category queue. Idempotent: if the same
// connection or the same player is already queued in that category, nothing
// changes and false is returned.
func (s *MatchmakingService) JoinQueue(entry *models.QueueEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, queued := range s.queues[entry.Category] {
		if queued.ConnectionID == entry.ConnectionID || queued.PlayerID == entry.PlayerID {
			return false
		}
	}

	if entry.JoinedAt.IsZero() {
		entry.JoinedAt = time.Now()
	}
	entry.FallbackAt = entry.JoinedAt.Add(s.cfg.FallbackThreshold)
	s.queues[entry.Category] = append(s.queues[entry.Category], entry)

	logger.Info("Player joined queue",
		"playerId", entry.PlayerID,
		"category", entry.Category,
		"rating", entry.Rating,
		"queueSize", len(s.queues[entry.Category]),
	)
	return true
}

// LeaveQueue removes the connection from every category.
func (s *MatchmakingService) LeaveQueue(connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for category, queue := range s.queues {
		filtered := queue[:0]
		for _, entry := range queue {
			if entry.ConnectionID != connectionID {
				filtered = append(filtered, entry)
			}
		}
		s.queues[category] = filtered
	}
}

// QueueSize returns how many players wait in one category.
func (s *MatchmakingService) QueueSize(category string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues[category])
}

// QueueSizes returns the waiting count per category.
func (s *MatchmakingService) QueueSizes() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	sizes := make(map[string]int, len(s.queues))
	for category, queue := range s.queues {
		sizes[category] = len(queue)
	}
	return sizes
}

// AllowedRange returns the rating gap tolerated after waiting for wait.
// -1 means unbounded. The schedule is monotonic in wait.
func (s *MatchmakingService) AllowedRange(wait time.Duration) int {
	allowed := s.cfg.RangeSchedule[0].Range
	for _, step := range s.cfg.RangeSchedule {
		if wait >= step.After {
			allowed = step.Range
		}
	}
	return allowed
}

// Start launches the match tick and the slower status broadcast tick.
func (s *MatchmakingService) Start() {
	s.runMu.Lock()
	if s.running {
		s.runMu.Unlock()
		return
	}
	s.running = true
	// A fresh channel per run lets Start be called again after Stop.
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.runMu.Unlock()

	logger.Info("Starting MatchmakingService",
		"tickInterval", s.cfg.TickInterval,
		"statusInterval", s.cfg.StatusInterval,
		"fallbackThreshold", s.cfg.FallbackThreshold,
	)

	s.wg.Add(2)
	go s.matchLoop(stop)
	go s.statusLoop(stop)
}

// Stop halts both loops and waits for them to finish.
func (s *MatchmakingService) Stop() {
	s.runMu.Lock()
	if !s.running {
		s.runMu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.runMu.Unlock()

	s.wg.Wait()
	logger.Info("MatchmakingService stopped")
}

func (s *MatchmakingService) matchLoop(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			s.RunTick(now)
		case <-stop:
			return
		}
	}
}

func (s *MatchmakingService) statusLoop(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			s.RunStatusTick(now)
		case <-stop:
			return
		}
	}
}

type humanMatch struct {
	room   *models.Room
	e1, e2 *models.QueueEntry
}

type botMatch struct {
	room  *models.Room
	entry *models.QueueEntry
}

// RunTick executes one matching pass over every category. Exposed with an
// injected now so tests can drive it deterministically.
func (s *MatchmakingService) RunTick(now time.Time) {
	var humans []humanMatch
	var bots []botMatch

	s.mu.Lock()
	for category := range s.queues {
		h, b := s.tickCategory(category, now)
		if h != nil {
			humans = append(humans, *h)
		}
		bots = append(bots, b...)
	}
	s.mu.Unlock()

	// Hooks fire outside the lock; they fan out into the gateway.
	for _, b := range bots {
		logger.Info("Bot fallback triggered",
			"playerId", b.entry.PlayerID,
			"category", b.entry.Category,
			"roomId", b.room.ID,
		)
		s.notifier.BotMatchCreated(b.room, b.entry)
	}
	for _, h := range humans {
		logger.Info("Match found",
			"category", h.room.Category,
			"player1", h.e1.PlayerID,
			"player2", h.e2.PlayerID,
			"ratingGap", abs(h.e1.Rating-h.e2.Rating),
			"roomId", h.room.ID,
		)
		s.notifier.HumanMatchFound(h.room, h.e1, h.e2)
	}
}

// tickCategory scans one category queue. Every entry past the fallback
// threshold is replaced with a bot room; otherwise the first pair within the
// current allowed range is matched and scanning stops for this category.
// Stopping after the first match is what keeps index-based mutation of the
// queue slice sound within a single tick.
func (s *MatchmakingService) tickCategory(category string, now time.Time) (*humanMatch, []botMatch) {
	var bots []botMatch
	queue := s.queues[category]

	i := 0
	for i < len(queue) {
		entry := queue[i]
		wait := now.Sub(entry.JoinedAt)

		if wait >= s.cfg.FallbackThreshold {
			queue = append(queue[:i], queue[i+1:]...)
			room := s.roomService.CreateBotRoom(category, participantFromEntry(entry))
			bots = append(bots, botMatch{room: room, entry: entry})
			continue // do not advance; the next entry shifted into i
		}

		allowed := s.AllowedRange(wait)
		matchIdx := -1
		for j := i + 1; j < len(queue); j++ {
			other := queue[j]
			if other.PlayerID == entry.PlayerID {
				continue
			}
			if allowed < 0 || abs(other.Rating-entry.Rating) <= allowed {
				matchIdx = j
				break
			}
		}

		if matchIdx >= 0 {
			other := queue[matchIdx]
			queue = append(queue[:matchIdx], queue[matchIdx+1:]...)
			queue = append(queue[:i], queue[i+1:]...)
			s.queues[category] = queue

			room := s.roomService.CreateRankedRoom(
				category,
				participantFromEntry(entry),
				participantFromEntry(other),
			)
			return &humanMatch{room: room, e1: entry, e2: other}, bots
		}

		i++
	}

	s.queues[category] = queue
	return nil, bots
}

// RunStatusTick pushes an informational snapshot to every queued entry.
// Best effort, no queue mutation.
func (s *MatchmakingService) RunStatusTick(now time.Time) {
	type statusPush struct {
		entry  *models.QueueEntry
		status models.QueueStatus
	}
	var pushes []statusPush

	s.mu.Lock()
	for category, queue := range s.queues {
		for _, entry := range queue {
			wait := now.Sub(entry.JoinedAt)
			eta := entry.FallbackAt.Sub(now)
			if eta < 0 {
				eta = 0
			}
			pushes = append(pushes, statusPush{
				entry: entry,
				status: models.QueueStatus{
					Category:      category,
					WaitMs:        wait.Milliseconds(),
					Range:         s.AllowedRange(wait),
					QueueSize:     len(queue),
					FallbackEtaMs: eta.Milliseconds(),
				},
			})
		}
	}
	s.mu.Unlock()

	for _, p := range pushes {
		s.notifier.QueueStatus(p.entry, p.status)
	}
}

// Reset drops all queues. Test lifecycle hook.
func (s *MatchmakingService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues = make(map[string][]*models.QueueEntry)
}

func participantFromEntry(entry *models.QueueEntry) *models.Participant {
	return &models.Participant{
		ConnectionID: entry.ConnectionID,
		PlayerID:     entry.PlayerID,
		DisplayName:  entry.DisplayName,
		Rating:       entry.Rating,
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
