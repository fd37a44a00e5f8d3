package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humphreyhhui/LanguageGames/internal/models"
)

// recordingNotifier captures scheduler callbacks for assertions.
type recordingNotifier struct {
	humanMatches []humanMatch
	botMatches   []botMatch
	statuses     map[string][]models.QueueStatus
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{statuses: make(map[string][]models.QueueStatus)}
}

func (n *recordingNotifier) HumanMatchFound(room *models.Room, e1, e2 *models.QueueEntry) {
	n.humanMatches = append(n.humanMatches, humanMatch{room: room, e1: e1, e2: e2})
}

func (n *recordingNotifier) BotMatchCreated(room *models.Room, entry *models.QueueEntry) {
	n.botMatches = append(n.botMatches, botMatch{room: room, entry: entry})
}

func (n *recordingNotifier) QueueStatus(entry *models.QueueEntry, status models.QueueStatus) {
	n.statuses[entry.PlayerID] = append(n.statuses[entry.PlayerID], status)
}

func testScheduler(notifier MatchNotifier) *MatchmakingService {
	return NewMatchmakingService(NewRoomService(), notifier, SchedulerConfig{
		TickInterval:      3 * time.Second,
		StatusInterval:    5 * time.Second,
		FallbackThreshold: 45 * time.Second,
	})
}

func entryAt(player string, rating int, joined time.Time) *models.QueueEntry {
	return &models.QueueEntry{
		ConnectionID: "conn-" + player,
		PlayerID:     player,
		DisplayName:  "Player " + player,
		Rating:       rating,
		Category:     "vocabulary",
		JoinedAt:     joined,
	}
}

func TestMatchmakingService_AllowedRange(t *testing.T) {
	scheduler := testScheduler(newRecordingNotifier())

	tests := []struct {
		wait     time.Duration
		expected int
	}{
		{0, 100},
		{9 * time.Second, 100},
		{10 * time.Second, 200},
		{19 * time.Second, 200},
		{20 * time.Second, 400},
		{29 * time.Second, 400},
		{30 * time.Second, -1},
		{5 * time.Minute, -1},
	}

	for _, tt := range tests {
		if got := scheduler.AllowedRange(tt.wait); got != tt.expected {
			t.Errorf("AllowedRange(%v) = %d, want %d", tt.wait, got, tt.expected)
		}
	}
}

func TestMatchmakingService_JoinQueueIdempotent(t *testing.T) {
	scheduler := testScheduler(newRecordingNotifier())
	now := time.Now()

	assert.True(t, scheduler.JoinQueue(entryAt("alice", 1000, now)))
	assert.False(t, scheduler.JoinQueue(entryAt("alice", 1000, now)))
	assert.Equal(t, 1, scheduler.QueueSize("vocabulary"))

	// The same player is also rejected under a fresh connection id.
	dup := entryAt("alice", 1000, now)
	dup.ConnectionID = "conn-alice-2"
	assert.False(t, scheduler.JoinQueue(dup))
}

func TestMatchmakingService_MatchesWithinRange(t *testing.T) {
	notifier := newRecordingNotifier()
	scheduler := testScheduler(notifier)
	now := time.Now()

	scheduler.JoinQueue(entryAt("alice", 1000, now))
	scheduler.JoinQueue(entryAt("bob", 1080, now))

	scheduler.RunTick(now.Add(time.Second))

	require.Len(t, notifier.humanMatches, 1)
	m := notifier.humanMatches[0]
	assert.Equal(t, models.RoomModeRanked, m.room.Mode)
	assert.Equal(t, "alice", m.e1.PlayerID)
	assert.Equal(t, "bob", m.e2.PlayerID)
	assert.Equal(t, 0, scheduler.QueueSize("vocabulary"))
}

func TestMatchmakingService_RangeWidensOverTime(t *testing.T) {
	notifier := newRecordingNotifier()
	scheduler := testScheduler(notifier)
	now := time.Now()

	// 300 points apart: outside the initial 100 range, inside 400.
	scheduler.JoinQueue(entryAt("alice", 1000, now))
	scheduler.JoinQueue(entryAt("bob", 1300, now))

	scheduler.RunTick(now.Add(time.Second))
	assert.Empty(t, notifier.humanMatches)
	assert.Equal(t, 2, scheduler.QueueSize("vocabulary"))

	scheduler.RunTick(now.Add(21 * time.Second))
	require.Len(t, notifier.humanMatches, 1)
	assert.Equal(t, 0, scheduler.QueueSize("vocabulary"))
}

func TestMatchmakingService_SingleMatchPerTick(t *testing.T) {
	notifier := newRecordingNotifier()
	scheduler := testScheduler(notifier)
	now := time.Now()

	scheduler.JoinQueue(entryAt("alice", 1000, now))
	scheduler.JoinQueue(entryAt("bob", 1000, now))
	scheduler.JoinQueue(entryAt("carol", 1000, now))
	scheduler.JoinQueue(entryAt("dave", 1000, now))

	scheduler.RunTick(now.Add(time.Second))
	require.Len(t, notifier.humanMatches, 1)
	assert.Equal(t, 2, scheduler.QueueSize("vocabulary"))

	scheduler.RunTick(now.Add(2 * time.Second))
	require.Len(t, notifier.humanMatches, 2)
	assert.Equal(t, 0, scheduler.QueueSize("vocabulary"))
}

func TestMatchmakingService_BotFallback(t *testing.T) {
	notifier := newRecordingNotifier()
	scheduler := testScheduler(notifier)
	now := time.Now()

	scheduler.JoinQueue(entryAt("alice", 1000, now))

	// Just under the threshold nothing happens.
	scheduler.RunTick(now.Add(44 * time.Second))
	assert.Empty(t, notifier.botMatches)
	assert.Equal(t, 1, scheduler.QueueSize("vocabulary"))

	scheduler.RunTick(now.Add(45 * time.Second))
	require.Len(t, notifier.botMatches, 1)
	b := notifier.botMatches[0]
	assert.Equal(t, models.RoomModeBotFallback, b.room.Mode)
	assert.Equal(t, "alice", b.entry.PlayerID)
	require.NotNil(t, b.room.Player2)
	assert.True(t, b.room.Player2.IsBot)
	assert.Equal(t, 0, scheduler.QueueSize("vocabulary"))
}

func TestMatchmakingService_FallbackBeatsUnboundedMatch(t *testing.T) {
	notifier := newRecordingNotifier()
	scheduler := testScheduler(notifier)
	now := time.Now()

	// Alice crossed the fallback threshold; bob arrived moments ago. The
	// stale entry goes to a bot even though a human is technically present.
	scheduler.JoinQueue(entryAt("alice", 1000, now.Add(-46*time.Second)))
	scheduler.JoinQueue(entryAt("bob", 1000, now.Add(-time.Second)))

	scheduler.RunTick(now)

	require.Len(t, notifier.botMatches, 1)
	assert.Equal(t, "alice", notifier.botMatches[0].entry.PlayerID)
	assert.Empty(t, notifier.humanMatches)
	assert.Equal(t, 1, scheduler.QueueSize("vocabulary"))
}

func TestMatchmakingService_LeaveQueue(t *testing.T) {
	scheduler := testScheduler(newRecordingNotifier())
	now := time.Now()

	alice := entryAt("alice", 1000, now)
	grammar := entryAt("alice", 1100, now)
	grammar.Category = "grammar"

	scheduler.JoinQueue(alice)
	scheduler.JoinQueue(grammar)

	// One disconnect clears the player from every category.
	scheduler.LeaveQueue(alice.ConnectionID)

	assert.Equal(t, 0, scheduler.QueueSize("vocabulary"))
	assert.Equal(t, 0, scheduler.QueueSize("grammar"))
}

func TestMatchmakingService_StatusTick(t *testing.T) {
	notifier := newRecordingNotifier()
	scheduler := testScheduler(notifier)
	now := time.Now()

	scheduler.JoinQueue(entryAt("alice", 1000, now))
	scheduler.JoinQueue(entryAt("bob", 2000, now))

	scheduler.RunStatusTick(now.Add(12 * time.Second))

	require.Len(t, notifier.statuses["alice"], 1)
	status := notifier.statuses["alice"][0]
	assert.Equal(t, "vocabulary", status.Category)
	assert.Equal(t, int64(12000), status.WaitMs)
	assert.Equal(t, 200, status.Range)
	assert.Equal(t, 2, status.QueueSize)
	assert.Equal(t, int64(33000), status.FallbackEtaMs)
	require.Len(t, notifier.statuses["bob"], 1)
}

func TestMatchmakingService_Restart(t *testing.T) {
	scheduler := NewMatchmakingService(NewRoomService(), newRecordingNotifier(), SchedulerConfig{
		TickInterval:      time.Millisecond,
		StatusInterval:    time.Millisecond,
		FallbackThreshold: time.Hour,
	})

	// The loops must come back after a full stop, and repeated stops must
	// stay no-ops instead of closing the stop channel twice.
	scheduler.Start()
	scheduler.Stop()
	scheduler.Stop()

	scheduler.Start()
	scheduler.Start()
	scheduler.Stop()
}
