package games

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db/dbtest"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db/models"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/enums"
	pkgerrors "github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/errors"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newScheduler(t *testing.T, now time.Time) (Service, *gorm.DB, *testClock) {
	t.Helper()
	conn := dbtest.Open(t)
	policy, err := NewPolicy(defaultLottery())
	require.NoError(t, err)
	clock := &testClock{now: now}
	svc, err := NewService(NewRepository(conn), policy, nil, WithClock(clock.Now))
	require.NoError(t, err)
	return svc, conn, clock
}

func countGames(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, conn.Model(&models.Game{}).Count(&count).Error)
	return count
}

func TestGetOrCreateCurrentGameCreatesCurrentWeek(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	svc, conn, _ := newScheduler(t, now)
	ctx := context.Background()

	game, err := svc.GetOrCreateCurrentGame(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2026, game.Year)
	assert.Equal(t, 42, game.WeekNumber)
	assert.True(t, game.BetDeadline.Equal(time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)))
	require.NotNil(t, game.DrawDate)
	assert.True(t, game.BetDeadline.Before(*game.DrawDate))
	assert.True(t, game.CanBet(now))

	again, err := svc.GetOrCreateCurrentGame(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.ID, again.ID)
	assert.EqualValues(t, 1, countGames(t, conn))
}

func TestGetOrCreateCurrentGameSkipsPastDeadline(t *testing.T) {
	// Saturday 18:00 local, one hour after the deadline.
	now := time.Date(2026, 10, 17, 16, 0, 0, 0, time.UTC)
	svc, _, _ := newScheduler(t, now)

	game, err := svc.GetOrCreateCurrentGame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 43, game.WeekNumber)
}

func TestNextWeekCreatedEarlyReportsOpen(t *testing.T) {
	now := time.Date(2026, 10, 17, 16, 0, 0, 0, time.UTC)
	svc, _, _ := newScheduler(t, now)
	ctx := context.Background()

	game, err := svc.GetOrCreateCurrentGame(ctx)
	require.NoError(t, err)
	require.True(t, now.Before(game.StartTime), "W43 has not started yet")

	view, err := svc.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.True(t, view.CanBet)
	assert.Equal(t, enums.GameStateOpen, view.State)
}

func TestGetOrCreateCurrentGameMovesPastDrawnGame(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	svc, conn, _ := newScheduler(t, now)
	ctx := context.Background()

	current, err := svc.GetOrCreateCurrentGame(ctx)
	require.NoError(t, err)
	drawn := "1,2,3"
	require.NoError(t, conn.Model(&models.Game{}).Where("id = ?", current.ID).Update("winning_numbers", drawn).Error)

	next, err := svc.GetOrCreateCurrentGame(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, current.ID, next.ID)
	assert.Equal(t, 43, next.WeekNumber)
}

func TestGetOrCreateCurrentGameAdvancesWithClock(t *testing.T) {
	svc, _, clock := newScheduler(t, time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first, err := svc.GetOrCreateCurrentGame(ctx)
	require.NoError(t, err)

	clock.Set(time.Date(2026, 10, 21, 9, 0, 0, 0, time.UTC))
	second, err := svc.GetOrCreateCurrentGame(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 43, second.WeekNumber)
}

func TestGetOrCreateGamesForWeeks(t *testing.T) {
	svc, conn, _ := newScheduler(t, time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	games, err := svc.GetOrCreateGamesForWeeks(ctx, 3)
	require.NoError(t, err)
	require.Len(t, games, 3)
	for i, want := range []int{42, 43, 44} {
		assert.Equal(t, 2026, games[i].Year)
		assert.Equal(t, want, games[i].WeekNumber)
	}

	again, err := svc.GetOrCreateGamesForWeeks(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, games[0].ID, again[0].ID)
	assert.Equal(t, games[1].ID, again[1].ID)
	assert.EqualValues(t, 3, countGames(t, conn))
}

func TestGetOrCreateGamesForWeeksYearRollover(t *testing.T) {
	svc, _, _ := newScheduler(t, time.Date(2026, 12, 23, 12, 0, 0, 0, time.UTC))

	games, err := svc.GetOrCreateGamesForWeeks(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, games, 3)
	got := []Week{}
	for _, g := range games {
		got = append(got, Week{Year: g.Year, Number: g.WeekNumber})
	}
	assert.Equal(t, []Week{{2026, 52}, {2026, 53}, {2027, 1}}, got)
}

func TestGetOrCreateGamesForWeeksRejectsZero(t *testing.T) {
	svc, _, _ := newScheduler(t, time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))

	_, err := svc.GetOrCreateGamesForWeeks(context.Background(), 0)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestGetOrCreateGamesForWeeksConcurrentCallersShareRows(t *testing.T) {
	svc, conn, _ := newScheduler(t, time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	const callers = 8
	results := make([][]models.Game, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.GetOrCreateGamesForWeeks(ctx, 4)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Len(t, results[i], 4)
		for j := range results[i] {
			assert.Equal(t, results[0][j].ID, results[i][j].ID)
		}
	}
	assert.EqualValues(t, 4, countGames(t, conn))
}

func TestFindCurrentGameIsReadOnly(t *testing.T) {
	svc, conn, _ := newScheduler(t, time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := svc.FindCurrentGame(ctx)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	assert.EqualValues(t, 0, countGames(t, conn))

	created, err := svc.GetOrCreateCurrentGame(ctx)
	require.NoError(t, err)

	view, err := svc.FindCurrentGame(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, view.ID)
	assert.Equal(t, enums.GameStateOpen, view.State)
	assert.True(t, view.CanBet)
	assert.False(t, view.IsDrawn)
	assert.Zero(t, view.Revenue)
}

func TestGetGameRevenueExcludesDeletedBets(t *testing.T) {
	svc, conn, _ := newScheduler(t, time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	game, err := svc.GetOrCreateCurrentGame(ctx)
	require.NoError(t, err)

	account := uuid.New()
	dbtest.Account(t, conn, account)
	deletedAt := time.Now().UTC()
	for i, price := range []int{20, 40, 80} {
		entry := &models.LedgerEntry{AccountID: account, Amount: price, Type: enums.LedgerEntryTypePurchase, Status: enums.LedgerEntryStatusAccepted}
		require.NoError(t, conn.Create(entry).Error)
		bet := &models.Bet{AccountID: account, GameID: game.ID, LedgerEntryID: entry.ID, SelectedNumbers: "1,2,3,4,5", NumberCount: 5, Price: price}
		if i == 2 {
			bet.DeletedAt = &deletedAt
		}
		require.NoError(t, conn.Create(bet).Error)
	}

	view, err := svc.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, view.Revenue)

	_, err = svc.GetGame(ctx, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestRecordInPersonResults(t *testing.T) {
	svc, conn, _ := newScheduler(t, time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	game, err := svc.GetOrCreateCurrentGame(ctx)
	require.NoError(t, err)

	_, err = svc.RecordInPersonResults(ctx, game.ID, -1, 0)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	view, err := svc.RecordInPersonResults(ctx, game.ID, 2, 300)
	require.NoError(t, err)
	require.NotNil(t, view.InPersonWinners)
	assert.Equal(t, 2, *view.InPersonWinners)
	assert.Equal(t, 300, *view.InPersonPrizePool)

	require.NoError(t, conn.Create(&models.Settlement{GameID: game.ID, SettledBy: uuid.New(), SettledAt: time.Now().UTC()}).Error)
	_, err = svc.RecordInPersonResults(ctx, game.ID, 3, 300)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeAlreadySettled))
}

func TestStateOf(t *testing.T) {
	start := time.Date(2026, 10, 11, 22, 0, 0, 0, time.UTC)
	deadline := time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)
	winning := "3,7,11"
	game := models.Game{StartTime: start, BetDeadline: deadline}
	drawn := models.Game{StartTime: start, BetDeadline: deadline, WinningNumbers: &winning}

	cases := []struct {
		name    string
		game    models.Game
		settled bool
		now     time.Time
		want    enums.GameState
	}{
		{"bettable before start", game, false, start.Add(-time.Hour), enums.GameStateOpen},
		{"open", game, false, start.Add(time.Hour), enums.GameStateOpen},
		{"closed", game, false, deadline, enums.GameStateClosed},
		{"drawn", drawn, false, deadline.Add(time.Hour), enums.GameStateDrawn},
		{"settled", drawn, true, deadline.Add(time.Hour), enums.GameStateSettled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StateOf(tc.game, tc.settled, tc.now))
		})
	}
}
