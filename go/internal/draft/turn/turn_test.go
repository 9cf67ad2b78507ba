package turn

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fourTeams() []uuid.UUID {
	return []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
}

func TestForPick(t *testing.T) {
	order := fourTeams()
	a, b, c, d := order[0], order[1], order[2], order[3]

	tests := []struct {
		name        string
		overall     int
		format      models.DraftFormat
		wantTeam    uuid.UUID
		wantRound   int
		wantInRound int
	}{
		{"serpentine first pick", 1, models.DraftFormatSerpentine, a, 1, 1},
		{"serpentine end of round one", 4, models.DraftFormatSerpentine, d, 1, 4},
		{"serpentine turn at round two", 5, models.DraftFormatSerpentine, d, 2, 1},
		{"serpentine round two third", 7, models.DraftFormatSerpentine, b, 2, 3},
		{"serpentine end of round two", 8, models.DraftFormatSerpentine, a, 2, 4},
		{"serpentine round three restarts", 9, models.DraftFormatSerpentine, a, 3, 1},
		{"straight round two", 5, models.DraftFormatStraight, a, 2, 1},
		{"straight round two third", 7, models.DraftFormatStraight, c, 2, 3},
		{"straight end of round two", 8, models.DraftFormatStraight, d, 2, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, err := ForPick(tt.overall, order, tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTeam, slot.TeamID)
			assert.Equal(t, tt.wantRound, slot.Round)
			assert.Equal(t, tt.wantInRound, slot.PickInRound)
			assert.Equal(t, tt.overall, slot.OverallPick)
		})
	}
}

func TestForPickValidation(t *testing.T) {
	order := fourTeams()

	_, err := ForPick(0, order, models.DraftFormatSerpentine)
	assert.True(t, errors.Is(err, drafterr.ErrValidation))

	_, err = ForPick(1, order[:1], models.DraftFormatSerpentine)
	assert.True(t, errors.Is(err, drafterr.ErrValidation))

	_, err = ForPick(1, order, models.DraftFormat("auction"))
	assert.True(t, errors.Is(err, drafterr.ErrValidation))
}

func TestForPickIsPure(t *testing.T) {
	order := fourTeams()
	first, err := ForPick(6, order, models.DraftFormatSerpentine)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := ForPick(6, order, models.DraftFormatSerpentine)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSchedulePartitionsPicks(t *testing.T) {
	order := fourTeams()
	const rounds = 5

	for _, format := range []models.DraftFormat{models.DraftFormatSerpentine, models.DraftFormatStraight} {
		slots, err := Schedule(rounds, order, format)
		require.NoError(t, err)
		require.Len(t, slots, rounds*len(order))

		perTeam := make(map[uuid.UUID]int)
		perRound := make(map[int]map[uuid.UUID]bool)
		for i, s := range slots {
			assert.Equal(t, i+1, s.OverallPick)
			perTeam[s.TeamID]++
			if perRound[s.Round] == nil {
				perRound[s.Round] = make(map[uuid.UUID]bool)
			}
			assert.False(t, perRound[s.Round][s.TeamID], "team picked twice in round %d", s.Round)
			perRound[s.Round][s.TeamID] = true
		}
		for _, id := range order {
			assert.Equal(t, rounds, perTeam[id])
		}
	}
}

func TestRandomOrderIsPermutation(t *testing.T) {
	order := fourTeams()
	rng := rand.New(rand.NewPCG(1, 2))

	shuffled := RandomOrder(order, rng)
	assert.ElementsMatch(t, order, shuffled)
	assert.Len(t, shuffled, len(order))
}

func TestWeightedLotteryOrder(t *testing.T) {
	order := fourTeams()
	rng := rand.New(rand.NewPCG(7, 11))

	result, err := WeightedLotteryOrder(order, nil, rng)
	require.NoError(t, err)
	assert.ElementsMatch(t, order, result)

	_, err = WeightedLotteryOrder(order, []float64{1, 2}, rng)
	assert.True(t, errors.Is(err, drafterr.ErrValidation))

	_, err = WeightedLotteryOrder(order, []float64{1, 0, 1, 1}, rng)
	assert.True(t, errors.Is(err, drafterr.ErrValidation))
}

func TestWeightedLotteryFavorsHeavyWeights(t *testing.T) {
	order := fourTeams()
	rng := rand.New(rand.NewPCG(42, 42))
	weights := []float64{1000, 1, 1, 1}

	firstCount := 0
	for i := 0; i < 200; i++ {
		result, err := WeightedLotteryOrder(order, weights, rng)
		require.NoError(t, err)
		if result[0] == order[0] {
			firstCount++
		}
	}
	assert.Greater(t, firstCount, 180)
}

func TestAdvance(t *testing.T) {
	order := []uuid.UUID{uuid.New(), uuid.New()}
	now := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	d := &models.Draft{
		Status:             models.DraftStatusInProgress,
		Format:             models.DraftFormatSerpentine,
		DraftOrder:         order,
		TeamCount:          2,
		TotalRounds:        2,
		PickTimer:          90,
		CurrentOverallPick: 2,
	}

	done, err := Advance(d, now)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 3, d.CurrentOverallPick)
	assert.Equal(t, 2, d.CurrentRound)
	assert.Equal(t, 1, d.CurrentPick)
	require.NotNil(t, d.OnTheClock)
	assert.Equal(t, order[1], d.OnTheClock.TeamID)
	assert.Equal(t, now.Add(90*time.Second), d.OnTheClock.ClockExpires)

	d.CurrentOverallPick = 4
	deadline := now.Add(time.Hour)
	d.SkipQueue = []models.SkippedPick{{CatchUpStatus: models.CatchUpStatusAvailable, CatchUpDeadline: &deadline}}

	done, err = Advance(d, now)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, models.DraftStatusCompleted, d.Status)
	assert.Nil(t, d.OnTheClock)
	require.NotNil(t, d.CompletedAt)
	assert.Equal(t, models.CatchUpStatusForfeited, d.SkipQueue[0].CatchUpStatus)
}
