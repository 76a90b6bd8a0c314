package internal

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePlayerStats_HappyPath(t *testing.T) {
	api := newFakeRiotAPI()
	api.ranked = []RankedStanding{
		{QueueType: QueueRankedSolo, Tier: "CHALLENGER", Rank: "I", LeaguePoints: 1200, Wins: 200, Losses: 150},
		{QueueType: QueueRankedFlex, Tier: "MASTER", Rank: "I", Wins: 10, Losses: 5},
	}
	api.top = masteryEntries(900000, 800000, 700000, 600000, 500000)

	result, err := newTestAggregator(api).ResolvePlayerStats(context.Background(), "Faker", "KR1")
	require.NoError(t, err)

	assert.Equal(t, testPUUID, result.Account.PUUID)
	assert.Equal(t, 512, result.Profile.SummonerLevel)

	solo, ok := result.RankedQueue(QueueRankedSolo)
	require.True(t, ok)
	assert.Equal(t, "CHALLENGER", solo.Tier)

	assert.Equal(t, MasterySourceTop, result.MasterySource)
	require.Len(t, result.TopChampions, 5)
	for i := 1; i < len(result.TopChampions); i++ {
		assert.GreaterOrEqual(t, result.TopChampions[i-1].ChampionPoints, result.TopChampions[i].ChampionPoints)
	}
	assert.Empty(t, result.Matches)
	assert.Empty(t, result.Diagnostics)
	assert.Equal(t, fixedNow(), result.ResolvedAt)

	// Ahri, TF, LeBlanc, Orianna and Syndra are all mid.
	assert.Equal(t, LaneMid, result.MainRole())
}

func TestResolvePlayerStats_MasteryFromMatchHistory(t *testing.T) {
	api := newFakeRiotAPI()
	api.ranked = []RankedStanding{}
	api.topErr = statusErr(OpMasteryTop, 403)
	api.allErr = statusErr(OpMasteryAll, 403)

	// Twenty ids, only the first ten are fetched; two of those fail.
	for i := 0; i < 20; i++ {
		champ, pos := 412, "UTILITY"
		if i%3 == 0 {
			champ, pos = 22, "BOTTOM"
		}
		api.addMatch(fmt.Sprintf("KR_%02d", i), champ, pos, i%2 == 0)
	}
	api.matchErrs["KR_03"] = statusErr(OpMatch, 500)
	api.matchErrs["KR_05"] = statusErr(OpMatch, 503)

	result, err := newTestAggregator(api).ResolvePlayerStats(context.Background(), "Faker", "KR1")
	require.NoError(t, err)

	assert.Equal(t, 10, api.callCount(OpMatch))
	assert.Equal(t, MasterySourceMatchHistory, result.MasterySource)
	require.Len(t, result.Matches, 8)
	assert.LessOrEqual(t, len(result.TopChampions), 5)
	for _, entry := range result.TopChampions {
		assert.True(t, entry.Estimated)
	}

	// Of the eight fetched matches, KR_00, KR_06 and KR_09 are Bottom.
	assert.Equal(t, LaneSupport, result.MatchRole)
	assert.Equal(t, InferRoleFromMatches(result.Matches), result.MainRole())
	assert.Equal(t, 6.0, result.AvgCSPerMin)

	stages := []string{}
	for _, d := range result.Diagnostics {
		stages = append(stages, d.Stage)
		assert.Equal(t, KindAuth, d.Kind)
	}
	assert.Equal(t, []string{OpMasteryTop, OpMasteryAll}, stages)
}

func TestResolvePlayerStats_UnlabelledMatchesFallBackToMasteryRole(t *testing.T) {
	api := newFakeRiotAPI()
	api.topErr = statusErr(OpMasteryTop, 403)
	api.allErr = statusErr(OpMasteryAll, 403)
	api.addMatch("KR_1", 412, "", true)
	api.addMatch("KR_2", 412, "", false)

	result, err := newTestAggregator(api).ResolvePlayerStats(context.Background(), "Faker", "KR1")
	require.NoError(t, err)

	require.Len(t, result.Matches, 2)
	assert.Equal(t, LaneUnknown, result.MatchRole)
	require.NotEmpty(t, result.TopChampions)
	assert.Equal(t, 412, result.TopChampions[0].ChampionID)
	assert.Equal(t, LaneSupport, result.MainRole())
}

func TestResolvePlayerStats_MasteryRateLimitSurfacesDiagnostic(t *testing.T) {
	api := newFakeRiotAPI()
	api.topErr = statusErr(OpMasteryTop, 429)
	api.all = masteryEntries(100)

	result, err := newTestAggregator(api).ResolvePlayerStats(context.Background(), "Faker", "KR1")
	require.NoError(t, err)

	assert.Equal(t, MasterySourceNone, result.MasterySource)
	assert.Empty(t, result.TopChampions)
	assert.Equal(t, 0, api.callCount(OpMasteryAll))
	assert.Equal(t, 0, api.callCount(OpMatchIDs))
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, OpMasteryTop, result.Diagnostics[0].Stage)
	assert.Equal(t, KindRateLimited, result.Diagnostics[0].Kind)
}

func TestResolvePlayerStats_MatchRolePreferredOverMastery(t *testing.T) {
	api := newFakeRiotAPI()
	api.topErr = statusErr(OpMasteryTop, 500)
	api.allErr = statusErr(OpMasteryAll, 500)
	// Thresh in the jungle: mastery would say Support, matches say Jungle.
	api.addMatch("KR_1", 412, "JUNGLE", true)
	api.addMatch("KR_2", 412, "JUNGLE", true)

	result, err := newTestAggregator(api).ResolvePlayerStats(context.Background(), "Faker", "KR1")
	require.NoError(t, err)

	assert.Equal(t, LaneSupport, InferRoleFromMastery(result.TopChampions))
	assert.Equal(t, LaneJungle, result.MainRole())
}

func TestResolvePlayerStats_UnrankedPlayer(t *testing.T) {
	api := newFakeRiotAPI()
	api.ranked = []RankedStanding{}
	api.top = masteryEntries(100)

	result, err := newTestAggregator(api).ResolvePlayerStats(context.Background(), "Faker", "KR1")
	require.NoError(t, err)

	require.NotNil(t, result.RankedStats)
	assert.Empty(t, result.RankedStats)
	assert.Empty(t, result.Diagnostics)
	assert.Equal(t, testPUUID, result.Account.PUUID)
	assert.Equal(t, "summoner-1", result.Profile.ID)
}

func TestResolvePlayerStats_RankedFailureDegrades(t *testing.T) {
	for _, status := range []int{401, 429, 500} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			api := newFakeRiotAPI()
			api.rankedErr = statusErr(OpRanked, status)
			api.top = masteryEntries(100, 50)

			result, err := newTestAggregator(api).ResolvePlayerStats(context.Background(), "Faker", "KR1")
			require.NoError(t, err)

			require.NotNil(t, result.RankedStats)
			assert.Empty(t, result.RankedStats)
			assert.Equal(t, testPUUID, result.Account.PUUID)
			assert.Len(t, result.TopChampions, 2)
			require.Len(t, result.Diagnostics, 1)
			assert.Equal(t, OpRanked, result.Diagnostics[0].Stage)
			assert.Equal(t, status, result.Diagnostics[0].Status)
		})
	}
}

func TestResolvePlayerStats_AccountNotFound(t *testing.T) {
	api := newFakeRiotAPI()
	api.accountErr = statusErr(OpAccount, 404)

	result, err := newTestAggregator(api).ResolvePlayerStats(context.Background(), "Nobody", "0000")

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, IsSummonerNotFound(err))
	assert.Equal(t, 0, api.callCount(OpSummoner))
}

func TestResolvePlayerStats_SummonerNotFoundIsDistinct(t *testing.T) {
	api := newFakeRiotAPI()
	api.summonerErr = statusErr(OpSummoner, 404)

	result, err := newTestAggregator(api).ResolvePlayerStats(context.Background(), "Faker", "KR1")

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, IsSummonerNotFound(err))
	assert.Equal(t, 0, api.callCount(OpRanked))
	assert.Equal(t, 0, api.callCount(OpMasteryTop))
}

func TestResolvePlayerStats_AuthFailureOnAccountPropagates(t *testing.T) {
	api := newFakeRiotAPI()
	api.accountErr = statusErr(OpAccount, 403)

	_, err := newTestAggregator(api).ResolvePlayerStats(context.Background(), "Faker", "KR1")
	assert.True(t, errors.Is(err, ErrAuth))
}

func TestResolvePlayerStats_RejectsBlankRiotID(t *testing.T) {
	api := newFakeRiotAPI()
	agg := newTestAggregator(api)

	for _, id := range [][2]string{{"", "KR1"}, {"Faker", "  "}} {
		_, err := agg.ResolvePlayerStats(context.Background(), id[0], id[1])
		assert.True(t, errors.Is(err, ErrNotFound), "%q#%q", id[0], id[1])
	}
	assert.Equal(t, 0, api.callCount(OpAccount))
}

func TestResolvePlayerStats_AllMasteryTiersFail(t *testing.T) {
	api := newFakeRiotAPI()
	api.ranked = []RankedStanding{{QueueType: QueueRankedSolo, Tier: "GOLD", Rank: "II"}}
	api.topErr = statusErr(OpMasteryTop, 500)
	api.allErr = statusErr(OpMasteryAll, 500)
	api.matchIDsErr = statusErr(OpMatchIDs, 500)

	result, err := newTestAggregator(api).ResolvePlayerStats(context.Background(), "Faker", "KR1")
	require.NoError(t, err)

	require.NotNil(t, result.TopChampions)
	assert.Empty(t, result.TopChampions)
	assert.Equal(t, MasterySourceNone, result.MasterySource)
	assert.Equal(t, LaneUnknown, result.MainRole())
	assert.Len(t, result.RankedStats, 1)
	assert.Len(t, result.Diagnostics, 3)
}

func TestVerifyAccount(t *testing.T) {
	t.Run("exists", func(t *testing.T) {
		ok, err := newTestAggregator(newFakeRiotAPI()).VerifyAccount(context.Background(), "Faker", "KR1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("not found", func(t *testing.T) {
		api := newFakeRiotAPI()
		api.accountErr = statusErr(OpAccount, 404)
		ok, err := newTestAggregator(api).VerifyAccount(context.Background(), "Faker", "KR1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("blank input", func(t *testing.T) {
		ok, err := newTestAggregator(newFakeRiotAPI()).VerifyAccount(context.Background(), "", "")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("upstream failure is returned", func(t *testing.T) {
		api := newFakeRiotAPI()
		api.accountErr = statusErr(OpAccount, 503)
		ok, err := newTestAggregator(api).VerifyAccount(context.Background(), "Faker", "KR1")
		assert.False(t, ok)
		assert.True(t, errors.Is(err, ErrTransient))
	})
}
