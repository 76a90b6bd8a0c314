package internal

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const testPUUID = "puuid-0123456789abcdefghijklmnopqrstuvwxyz"

type fakeRiotAPI struct {
	mu    sync.Mutex
	calls map[string]int

	account     *RiotAccount
	accountErr  error
	profile     *SummonerProfile
	summonerErr error
	ranked      []RankedStanding
	rankedErr   error
	top         []ChampionMasteryEntry
	topErr      error
	all         []ChampionMasteryEntry
	allErr      error
	matchIDs    []string
	matchIDsErr error
	matches     map[string]*MatchDetail
	matchErrs   map[string]error
}

func newFakeRiotAPI() *fakeRiotAPI {
	return &fakeRiotAPI{
		calls:     make(map[string]int),
		account:   &RiotAccount{PUUID: testPUUID, GameName: "Faker", TagLine: "KR1"},
		profile:   &SummonerProfile{ID: "summoner-1", AccountID: "account-1", PUUID: testPUUID, SummonerLevel: 512},
		matches:   make(map[string]*MatchDetail),
		matchErrs: make(map[string]error),
	}
}

func (f *fakeRiotAPI) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeRiotAPI) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeRiotAPI) GetAccountByRiotID(_ context.Context, gameName, tagLine string) (*RiotAccount, error) {
	f.record(OpAccount)
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	account := *f.account
	return &account, nil
}

func (f *fakeRiotAPI) GetSummonerByPUUID(_ context.Context, puuid string) (*SummonerProfile, error) {
	f.record(OpSummoner)
	if f.summonerErr != nil {
		return nil, f.summonerErr
	}
	profile := *f.profile
	return &profile, nil
}

func (f *fakeRiotAPI) GetRankedStats(_ context.Context, summonerID string) ([]RankedStanding, error) {
	f.record(OpRanked)
	return f.ranked, f.rankedErr
}

func (f *fakeRiotAPI) GetTopMasteries(_ context.Context, summonerID string, count int) ([]ChampionMasteryEntry, error) {
	f.record(OpMasteryTop)
	if f.topErr != nil {
		return nil, f.topErr
	}
	if len(f.top) > count {
		return f.top[:count], nil
	}
	return f.top, nil
}

func (f *fakeRiotAPI) GetAllMasteries(_ context.Context, summonerID string) ([]ChampionMasteryEntry, error) {
	f.record(OpMasteryAll)
	return f.all, f.allErr
}

func (f *fakeRiotAPI) GetMatchIDs(_ context.Context, puuid string, start, count int) ([]string, error) {
	f.record(OpMatchIDs)
	if f.matchIDsErr != nil {
		return nil, f.matchIDsErr
	}
	if len(f.matchIDs) > count {
		return f.matchIDs[:count], nil
	}
	return f.matchIDs, nil
}

func (f *fakeRiotAPI) GetMatch(_ context.Context, matchID string) (*MatchDetail, error) {
	f.record(OpMatch)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.matchErrs[matchID]; ok {
		return nil, err
	}
	match, ok := f.matches[matchID]
	if !ok {
		return nil, &APIError{Kind: KindNotFound, Op: OpMatch, StatusCode: 404}
	}
	return match, nil
}

// addMatch registers a match in which the test player played championID in
// position.
func (f *fakeRiotAPI) addMatch(id string, championID int, position string, win bool) {
	f.matchIDs = append(f.matchIDs, id)
	f.matches[id] = &MatchDetail{
		Metadata: MatchMetadata{MatchID: id, Participants: []string{"someone-else", testPUUID}},
		Info: MatchInfo{
			GameCreation: 1700000000000,
			GameDuration: 1800,
			QueueID:      420,
			Participants: []MatchParticipant{
				{PUUID: "someone-else", ChampionID: 1, TeamPosition: "TOP"},
				{
					PUUID:        testPUUID,
					ChampionID:   championID,
					ChampionName: ChampionName(championID),
					TeamPosition: position,
					Win:          win,
					Kills:        5,
					Deaths:       2,
					Assists:      7,

					TotalMinionsKilled:   150,
					NeutralMinionsKilled: 30,
				},
			},
		},
	}
}

func masteryEntries(points ...int) []ChampionMasteryEntry {
	entries := make([]ChampionMasteryEntry, len(points))
	for i, p := range points {
		entries[i] = ChampionMasteryEntry{
			ChampionID:     []int{103, 4, 7, 61, 134, 157, 238, 245}[i%8],
			ChampionLevel:  7,
			ChampionPoints: p,
		}
	}
	return entries
}

func statusErr(op string, status int) *APIError {
	return &APIError{Kind: classifyStatus(status), Op: op, StatusCode: status, Body: fmt.Sprintf(`{"status":{"status_code":%d}}`, status)}
}

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func newTestAggregator(api RiotAPI) *StatsAggregator {
	agg := NewStatsAggregator(api, NopLogger(), nil, 4)
	agg.now = fixedNow
	return agg
}

type fakeSnapshotStore struct {
	mu      sync.Mutex
	saved   map[string]*PlayerStatsResult
	ttls    map[string]time.Duration
	saveErr error
	loadErr error
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{
		saved: make(map[string]*PlayerStatsResult),
		ttls:  make(map[string]time.Duration),
	}
}

func snapshotID(gameName, tagLine string) string {
	return strings.ToLower(gameName + "#" + tagLine)
}

func (f *fakeSnapshotStore) SaveSnapshot(_ context.Context, result *PlayerStatsResult, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	id := snapshotID(result.Account.GameName, result.Account.TagLine)
	f.saved[id] = result
	f.ttls[id] = ttl
	return nil
}

func (f *fakeSnapshotStore) LoadSnapshot(_ context.Context, gameName, tagLine string) (*PlayerStatsResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	result, ok := f.saved[snapshotID(gameName, tagLine)]
	if !ok {
		return nil, redis.Nil
	}
	return result, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	tasks  []ResolveTask
	events []PlayerResolvedEvent
	err    error
}

func (f *fakePublisher) PublishResolveTask(task ResolveTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, task)
	return nil
}

func (f *fakePublisher) PublishPlayerResolved(event PlayerResolvedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeDatabase struct {
	mu    sync.Mutex
	links map[string]LinkedAccount
	err   error
}

func newFakeDatabase() *fakeDatabase {
	return &fakeDatabase{links: make(map[string]LinkedAccount)}
}

func (f *fakeDatabase) LinkAccount(_ context.Context, link LinkedAccount) (*LinkedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	link.LinkedAt = fixedNow()
	link.UpdatedAt = fixedNow()
	f.links[link.UserID] = link
	return &link, nil
}

func (f *fakeDatabase) GetLinkedAccount(_ context.Context, userID string) (*LinkedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	link, ok := f.links[userID]
	if !ok {
		return nil, ErrLinkNotFound
	}
	return &link, nil
}

func (f *fakeDatabase) Close() {}

type fakeLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allowed, f.err
}
