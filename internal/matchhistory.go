package internal

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

var errNoMatchData = errors.New("no usable match data")

func (m *MasteryResolver) deriveFromMatchHistory(ctx context.Context, account RiotAccount, _ SummonerProfile) (masteryOutcome, error) {
	ids, err := m.api.GetMatchIDs(ctx, account.PUUID, 0, matchIDCount)
	if err != nil {
		return masteryOutcome{}, err
	}
	if len(ids) > maxMatchDetails {
		ids = ids[:maxMatchDetails]
	}

	matches := m.fetchMatchSummaries(ctx, account.PUUID, ids)
	if len(matches) == 0 {
		return masteryOutcome{}, errNoMatchData
	}

	m.logger.Debug("mastery_derived_from_matches").
		Component("mastery").
		Operation("match_history").
		Player(account.RiotID(), account.PUUID).
		Meta("requested", len(ids)).
		Meta("fetched", len(matches)).
		Log()

	return masteryOutcome{
		entries: DeriveMasteryFromMatches(matches),
		matches: matches,
		source:  MasterySourceMatchHistory,
	}, nil
}

// fetchMatchSummaries fetches match details concurrently. A failed or
// unusable match is logged and dropped; it never fails the batch. The
// returned summaries keep the order of ids.
func (m *MasteryResolver) fetchMatchSummaries(ctx context.Context, puuid string, ids []string) []MatchSummary {
	slots := make([]*MatchSummary, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			match, err := m.api.GetMatch(gctx, id)
			if err != nil {
				m.metrics.RecordMatchFetchFailure()
				m.logger.Warn("match_detail_skipped").
					Component("mastery").
					Operation("fetch_match").
					Meta("match_id", id).
					Err(err).
					Log()
				return nil
			}

			summary, ok := summarizeMatch(match, id, puuid)
			if !ok {
				m.logger.Warn("match_participant_missing").
					Component("mastery").
					Operation("fetch_match").
					Meta("match_id", id).
					Log()
				return nil
			}
			slots[i] = &summary
			return nil
		})
	}
	_ = g.Wait()

	matches := make([]MatchSummary, 0, len(ids))
	for _, slot := range slots {
		if slot != nil {
			matches = append(matches, *slot)
		}
	}
	return matches
}

func summarizeMatch(match *MatchDetail, matchID, puuid string) (MatchSummary, bool) {
	if match == nil {
		return MatchSummary{}, false
	}
	p, ok := match.participant(puuid)
	if !ok {
		return MatchSummary{}, false
	}
	if match.Metadata.MatchID != "" {
		matchID = match.Metadata.MatchID
	}

	return MatchSummary{
		MatchID:      matchID,
		ChampionID:   p.ChampionID,
		ChampionName: p.ChampionName,
		TeamPosition: participantPosition(p),
		Win:          p.Win,
		Kills:        p.Kills,
		Deaths:       p.Deaths,
		Assists:      p.Assists,
		CreepScore:   p.TotalMinionsKilled + p.NeutralMinionsKilled,
		GameCreation: match.Info.GameCreation,
		GameDuration: match.Info.GameDuration,
		QueueID:      match.Info.QueueID,
	}, true
}

// participantPosition reads teamPosition and falls back to
// individualPosition when the former is blank.
func participantPosition(p *MatchParticipant) string {
	if pos := strings.TrimSpace(p.TeamPosition); pos != "" {
		return pos
	}
	pos := strings.TrimSpace(p.IndividualPosition)
	if strings.EqualFold(pos, "Invalid") {
		return ""
	}
	return pos
}

type championTally struct {
	championID   int
	championName string
	games        int
	wins         int
	kills        int
	deaths       int
	assists      int
	positions    []string
}

func (t *championTally) score() float64 {
	return float64(t.games)*100 + float64(t.wins)/float64(t.games)*50
}

// AverageCSPerMinute is total creep score over total game minutes, rounded
// to two decimals. Durations are in seconds.
func AverageCSPerMinute(matches []MatchSummary) float64 {
	var cs int
	var seconds int64
	for _, match := range matches {
		cs += match.CreepScore
		seconds += match.GameDuration
	}
	if seconds <= 0 {
		return 0
	}
	return math.Round(float64(cs)/(float64(seconds)/60)*100) / 100
}

// DeriveMasteryFromMatches builds estimated mastery entries from match
// summaries. Level and points are display approximations only:
//
//	level  = min(7, games/2 + 1)
//	points = games*1500 + wins*500
//
// Champions are ranked by games*100 + winRate*50, ties broken by champion id.
// The result depends only on the input.
func DeriveMasteryFromMatches(matches []MatchSummary) []ChampionMasteryEntry {
	tallies := make(map[int]*championTally)
	order := make([]*championTally, 0)

	for _, match := range matches {
		t, ok := tallies[match.ChampionID]
		if !ok {
			t = &championTally{championID: match.ChampionID, championName: match.ChampionName}
			tallies[match.ChampionID] = t
			order = append(order, t)
		}
		t.games++
		if match.Win {
			t.wins++
		}
		t.kills += match.Kills
		t.deaths += match.Deaths
		t.assists += match.Assists
		if match.TeamPosition != "" && !containsString(t.positions, match.TeamPosition) {
			t.positions = append(t.positions, match.TeamPosition)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		si, sj := order[i].score(), order[j].score()
		if si != sj {
			return si > sj
		}
		return order[i].championID < order[j].championID
	})
	if len(order) > topMasteryCount {
		order = order[:topMasteryCount]
	}

	entries := make([]ChampionMasteryEntry, len(order))
	for i, t := range order {
		name := t.championName
		if name == "" {
			name = ChampionName(t.championID)
		}
		entries[i] = ChampionMasteryEntry{
			ChampionID:     t.championID,
			ChampionName:   name,
			ChampionLevel:  estimatedMasteryLevel(t.games),
			ChampionPoints: estimatedMasteryPoints(t.games, t.wins),
			RankPosition:   i + 1,
			Source:         MasterySourceMatchHistory,
			Estimated:      true,
			Derived: &DerivedChampionStats{
				Games:     t.games,
				Wins:      t.wins,
				Kills:     t.kills,
				Deaths:    t.deaths,
				Assists:   t.assists,
				Positions: t.positions,
			},
		}
	}
	return entries
}

func estimatedMasteryLevel(games int) int {
	return min(7, games/2+1)
}

func estimatedMasteryPoints(games, wins int) int {
	return games*1500 + wins*500
}

func containsString(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}
