package internal

import (
	"context"
	"errors"
	"sort"
)

const (
	topMasteryCount = 5
	matchIDCount    = 20
	maxMatchDetails = 10
)

var errNoMasteryData = errors.New("no mastery data")

type masteryOutcome struct {
	entries []ChampionMasteryEntry
	matches []MatchSummary
	source  MasterySource
}

type masteryStrategy struct {
	stage string
	run   func(ctx context.Context, account RiotAccount, profile SummonerProfile) (masteryOutcome, error)
}

// MasteryResolution is what the chain settled on plus a diagnostic for every
// tier that was tried and failed.
type MasteryResolution struct {
	Entries     []ChampionMasteryEntry
	Matches     []MatchSummary
	Source      MasterySource
	Diagnostics []Diagnostic
}

type MasteryResolver struct {
	api         RiotAPI
	logger      *Logger
	metrics     *MetricsCollector
	concurrency int
}

func NewMasteryResolver(api RiotAPI, logger *Logger, metrics *MetricsCollector, concurrency int) *MasteryResolver {
	if logger == nil {
		logger = NopLogger()
	}
	if concurrency < 1 || concurrency > maxMatchDetails {
		concurrency = maxMatchDetails
	}
	return &MasteryResolver{
		api:         api,
		logger:      logger,
		metrics:     metrics,
		concurrency: concurrency,
	}
}

func (m *MasteryResolver) strategies() []masteryStrategy {
	return []masteryStrategy{
		{stage: OpMasteryTop, run: m.topMasteries},
		{stage: OpMasteryAll, run: m.allMasteries},
		{stage: "mastery_match_history", run: m.deriveFromMatchHistory},
	}
}

// Resolve tries each tier in order and keeps the first that yields data.
// It never fails: exhausting the chain returns an empty resolution.
func (m *MasteryResolver) Resolve(ctx context.Context, account RiotAccount, profile SummonerProfile) MasteryResolution {
	resolution := firstSuccessful(ctx, m.strategies(), account, profile, func(stage string, err error) {
		m.logger.Warn("mastery_tier_failed").
			Component("mastery").
			Operation(stage).
			Player(account.RiotID(), account.PUUID).
			Err(err).
			Log()
	})
	m.metrics.RecordMasterySource(resolution.Source)
	return resolution
}

func firstSuccessful(ctx context.Context, strategies []masteryStrategy, account RiotAccount, profile SummonerProfile, onFailure func(stage string, err error)) MasteryResolution {
	resolution := MasteryResolution{Source: MasterySourceNone}

	for _, strategy := range strategies {
		outcome, err := strategy.run(ctx, account, profile)
		if err == nil && len(outcome.entries) == 0 {
			err = errNoMasteryData
		}
		if err == nil {
			resolution.Entries = outcome.entries
			resolution.Matches = outcome.matches
			resolution.Source = outcome.source
			return resolution
		}

		onFailure(strategy.stage, err)
		resolution.Diagnostics = append(resolution.Diagnostics, newDiagnostic(strategy.stage, err))

		// A 429 ends the chain with source none and no entries: every tier
		// draws on the same key budget. The rate_limited diagnostic is what
		// tells the caller the empty list is worth retrying later.
		if KindOf(err) == KindRateLimited || ctx.Err() != nil {
			break
		}
	}
	return resolution
}

func (m *MasteryResolver) topMasteries(ctx context.Context, _ RiotAccount, profile SummonerProfile) (masteryOutcome, error) {
	entries, err := m.api.GetTopMasteries(ctx, profile.ID, topMasteryCount)
	if err != nil {
		return masteryOutcome{}, err
	}
	return masteryOutcome{
		entries: annotateMasteries(entries, MasterySourceTop),
		source:  MasterySourceTop,
	}, nil
}

func (m *MasteryResolver) allMasteries(ctx context.Context, _ RiotAccount, profile SummonerProfile) (masteryOutcome, error) {
	entries, err := m.api.GetAllMasteries(ctx, profile.ID)
	if err != nil {
		return masteryOutcome{}, err
	}
	return masteryOutcome{
		entries: annotateMasteries(topByPoints(entries, topMasteryCount), MasterySourceFull),
		source:  MasterySourceFull,
	}, nil
}

func topByPoints(entries []ChampionMasteryEntry, n int) []ChampionMasteryEntry {
	sorted := make([]ChampionMasteryEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ChampionPoints > sorted[j].ChampionPoints
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func annotateMasteries(entries []ChampionMasteryEntry, source MasterySource) []ChampionMasteryEntry {
	out := make([]ChampionMasteryEntry, len(entries))
	for i, entry := range entries {
		entry.RankPosition = i + 1
		entry.Source = source
		entry.Estimated = false
		if entry.ChampionName == "" {
			entry.ChampionName = ChampionName(entry.ChampionID)
		}
		out[i] = entry
	}
	return out
}

func newDiagnostic(stage string, err error) Diagnostic {
	diag := Diagnostic{Stage: stage, Kind: KindOf(err), Message: err.Error()}
	if errors.Is(err, errNoMasteryData) || errors.Is(err, errNoMatchData) {
		diag.Kind = KindNotFound
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		diag.Status = apiErr.StatusCode
	}
	return diag
}
