package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/robertasolimandonofreo/ezlfp-core/internal"

// StatsAggregator is the public entry point of the resolution pipeline:
// account, then summoner, then ranked standings and mastery.
type StatsAggregator struct {
	api     RiotAPI
	mastery *MasteryResolver
	logger  *Logger
	metrics *MetricsCollector
	tracer  trace.Tracer
	now     func() time.Time
}

func NewStatsAggregator(api RiotAPI, logger *Logger, metrics *MetricsCollector, matchConcurrency int) *StatsAggregator {
	if logger == nil {
		logger = NopLogger()
	}
	return &StatsAggregator{
		api:     api,
		mastery: NewMasteryResolver(api, logger, metrics, matchConcurrency),
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}
}

func validateRiotID(gameName, tagLine string) error {
	if strings.TrimSpace(gameName) == "" {
		return &APIError{Kind: KindNotFound, Op: OpAccount, Err: errors.New("gameName cannot be empty")}
	}
	if strings.TrimSpace(tagLine) == "" {
		return &APIError{Kind: KindNotFound, Op: OpAccount, Err: errors.New("tagLine cannot be empty")}
	}
	return nil
}

// ResolvePlayerStats resolves a Riot ID into a PlayerStatsResult.
//
// Account and summoner failures abort with the typed error intact. Ranked
// and mastery failures degrade to empty data and are recorded in
// Diagnostics.
func (s *StatsAggregator) ResolvePlayerStats(ctx context.Context, gameName, tagLine string) (*PlayerStatsResult, error) {
	ctx, span := s.tracer.Start(ctx, "ResolvePlayerStats", trace.WithAttributes(
		attribute.String("riot.game_name", gameName),
		attribute.String("riot.tag_line", tagLine),
	))
	defer span.End()

	start := time.Now()
	result, err := s.resolve(ctx, gameName, tagLine)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
		s.metrics.RecordResolution(time.Since(start), err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("riot.mastery_source", string(result.MasterySource)),
		attribute.Int("riot.ranked_queues", len(result.RankedStats)),
	)
	s.metrics.RecordResolution(time.Since(start), nil)
	s.logger.Info("player_stats_resolved").
		Component("aggregator").
		Operation("resolve_player_stats").
		Player(result.Account.RiotID(), result.Account.PUUID).
		Duration(time.Since(start)).
		Meta("mastery_source", result.MasterySource).
		Meta("ranked_queues", len(result.RankedStats)).
		Meta("diagnostics", len(result.Diagnostics)).
		Log()
	return result, nil
}

func (s *StatsAggregator) resolve(ctx context.Context, gameName, tagLine string) (*PlayerStatsResult, error) {
	if err := validateRiotID(gameName, tagLine); err != nil {
		return nil, err
	}

	account, err := s.resolveAccount(ctx, gameName, tagLine)
	if err != nil {
		return nil, err
	}

	profile, err := s.resolveSummoner(ctx, account)
	if err != nil {
		return nil, err
	}

	result := &PlayerStatsResult{
		Account:     *account,
		Profile:     *profile,
		RankedStats: []RankedStanding{},
	}

	// Ranked and mastery only depend on the profile and never fail the
	// resolution, so they run side by side.
	var (
		ranked     []RankedStanding
		rankedDiag *Diagnostic
		mastery    MasteryResolution
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ranked, rankedDiag = s.resolveRanked(gctx, account, profile)
		return nil
	})
	g.Go(func() error {
		mastery = s.resolveMastery(gctx, account, profile)
		return nil
	})
	_ = g.Wait()

	if rankedDiag != nil {
		result.Diagnostics = append(result.Diagnostics, *rankedDiag)
	} else {
		result.RankedStats = ranked
	}

	result.TopChampions = mastery.Entries
	if result.TopChampions == nil {
		result.TopChampions = []ChampionMasteryEntry{}
	}
	result.MasterySource = mastery.Source
	result.Diagnostics = append(result.Diagnostics, mastery.Diagnostics...)

	if len(mastery.Matches) > 0 {
		result.Matches = mastery.Matches
		result.MatchRole = InferRoleFromMatches(mastery.Matches)
		result.AvgCSPerMin = AverageCSPerMinute(mastery.Matches)
	}

	result.ResolvedAt = s.now().UTC()
	return result, nil
}

func (s *StatsAggregator) resolveAccount(ctx context.Context, gameName, tagLine string) (*RiotAccount, error) {
	ctx, span := s.tracer.Start(ctx, "resolveAccount")
	defer span.End()

	account, err := s.api.GetAccountByRiotID(ctx, gameName, tagLine)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("resolve account %s#%s: %w", gameName, tagLine, err)
	}
	if account.GameName == "" {
		account.GameName = gameName
	}
	if account.TagLine == "" {
		account.TagLine = tagLine
	}
	return account, nil
}

func (s *StatsAggregator) resolveSummoner(ctx context.Context, account *RiotAccount) (*SummonerProfile, error) {
	ctx, span := s.tracer.Start(ctx, "resolveSummoner")
	defer span.End()

	profile, err := s.api.GetSummonerByPUUID(ctx, account.PUUID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("resolve summoner for %s: %w", account.RiotID(), err)
	}
	if profile.PUUID == "" {
		profile.PUUID = account.PUUID
	}
	return profile, nil
}

func (s *StatsAggregator) resolveRanked(ctx context.Context, account *RiotAccount, profile *SummonerProfile) ([]RankedStanding, *Diagnostic) {
	ctx, span := s.tracer.Start(ctx, "resolveRanked")
	defer span.End()

	ranked, err := s.api.GetRankedStats(ctx, profile.ID)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("ranked_stats_unavailable").
			Component("aggregator").
			Operation(OpRanked).
			Player(account.RiotID(), account.PUUID).
			Err(err).
			Log()
		diag := newDiagnostic(OpRanked, err)
		return nil, &diag
	}
	if ranked == nil {
		ranked = []RankedStanding{}
	}
	return ranked, nil
}

func (s *StatsAggregator) resolveMastery(ctx context.Context, account *RiotAccount, profile *SummonerProfile) MasteryResolution {
	ctx, span := s.tracer.Start(ctx, "resolveMastery")
	defer span.End()

	resolution := s.mastery.Resolve(ctx, *account, *profile)
	span.SetAttributes(attribute.String("riot.mastery_source", string(resolution.Source)))
	return resolution
}

// VerifyAccount reports whether the Riot ID exists. Only NotFound maps to
// false; any other failure is returned so callers can tell "no such
// player" from "could not check".
func (s *StatsAggregator) VerifyAccount(ctx context.Context, gameName, tagLine string) (bool, error) {
	if err := validateRiotID(gameName, tagLine); err != nil {
		return false, nil
	}
	_, err := s.api.GetAccountByRiotID(ctx, gameName, tagLine)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
