package internal

import (
	"context"
	"time"
)

// RiotAPI is the upstream surface the resolution pipeline consumes.
type RiotAPI interface {
	GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (*RiotAccount, error)
	GetSummonerByPUUID(ctx context.Context, puuid string) (*SummonerProfile, error)
	GetRankedStats(ctx context.Context, summonerID string) ([]RankedStanding, error)
	GetTopMasteries(ctx context.Context, summonerID string, count int) ([]ChampionMasteryEntry, error)
	GetAllMasteries(ctx context.Context, summonerID string) ([]ChampionMasteryEntry, error)
	GetMatchIDs(ctx context.Context, puuid string, start, count int) ([]string, error)
	GetMatch(ctx context.Context, matchID string) (*MatchDetail, error)
}

type PlayerStatsResolver interface {
	ResolvePlayerStats(ctx context.Context, gameName, tagLine string) (*PlayerStatsResult, error)
	VerifyAccount(ctx context.Context, gameName, tagLine string) (bool, error)
}

type RateLimiterInterface interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, result *PlayerStatsResult, ttl time.Duration) error
	LoadSnapshot(ctx context.Context, gameName, tagLine string) (*PlayerStatsResult, error)
}

type EventPublisher interface {
	PublishPlayerResolved(event PlayerResolvedEvent) error
	PublishResolveTask(task ResolveTask) error
}

type DatabaseInterface interface {
	LinkAccount(ctx context.Context, link LinkedAccount) (*LinkedAccount, error)
	GetLinkedAccount(ctx context.Context, userID string) (*LinkedAccount, error)
	Close()
}
