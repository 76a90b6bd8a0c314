package internal

import (
	"fmt"
	"time"
)

type RiotAccount struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

func (a RiotAccount) RiotID() string {
	if a.TagLine == "" {
		return a.GameName
	}
	return fmt.Sprintf("%s#%s", a.GameName, a.TagLine)
}

type SummonerProfile struct {
	ID            string `json:"id"`
	AccountID     string `json:"accountId"`
	PUUID         string `json:"puuid"`
	Name          string `json:"name,omitempty"`
	ProfileIconID int    `json:"profileIconId"`
	RevisionDate  int64  `json:"revisionDate"`
	SummonerLevel int    `json:"summonerLevel"`
}

const (
	QueueRankedSolo = "RANKED_SOLO_5x5"
	QueueRankedFlex = "RANKED_FLEX_SR"
)

type RankedStanding struct {
	LeagueID     string      `json:"leagueId"`
	QueueType    string      `json:"queueType"`
	Tier         string      `json:"tier"`
	Rank         string      `json:"rank"`
	SummonerID   string      `json:"summonerId"`
	LeaguePoints int         `json:"leaguePoints"`
	Wins         int         `json:"wins"`
	Losses       int         `json:"losses"`
	HotStreak    bool        `json:"hotStreak"`
	Veteran      bool        `json:"veteran"`
	FreshBlood   bool        `json:"freshBlood"`
	Inactive     bool        `json:"inactive"`
	MiniSeries   *MiniSeries `json:"miniSeries,omitempty"`
}

func (r RankedStanding) WinRate() float64 {
	total := r.Wins + r.Losses
	if total == 0 {
		return 0
	}
	return float64(r.Wins) / float64(total) * 100
}

type MiniSeries struct {
	Target   int    `json:"target"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Progress string `json:"progress"`
}

type MasterySource string

const (
	MasterySourceTop          MasterySource = "top"
	MasterySourceFull         MasterySource = "full"
	MasterySourceMatchHistory MasterySource = "match_history"
	MasterySourceNone         MasterySource = "none"
)

// ChampionMasteryEntry is either an upstream mastery record or, when
// Estimated is set, a display approximation synthesized from recent matches.
// Estimated level and points carry no gameplay meaning.
type ChampionMasteryEntry struct {
	ChampionID                   int                   `json:"championId"`
	ChampionName                 string                `json:"championName,omitempty"`
	ChampionLevel                int                   `json:"championLevel"`
	ChampionPoints               int                   `json:"championPoints"`
	LastPlayTime                 int64                 `json:"lastPlayTime,omitempty"`
	ChampionPointsSinceLastLevel int                   `json:"championPointsSinceLastLevel,omitempty"`
	ChampionPointsUntilNextLevel int                   `json:"championPointsUntilNextLevel,omitempty"`
	ChestGranted                 bool                  `json:"chestGranted,omitempty"`
	TokensEarned                 int                   `json:"tokensEarned,omitempty"`
	RankPosition                 int                   `json:"rankPosition"`
	Source                       MasterySource         `json:"source"`
	Estimated                    bool                  `json:"estimated"`
	Derived                      *DerivedChampionStats `json:"derived,omitempty"`
}

type DerivedChampionStats struct {
	Games     int      `json:"games"`
	Wins      int      `json:"wins"`
	Kills     int      `json:"kills"`
	Deaths    int      `json:"deaths"`
	Assists   int      `json:"assists"`
	Positions []string `json:"positions"`
}

func (d DerivedChampionStats) WinRate() float64 {
	if d.Games == 0 {
		return 0
	}
	return float64(d.Wins) / float64(d.Games)
}

func (d DerivedChampionStats) KDA() float64 {
	if d.Deaths == 0 {
		return float64(d.Kills + d.Assists)
	}
	return float64(d.Kills+d.Assists) / float64(d.Deaths)
}

// MatchSummary is one player's participation in one finished match.
type MatchSummary struct {
	MatchID      string `json:"matchId"`
	ChampionID   int    `json:"championId"`
	ChampionName string `json:"championName,omitempty"`
	TeamPosition string `json:"teamPosition"`
	Win          bool   `json:"win"`
	Kills        int    `json:"kills"`
	Deaths       int    `json:"deaths"`
	Assists      int    `json:"assists"`
	CreepScore   int    `json:"creepScore"`
	GameCreation int64  `json:"gameCreation,omitempty"`
	GameDuration int64  `json:"gameDuration,omitempty"`
	QueueID      int    `json:"queueId,omitempty"`
}

// Diagnostic records a recoverable stage failure that did not abort the
// resolution.
type Diagnostic struct {
	Stage   string    `json:"stage"`
	Kind    ErrorKind `json:"kind"`
	Status  int       `json:"status,omitempty"`
	Message string    `json:"message"`
}

// PlayerStatsResult is built once per resolution and never mutated after it
// is returned.
type PlayerStatsResult struct {
	Account       RiotAccount            `json:"account"`
	Profile       SummonerProfile        `json:"profile"`
	RankedStats   []RankedStanding       `json:"rankedStats"`
	TopChampions  []ChampionMasteryEntry `json:"topChampions"`
	MasterySource MasterySource          `json:"masterySource"`
	Matches       []MatchSummary         `json:"matches,omitempty"`
	MatchRole     Lane                   `json:"matchRole,omitempty"`
	AvgCSPerMin   float64                `json:"avgCsPerMinute,omitempty"`
	Diagnostics   []Diagnostic           `json:"diagnostics,omitempty"`
	ResolvedAt    time.Time              `json:"resolvedAt"`
}

// MainRole applies the selection policy: match-based inference when match
// data was fetched, mastery-based otherwise.
func (r *PlayerStatsResult) MainRole() Lane {
	if len(r.Matches) > 0 {
		role := r.MatchRole
		if role == "" {
			role = InferRoleFromMatches(r.Matches)
		}
		// Matches without any lane label say nothing about the role.
		if role != LaneUnknown {
			return role
		}
	}
	return InferRoleFromMastery(r.TopChampions)
}

func (r *PlayerStatsResult) RankedQueue(queueType string) (RankedStanding, bool) {
	for _, standing := range r.RankedStats {
		if standing.QueueType == queueType {
			return standing, true
		}
	}
	return RankedStanding{}, false
}

// Upstream match-v5 payload, reduced to the fields the derivation reads.
type MatchDetail struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

type MatchMetadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"`
}

type MatchInfo struct {
	GameCreation int64              `json:"gameCreation"`
	GameDuration int64              `json:"gameDuration"`
	GameMode     string             `json:"gameMode"`
	QueueID      int                `json:"queueId"`
	Participants []MatchParticipant `json:"participants"`
}

type MatchParticipant struct {
	PUUID                string `json:"puuid"`
	ChampionID           int    `json:"championId"`
	ChampionName         string `json:"championName"`
	TeamPosition         string `json:"teamPosition"`
	IndividualPosition   string `json:"individualPosition"`
	Win                  bool   `json:"win"`
	Kills                int    `json:"kills"`
	Deaths               int    `json:"deaths"`
	Assists              int    `json:"assists"`
	TotalMinionsKilled   int    `json:"totalMinionsKilled"`
	NeutralMinionsKilled int    `json:"neutralMinionsKilled"`
}

func (m *MatchDetail) participant(puuid string) (*MatchParticipant, bool) {
	for i := range m.Info.Participants {
		if m.Info.Participants[i].PUUID == puuid {
			return &m.Info.Participants[i], true
		}
	}
	return nil, false
}

type ResolveTask struct {
	GameName  string `json:"gameName"`
	TagLine   string `json:"tagLine"`
	RequestID string `json:"requestId,omitempty"`
}

type PlayerResolvedEvent struct {
	GameName      string        `json:"gameName"`
	TagLine       string        `json:"tagLine"`
	PUUID         string        `json:"puuid"`
	SummonerLevel int           `json:"summonerLevel"`
	MainRole      Lane          `json:"mainRole"`
	MasterySource MasterySource `json:"masterySource"`
	ResolvedAt    time.Time     `json:"resolvedAt"`
}

type ResolveReply struct {
	OK        bool                 `json:"ok"`
	Kind      ErrorKind            `json:"kind,omitempty"`
	Error     string               `json:"error,omitempty"`
	RequestID string               `json:"requestId,omitempty"`
	Event     *PlayerResolvedEvent `json:"event,omitempty"`
}

type LinkedAccount struct {
	UserID          string    `json:"userId"`
	PUUID           string    `json:"puuid"`
	GameName        string    `json:"gameName"`
	TagLine         string    `json:"tagLine"`
	SummonerID      string    `json:"summonerId"`
	Region          string    `json:"region"`
	SummonerLevel   int       `json:"summonerLevel"`
	DiscordUsername string    `json:"discordUsername,omitempty"`
	LinkedAt        time.Time `json:"linkedAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
