package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const riotTokenHeader = "X-Riot-Token"

type RiotAPIClient struct {
	apiKey      string
	platformURL string
	regionalURL string
	region      string
	client      *http.Client
	logger      *Logger
	metrics     *MetricsCollector
}

// NewRiotAPIClient validates the credential once, here, so no request is
// ever sent with a missing or malformed key.
func NewRiotAPIClient(cfg *Config, logger *Logger, metrics *MetricsCollector) (*RiotAPIClient, error) {
	if err := validateAPIKey(cfg.RiotAPIKey); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NopLogger()
	}

	platformURL := cfg.RiotPlatformURL
	if platformURL == "" {
		platformURL = getPlatformAPIURL(cfg.RiotRegion)
	}
	regionalURL := cfg.RiotRegionalURL
	if regionalURL == "" {
		regionalURL = getAccountAPIURL(cfg.RiotRegion)
	}
	region := strings.ToUpper(cfg.RiotRegion)
	if region == "" {
		region = "NA1"
	}

	return &RiotAPIClient{
		apiKey:      cfg.RiotAPIKey,
		platformURL: strings.TrimRight(platformURL, "/"),
		regionalURL: strings.TrimRight(regionalURL, "/"),
		region:      region,
		logger:      logger,
		metrics:     metrics,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

func getPlatformAPIURL(region string) string {
	if region == "" {
		region = "NA1"
	}
	return fmt.Sprintf("https://%s.api.riotgames.com", strings.ToLower(region))
}

func getAccountAPIURL(region string) string {
	switch strings.ToUpper(region) {
	case "BR1", "LA1", "LA2", "NA1":
		return "https://americas.api.riotgames.com"
	case "EUW1", "EUN1", "TR1", "RU", "ME1":
		return "https://europe.api.riotgames.com"
	case "JP1", "KR":
		return "https://asia.api.riotgames.com"
	case "OC1", "PH2", "SG2", "TH2", "TW2", "VN2":
		return "https://sea.api.riotgames.com"
	default:
		return "https://americas.api.riotgames.com"
	}
}

// Region is the upper-cased platform id the client was built for.
func (c *RiotAPIClient) Region() string {
	return c.region
}

func (c *RiotAPIClient) doRequest(ctx context.Context, op, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, newTransientError(op, err)
	}
	req.Header.Set(riotTokenHeader, c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		apiErr := newTransientError(op, err)
		c.metrics.RecordUpstream(op, time.Since(start), apiErr)
		return nil, apiErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr := newTransientError(op, err)
		c.metrics.RecordUpstream(op, time.Since(start), apiErr)
		return nil, apiErr
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := newStatusError(op, resp, body)
		c.metrics.RecordUpstream(op, time.Since(start), apiErr)
		c.logger.Debug("riot_request_failed").
			Component("riot_api").
			Operation(op).
			HTTP(http.MethodGet, req.URL.Path, resp.StatusCode).
			Duration(time.Since(start)).
			Err(apiErr).
			Log()
		return nil, apiErr
	}

	c.metrics.RecordUpstream(op, time.Since(start), nil)
	return body, nil
}

func getJSON[T any](ctx context.Context, c *RiotAPIClient, op, endpoint string) (T, error) {
	var result T
	data, err := c.doRequest(ctx, op, endpoint)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, newTransientError(op, fmt.Errorf("decode response: %w", err))
	}
	return result, nil
}

func (c *RiotAPIClient) GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (*RiotAccount, error) {
	endpoint := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.regionalURL, url.PathEscape(gameName), url.PathEscape(tagLine))
	account, err := getJSON[RiotAccount](ctx, c, OpAccount, endpoint)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *RiotAPIClient) GetSummonerByPUUID(ctx context.Context, puuid string) (*SummonerProfile, error) {
	endpoint := fmt.Sprintf("%s/lol/summoner/v4/summoners/by-puuid/%s", c.platformURL, url.PathEscape(puuid))
	profile, err := getJSON[SummonerProfile](ctx, c, OpSummoner, endpoint)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *RiotAPIClient) GetRankedStats(ctx context.Context, summonerID string) ([]RankedStanding, error) {
	endpoint := fmt.Sprintf("%s/lol/league/v4/entries/by-summoner/%s", c.platformURL, url.PathEscape(summonerID))
	return getJSON[[]RankedStanding](ctx, c, OpRanked, endpoint)
}

func (c *RiotAPIClient) GetTopMasteries(ctx context.Context, summonerID string, count int) ([]ChampionMasteryEntry, error) {
	endpoint := fmt.Sprintf("%s/lol/champion-mastery/v4/champion-masteries/by-summoner/%s/top?count=%d",
		c.platformURL, url.PathEscape(summonerID), count)
	return getJSON[[]ChampionMasteryEntry](ctx, c, OpMasteryTop, endpoint)
}

func (c *RiotAPIClient) GetAllMasteries(ctx context.Context, summonerID string) ([]ChampionMasteryEntry, error) {
	endpoint := fmt.Sprintf("%s/lol/champion-mastery/v4/champion-masteries/by-summoner/%s",
		c.platformURL, url.PathEscape(summonerID))
	return getJSON[[]ChampionMasteryEntry](ctx, c, OpMasteryAll, endpoint)
}

func (c *RiotAPIClient) GetMatchIDs(ctx context.Context, puuid string, start, count int) ([]string, error) {
	endpoint := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?start=%d&count=%d",
		c.regionalURL, url.PathEscape(puuid), start, count)
	return getJSON[[]string](ctx, c, OpMatchIDs, endpoint)
}

func (c *RiotAPIClient) GetMatch(ctx context.Context, matchID string) (*MatchDetail, error) {
	endpoint := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.regionalURL, url.PathEscape(matchID))
	match, err := getJSON[MatchDetail](ctx, c, OpMatch, endpoint)
	if err != nil {
		return nil, err
	}
	return &match, nil
}
