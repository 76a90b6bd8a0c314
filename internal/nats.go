package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectPlayerResolve  = "ezlfp.player.resolve"
	SubjectPlayerResolved = "ezlfp.player.resolved"

	resolveQueueGroup  = "resolve-workers"
	resolveTaskTimeout = 30 * time.Second
)

type NATSClient struct {
	Conn   *nats.Conn
	logger *Logger
}

func NewNATSClient(cfg *Config, logger *Logger) (*NATSClient, error) {
	if logger == nil {
		logger = NopLogger()
	}
	conn, err := nats.Connect(cfg.NATSUrl,
		nats.Name(cfg.NATSClientID),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected").
				Component("nats").
				Operation("connection").
				Err(err).
				Log()
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats_reconnected").
				Component("nats").
				Operation("connection").
				Meta("url", c.ConnectedUrl()).
				Log()
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", cfg.NATSUrl, err)
	}
	return &NATSClient{Conn: conn, logger: logger}, nil
}

func (nc *NATSClient) Publish(subject string, data []byte) error {
	return nc.Conn.Publish(subject, data)
}

func (nc *NATSClient) PublishResolveTask(task ResolveTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return nc.Publish(SubjectPlayerResolve, data)
}

func (nc *NATSClient) PublishPlayerResolved(event PlayerResolvedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return nc.Publish(SubjectPlayerResolved, data)
}

func (nc *NATSClient) Close() {
	if nc.Conn != nil {
		nc.Conn.Close()
	}
}

// StartResolveWorker consumes resolve tasks in the resolve-workers queue
// group. Each task is resolved once; failures are reported, never retried.
func (nc *NATSClient) StartResolveWorker(ctx context.Context, worker *ResolveWorker) (*nats.Subscription, error) {
	handler := func(msg *nats.Msg) {
		taskCtx, cancel := context.WithTimeout(ctx, resolveTaskTimeout)
		defer cancel()

		reply := worker.Process(taskCtx, msg.Data)
		if msg.Reply == "" {
			return
		}
		data, err := json.Marshal(reply)
		if err != nil {
			nc.logger.Error("resolve_reply_encode_failed").
				Component("nats").
				Operation("reply").
				Err(err).
				Log()
			return
		}
		if err := msg.Respond(data); err != nil {
			nc.logger.Warn("resolve_reply_failed").
				Component("nats").
				Operation("reply").
				Err(err).
				Log()
		}
	}

	sub, err := nc.Conn.QueueSubscribe(SubjectPlayerResolve, resolveQueueGroup, handler)
	if err != nil {
		return nil, err
	}
	nc.logger.Info("resolve_worker_started").
		Component("nats").
		Operation("subscribe").
		Meta("subject", SubjectPlayerResolve).
		Meta("queue", resolveQueueGroup).
		Log()
	return sub, nil
}

// ResolveWorker runs the pipeline for queued tasks. Store and publisher are
// optional.
type ResolveWorker struct {
	resolver    PlayerStatsResolver
	store       SnapshotStore
	publisher   EventPublisher
	snapshotTTL time.Duration
	logger      *Logger
}

func NewResolveWorker(resolver PlayerStatsResolver, store SnapshotStore, publisher EventPublisher, snapshotTTL time.Duration, logger *Logger) *ResolveWorker {
	if logger == nil {
		logger = NopLogger()
	}
	return &ResolveWorker{
		resolver:    resolver,
		store:       store,
		publisher:   publisher,
		snapshotTTL: snapshotTTL,
		logger:      logger,
	}
}

func (w *ResolveWorker) Process(ctx context.Context, data []byte) ResolveReply {
	var task ResolveTask
	if err := json.Unmarshal(data, &task); err != nil {
		w.logger.Error("resolve_task_decode_failed").
			Component("worker").
			Operation("process_resolve").
			Err(err).
			Log()
		return ResolveReply{OK: false, Error: "invalid task payload"}
	}

	start := time.Now()
	result, err := w.resolver.ResolvePlayerStats(ctx, task.GameName, task.TagLine)
	if err != nil {
		w.logger.Warn("resolve_task_failed").
			Component("worker").
			Operation("process_resolve").
			Request("", "", task.RequestID).
			Meta("game_name", task.GameName).
			Meta("tag_line", task.TagLine).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return ResolveReply{
			OK:        false,
			Kind:      KindOf(err),
			Error:     UserMessage(err),
			RequestID: task.RequestID,
		}
	}

	event := NewPlayerResolvedEvent(result)
	persistResolution(ctx, result, event, w.store, w.publisher, w.snapshotTTL, w.logger)

	w.logger.Info("resolve_task_completed").
		Component("worker").
		Operation("process_resolve").
		Request("", "", task.RequestID).
		Player(result.Account.RiotID(), result.Account.PUUID).
		Duration(time.Since(start)).
		Log()
	return ResolveReply{OK: true, RequestID: task.RequestID, Event: &event}
}

func NewPlayerResolvedEvent(result *PlayerStatsResult) PlayerResolvedEvent {
	return PlayerResolvedEvent{
		GameName:      result.Account.GameName,
		TagLine:       result.Account.TagLine,
		PUUID:         result.Account.PUUID,
		SummonerLevel: result.Profile.SummonerLevel,
		MainRole:      result.MainRole(),
		MasterySource: result.MasterySource,
		ResolvedAt:    result.ResolvedAt,
	}
}

// persistResolution saves the snapshot and announces the result. Both are
// best effort: failures are logged and the resolution still counts.
func persistResolution(ctx context.Context, result *PlayerStatsResult, event PlayerResolvedEvent, store SnapshotStore, publisher EventPublisher, ttl time.Duration, logger *Logger) {
	if store != nil {
		if err := store.SaveSnapshot(ctx, result, ttl); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("snapshot_not_saved").
				Component("worker").
				Operation("save_snapshot").
				Player(result.Account.RiotID(), result.Account.PUUID).
				Err(err).
				Log()
		}
	}
	if publisher != nil {
		if err := publisher.PublishPlayerResolved(event); err != nil {
			logger.Warn("resolved_event_not_published").
				Component("worker").
				Operation("publish_resolved").
				Player(result.Account.RiotID(), result.Account.PUUID).
				Err(err).
				Log()
		}
	}
}
