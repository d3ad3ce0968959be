// Package audit is a write-only log of actor termination events: when an
// actor exits (normally or abnormally), a node may record who it was and
// why into Mongo for later inspection. This is explicitly not mailbox
// persistence or replay (spec.md's Non-goals rule that out) — audit never
// feeds a message back into an actor, it only observes exits after the
// fact. Adapted from the teacher's infra/mongo package, narrowed from a
// general InsertConfig/FindConfig client to a single RecordExit write path.
package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/phuhao00/actormesh/config"
)

// ExitRecord is one logged termination.
type ExitRecord struct {
	ActorID string    `bson:"actor_id"`
	Reason  string    `bson:"reason"`
	Node    string    `bson:"node"`
	At      time.Time `bson:"at"`
}

// String renders a record the way the teacher formats other timestamped log
// lines, for callers that want a one-line summary rather than the raw bson.
func (r ExitRecord) String() string {
	return fmt.Sprintf("%s exited (%s) at %s on %s", r.ActorID, r.Reason, r.At.Format("2006-01-02 15:04:05"), r.Node)
}

// Sink writes ExitRecords to a Mongo collection. Failures to write are
// logged by the caller, not retried or queued — losing an audit entry must
// never hold up actor termination itself.
type Sink struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// New connects a Sink the same way the teacher's NewMongoClient does.
func New(cfg config.MongoConfig) (*Sink, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(cfg.URI)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("audit: connect mongo: %w", err)
	}

	return &Sink{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// GetName implements runtime.Module.
func (s *Sink) GetName() string { return "audit" }

// OnStart implements runtime.Module.
func (s *Sink) OnStart(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// OnStop implements runtime.Module.
func (s *Sink) OnStop(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// RecordExit best-effort logs an actor's termination. Errors are returned
// for the caller to log; callers should never block an actor's own exit
// path waiting on this.
func (s *Sink) RecordExit(ctx context.Context, node string, actorID, reason string) error {
	rec := ExitRecord{ActorID: actorID, Reason: reason, Node: node, At: time.Now()}
	if _, err := s.collection.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("audit: record exit for %s: %w", actorID, err)
	}
	return nil
}
