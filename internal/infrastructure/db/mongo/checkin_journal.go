package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/ports"
)

const checkinCollection = "checkin_events"

// CheckinJournal implements ports.CheckinJournal using MongoDB. It is an
// audit trail for the desk; the remote API stays authoritative.
type CheckinJournal struct {
	db *mongo.Database
}

var _ ports.CheckinJournal = (*CheckinJournal)(nil)

func NewCheckinJournal(db *mongo.Database) *CheckinJournal {
	return &CheckinJournal{db: db}
}

// EnsureIndexes creates the lookup indexes on the checkin_events collection.
func (j *CheckinJournal) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "attendee_id", Value: 1}, {Key: "slot", Value: 1}}},
		{Keys: bson.D{{Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "mutation_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	_, err := j.db.Collection(checkinCollection).Indexes().CreateMany(ctx, indexes)
	return err
}

// Record appends one scan outcome to the checkin_events collection.
func (j *CheckinJournal) Record(ctx context.Context, event domain.CheckinEvent) error {
	doc := bson.M{
		"attendee_id":   event.AttendeeID,
		"attendee_name": event.AttendeeName,
		"day":           event.Day,
		"turn":          string(event.Turn),
		"slot":          event.Slot,
		"operator":      event.Operator,
		"outcome":       string(event.Outcome),
		"at":            event.At.UTC(),
		"recorded_at":   time.Now().UTC(),
	}
	if event.MutationID != "" {
		doc["mutation_id"] = event.MutationID
	}
	if event.Error != "" {
		doc["error"] = event.Error
	}

	_, err := j.db.Collection(checkinCollection).InsertOne(ctx, doc)
	return err
}
