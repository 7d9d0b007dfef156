package booking

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/db"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/models"
)

// Store is the authoritative-state boundary of the booking core. Reads used
// for slot computation are snapshot reads; InTransaction provides the atomic
// unit the reservation protocol re-validates and commits inside.
type Store interface {
	Business(ctx context.Context, id string) (models.Business, error)
	ServiceByID(ctx context.Context, id string) (models.Service, error)
	ProfessionalByID(ctx context.Context, id string) (models.Professional, error)

	ScheduledAppointments(ctx context.Context, professionalID, date string) ([]models.Appointment, error)
	AppointmentByID(ctx context.Context, id string) (models.Appointment, error)
	ActiveAppointmentByClient(ctx context.Context, clientID string) (*models.Appointment, error)
	CountScheduledByClient(ctx context.Context, clientID string) (int64, error)
	BlockedRanges(ctx context.Context, businessID, professionalID string) ([]models.BlockedRange, error)

	// InsertAppointment must return ErrSlotUnavailable when the slot's
	// uniqueness constraint rejects the write.
	InsertAppointment(ctx context.Context, appt models.Appointment) error
	UpdateAppointmentStatus(ctx context.Context, id, status string, canceledAt *time.Time) error

	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type MongoStore struct {
	client *mongo.Client
	cols   *db.Collections
}

func NewMongoStore(client *mongo.Client, cols *db.Collections) *MongoStore {
	return &MongoStore{client: client, cols: cols}
}

func (s *MongoStore) Business(ctx context.Context, id string) (models.Business, error) {
	var out models.Business
	if err := s.cols.Businesses.FindOne(ctx, bson.M{"_id": id}).Decode(&out); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Business{}, ErrNotFound
		}
		return models.Business{}, err
	}
	return out, nil
}

func (s *MongoStore) ServiceByID(ctx context.Context, id string) (models.Service, error) {
	var out models.Service
	if err := s.cols.Services.FindOne(ctx, bson.M{"_id": id}).Decode(&out); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Service{}, ErrNotFound
		}
		return models.Service{}, err
	}
	return out, nil
}

func (s *MongoStore) ProfessionalByID(ctx context.Context, id string) (models.Professional, error) {
	var out models.Professional
	if err := s.cols.Professionals.FindOne(ctx, bson.M{"_id": id}).Decode(&out); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Professional{}, ErrNotFound
		}
		return models.Professional{}, err
	}
	return out, nil
}

func (s *MongoStore) ScheduledAppointments(ctx context.Context, professionalID, date string) ([]models.Appointment, error) {
	cursor, err := s.cols.Appointments.Find(ctx, bson.M{
		"professionalId": professionalID,
		"date":           date,
		"status":         models.AppointmentStatusScheduled,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.Appointment
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) AppointmentByID(ctx context.Context, id string) (models.Appointment, error) {
	var out models.Appointment
	if err := s.cols.Appointments.FindOne(ctx, bson.M{"_id": id}).Decode(&out); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Appointment{}, ErrNotFound
		}
		return models.Appointment{}, err
	}
	return out, nil
}

func (s *MongoStore) ActiveAppointmentByClient(ctx context.Context, clientID string) (*models.Appointment, error) {
	var out models.Appointment
	err := s.cols.Appointments.FindOne(ctx, bson.M{
		"clientId": clientID,
		"status":   models.AppointmentStatusScheduled,
	}).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MongoStore) CountScheduledByClient(ctx context.Context, clientID string) (int64, error) {
	return s.cols.Appointments.CountDocuments(ctx, bson.M{
		"clientId": clientID,
		"status":   models.AppointmentStatusScheduled,
	})
}

func (s *MongoStore) BlockedRanges(ctx context.Context, businessID, professionalID string) ([]models.BlockedRange, error) {
	filter := bson.M{
		"businessId": businessID,
		"$or": []bson.M{
			{"professionalId": ""},
			{"professionalId": bson.M{"$exists": false}},
			{"professionalId": professionalID},
		},
	}
	cursor, err := s.cols.BlockedRanges.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.BlockedRange
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) InsertAppointment(ctx context.Context, appt models.Appointment) error {
	_, err := s.cols.Appointments.InsertOne(ctx, appt)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlotUnavailable
		}
		return err
	}
	return nil
}

func (s *MongoStore) UpdateAppointmentStatus(ctx context.Context, id, status string, canceledAt *time.Time) error {
	set := bson.M{"status": status}
	if canceledAt != nil {
		set["canceledAt"] = *canceledAt
	}
	res, err := s.cols.Appointments.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// InTransaction runs fn inside a mongo session so the reservation's
// re-validation and insert commit or fail as one unit. The partial unique
// index on scheduled appointments backstops anything a non-serializable read
// could miss.
func (s *MongoStore) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
