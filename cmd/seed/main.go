package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/auth"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/config"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/db"
	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/models"
)

const seedBusinessID = "vitoria-demo"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	now := time.Now().In(cfg.Timezone)

	weekdays := models.DaySchedule{
		Enabled: true,
		Intervals: []models.WorkInterval{
			{Start: 9 * 60, End: 12 * 60},
			{Start: 13 * 60, End: 18 * 60},
		},
	}
	saturday := models.DaySchedule{
		Enabled:   true,
		Intervals: []models.WorkInterval{{Start: 9 * 60, End: 13 * 60}},
	}
	var schedule models.WeekSchedule
	for d := time.Monday; d <= time.Friday; d++ {
		schedule[d] = weekdays
	}
	schedule[time.Saturday] = saturday

	business := models.Business{
		ID:          seedBusinessID,
		Name:        "Estudio Vitoria",
		Category:    "salon",
		ClientLimit: cfg.ClientLimit,
		Schedule:    schedule,
		CreatedAt:   now,
	}
	if err := upsertByID(ctx, cols.Businesses, business.ID, business); err != nil {
		log.Fatalf("seed business: %v", err)
	}

	professionals := []models.Professional{
		{ID: "pro-ana", BusinessID: seedBusinessID, Name: "Ana", Status: models.EntityStatusActive, CreatedAt: now},
		{ID: "pro-bruno", BusinessID: seedBusinessID, Name: "Bruno", Status: models.EntityStatusActive, CreatedAt: now},
	}
	for _, p := range professionals {
		if err := upsertByID(ctx, cols.Professionals, p.ID, p); err != nil {
			log.Fatalf("seed professional %s: %v", p.Name, err)
		}
	}

	services := []models.Service{
		{ID: "svc-corte", BusinessID: seedBusinessID, Name: "Corte", DurationMinutes: 30, Price: 6000, Status: models.EntityStatusActive, CreatedAt: now},
		{ID: "svc-coloracao", BusinessID: seedBusinessID, Name: "Coloracao", DurationMinutes: 90, Price: 18000, Status: models.EntityStatusActive, ProfessionalIDs: []string{"pro-ana"}, CreatedAt: now},
		{ID: "svc-barba", BusinessID: seedBusinessID, Name: "Barba", DurationMinutes: 30, Price: 4000, Status: models.EntityStatusActive, ProfessionalIDs: []string{"pro-bruno"}, CreatedAt: now},
	}
	for _, svc := range services {
		if err := upsertByID(ctx, cols.Services, svc.ID, svc); err != nil {
			log.Fatalf("seed service %s: %v", svc.Name, err)
		}
	}

	username := envOrDefault("ADMIN_USER", "admin")
	if password := os.Getenv("ADMIN_PASSWORD"); password != "" {
		if err := seedAdminUser(ctx, cols, username, password, cfg.Timezone); err != nil {
			log.Fatalf("seed admin error for %s: %v", username, err)
		}
	} else {
		log.Printf("seed admin: %s skipped (ADMIN_PASSWORD not set)", username)
	}

	log.Println("seed completed")
}

func upsertByID(ctx context.Context, col *mongo.Collection, id string, doc interface{}) error {
	_, err := col.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}

func seedAdminUser(ctx context.Context, cols *db.Collections, username, password string, loc *time.Location) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now().In(loc)
	update := bson.M{
		"$set": bson.M{
			"passwordHash": hash,
			"role":         models.UserRoleAdmin,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID().Hex(),
			"username":  username,
			"createdAt": now,
		},
	}
	_, err = cols.Users.UpdateOne(ctx, bson.M{"username": username}, update, options.Update().SetUpsert(true))
	return err
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
