package clients

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/models"
)

var (
	ErrClientNotFound = errors.New("client not found")
	ErrPhoneTaken     = errors.New("phone already registered")
	ErrInvalidPhone   = errors.New("invalid phone number")
	ErrMissingName    = errors.New("missing client name")
)

type Service struct {
	repo     Repository
	location *time.Location
}

func NewService(repo Repository, location *time.Location) *Service {
	return &Service{repo: repo, location: location}
}

// NormalizePhone reduces a phone number to its canonical digit form: strip
// punctuation, keep one leading plus. The normalized form is the client's
// identity within a business.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// separators are dropped
		default:
			return "", ErrInvalidPhone
		}
	}
	digits := strings.TrimPrefix(b.String(), "+")
	if len(digits) < 7 || len(digits) > 15 {
		return "", ErrInvalidPhone
	}
	return b.String(), nil
}

func (s *Service) FindByPhone(ctx context.Context, businessID, rawPhone string) (models.Client, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return models.Client{}, err
	}
	return s.repo.FindByPhone(ctx, businessID, phone)
}

type UpsertInput struct {
	Name       string
	Phone      string
	BirthDate  string
	HealthPlan string
}

// Upsert creates the client on first contact or refreshes the profile fields
// of a returning one. The phone never changes through this path.
func (s *Service) Upsert(ctx context.Context, businessID string, in UpsertInput) (models.Client, error) {
	phone, err := NormalizePhone(in.Phone)
	if err != nil {
		return models.Client{}, err
	}
	name := strings.TrimSpace(in.Name)

	existing, err := s.repo.FindByPhone(ctx, businessID, phone)
	if err == nil {
		set := map[string]interface{}{"updatedAt": time.Now().In(s.location)}
		if name != "" {
			set["name"] = name
		}
		if v := strings.TrimSpace(in.BirthDate); v != "" {
			set["birthDate"] = v
		}
		if v := strings.TrimSpace(in.HealthPlan); v != "" {
			set["healthPlan"] = v
		}
		return s.repo.Update(ctx, existing.ID, set)
	}
	if !errors.Is(err, ErrClientNotFound) {
		return models.Client{}, err
	}

	if name == "" {
		return models.Client{}, ErrMissingName
	}

	now := time.Now().In(s.location)
	client := models.Client{
		ID:         primitive.NewObjectID().Hex(),
		BusinessID: businessID,
		Name:       name,
		Phone:      phone,
		BirthDate:  strings.TrimSpace(in.BirthDate),
		HealthPlan: strings.TrimSpace(in.HealthPlan),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		if errors.Is(err, ErrPhoneTaken) {
			// Lost a create race; the other writer's record wins.
			return s.repo.FindByPhone(ctx, businessID, phone)
		}
		return models.Client{}, err
	}
	return client, nil
}
