package clients

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/models"
)

type fakeRepo struct {
	byPhone map[string]models.Client
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byPhone: make(map[string]models.Client)}
}

func (f *fakeRepo) FindByPhone(ctx context.Context, businessID, phone string) (models.Client, error) {
	c, ok := f.byPhone[businessID+"/"+phone]
	if !ok {
		return models.Client{}, ErrClientNotFound
	}
	return c, nil
}

func (f *fakeRepo) Create(ctx context.Context, client models.Client) error {
	key := client.BusinessID + "/" + client.Phone
	if _, ok := f.byPhone[key]; ok {
		return ErrPhoneTaken
	}
	f.byPhone[key] = client
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, id string, set map[string]interface{}) (models.Client, error) {
	for key, c := range f.byPhone {
		if c.ID != id {
			continue
		}
		if v, ok := set["name"].(string); ok {
			c.Name = v
		}
		if v, ok := set["birthDate"].(string); ok {
			c.BirthDate = v
		}
		if v, ok := set["healthPlan"].(string); ok {
			c.HealthPlan = v
		}
		if v, ok := set["updatedAt"].(time.Time); ok {
			c.UpdatedAt = v
		}
		f.byPhone[key] = c
		return c, nil
	}
	return models.Client{}, ErrClientNotFound
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+55 (11) 98765-4321", "+5511987654321"},
		{"11 98765 4321", "11987654321"},
		{"11.98765.4321", "11987654321"},
	}
	for _, tc := range cases {
		got, err := NormalizePhone(tc.in)
		if err != nil {
			t.Fatalf("NormalizePhone(%q) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizePhoneRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "12345", "+55 11 call-me", "123456789012345678"} {
		if _, err := NormalizePhone(in); !errors.Is(err, ErrInvalidPhone) {
			t.Fatalf("NormalizePhone(%q) expected ErrInvalidPhone, got %v", in, err)
		}
	}
}

func TestUpsertCreatesOnFirstContact(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, time.UTC)

	client, err := svc.Upsert(context.Background(), "biz-1", UpsertInput{
		Name:  "Maria",
		Phone: "+55 11 98765-4321",
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if client.Phone != "+5511987654321" {
		t.Fatalf("phone not normalized: %q", client.Phone)
	}
	if client.ID == "" {
		t.Fatalf("expected generated id")
	}
}

func TestUpsertRequiresNameForNewClient(t *testing.T) {
	svc := NewService(newFakeRepo(), time.UTC)
	_, err := svc.Upsert(context.Background(), "biz-1", UpsertInput{Phone: "11987654321"})
	if !errors.Is(err, ErrMissingName) {
		t.Fatalf("expected ErrMissingName, got %v", err)
	}
}

func TestUpsertUpdatesReturningClient(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, time.UTC)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, "biz-1", UpsertInput{Name: "Maria", Phone: "11987654321"})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}

	updated, err := svc.Upsert(ctx, "biz-1", UpsertInput{
		Phone:      "(11) 98765-4321",
		HealthPlan: "unimed",
	})
	if err != nil {
		t.Fatalf("second Upsert error: %v", err)
	}
	if updated.ID != first.ID {
		t.Fatalf("returning client must keep its id")
	}
	if updated.Name != "Maria" {
		t.Fatalf("name must survive a partial update, got %q", updated.Name)
	}
	if updated.HealthPlan != "unimed" {
		t.Fatalf("health plan not updated: %+v", updated)
	}
}

func TestFindByPhoneNormalizes(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, time.UTC)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, "biz-1", UpsertInput{Name: "Maria", Phone: "11987654321"}); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}

	found, err := svc.FindByPhone(ctx, "biz-1", "(11) 98765-4321")
	if err != nil {
		t.Fatalf("FindByPhone error: %v", err)
	}
	if found.Name != "Maria" {
		t.Fatalf("unexpected client: %+v", found)
	}
}
