package service

import (
	"context"
	"errors"
	"testing"

	"github.com/atinyakov/MineAdmin/internal/models"
	"github.com/atinyakov/MineAdmin/internal/repository"
)

func TestUserService(t *testing.T) {
	ctx := context.Background()
	auth, users, sessions := newAuth(t)
	svc := NewUserService(users, sessions)

	u, err := svc.Create(ctx, models.User{Name: "Mia", Email: "mia@example.com", Password: "secret-pass", Role: models.RoleShopManager})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !u.Active || u.ID == "" || u.Password != "" {
		t.Errorf("created = %+v", u)
	}

	customer, err := svc.Create(ctx, models.User{Name: "Cy", Email: "cy@example.com", Password: "secret-pass"})
	if err != nil || customer.Role != models.RoleCustomer {
		t.Fatalf("Create(customer) = %+v, %v", customer, err)
	}

	invalid := []models.User{
		{Email: "x@example.com", Password: "secret-pass"},
		{Name: "X", Email: "bad", Password: "secret-pass"},
		{Name: "X", Email: "x@example.com", Password: "secret-pass", Role: "king"},
		{Name: "X", Email: "x@example.com", Password: "short"},
	}
	for _, in := range invalid {
		if _, err := svc.Create(ctx, in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Create(%+v) error = %v; want ErrInvalidInput", in, err)
		}
	}
	if _, err := svc.Create(ctx, models.User{Name: "Dup", Email: "mia@example.com", Password: "secret-pass"}); !errors.Is(err, repository.ErrConflict) {
		t.Errorf("duplicate e-mail error = %v; want ErrConflict", err)
	}

	managers, _ := svc.List(ctx, UserFilter{Role: models.RoleShopManager})
	if len(managers) != 1 || managers[0].ID != u.ID {
		t.Errorf("List(shop_manager) = %+v", managers)
	}
	found, _ := svc.List(ctx, UserFilter{Search: "CY@"})
	if len(found) != 1 || found[0].ID != customer.ID {
		t.Errorf("List(search) = %+v", found)
	}

	_, sess, err := auth.Login(ctx, "mia@example.com", "secret-pass")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	u.Active = false
	if _, err := svc.Update(ctx, u.ID, u); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if _, err := auth.Authenticate(ctx, sess.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("disabled user still authenticated: %v", err)
	}

	if _, err := svc.Update(ctx, "missing", u); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Update(missing) error = %v; want ErrNotFound", err)
	}

	if err := svc.Delete(ctx, customer.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := svc.Get(ctx, customer.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("deleted user still present: %v", err)
	}
}
