package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"shoppingcart/internal/domain"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedis(client, "", nil)
}

func TestRedis_KeyFormat(t *testing.T) {
	mr, repo := newTestRedis(t)
	ctx := context.Background()

	if err := repo.CreateOrUpdate(ctx, "user-1", "shopping-cart.default", []byte("blob")); err != nil {
		t.Fatalf("CreateOrUpdate: %v", err)
	}
	got, err := mr.Get("shopping_cart:user-1.shopping-cart.default")
	if err != nil {
		t.Fatalf("expected key to exist: %v", err)
	}
	if got != "blob" {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestRedis_CustomTablePrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	repo := NewRedis(client, "carts", nil)

	if err := repo.CreateOrUpdate(context.Background(), "7", "shopping-cart.wishlist", []byte("x")); err != nil {
		t.Fatalf("CreateOrUpdate: %v", err)
	}
	if !mr.Exists("carts:7.shopping-cart.wishlist") {
		t.Fatalf("expected prefixed key, have %v", mr.Keys())
	}
}

func TestRedis_FindRemove(t *testing.T) {
	_, repo := newTestRedis(t)
	ctx := context.Background()

	if _, err := repo.FindByIDAndInstanceName(ctx, "u", "shopping-cart.default"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.CreateOrUpdate(ctx, "u", "shopping-cart.default", []byte("one")); err != nil {
		t.Fatalf("CreateOrUpdate: %v", err)
	}
	if err := repo.CreateOrUpdate(ctx, "u", "shopping-cart.default", []byte("two")); err != nil {
		t.Fatalf("CreateOrUpdate overwrite: %v", err)
	}

	got, err := repo.FindByIDAndInstanceName(ctx, "u", "shopping-cart.default")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.ID != "u" || got.Instance != "shopping-cart.default" || string(got.Content) != "two" {
		t.Fatalf("unexpected stored cart %+v", got)
	}

	if err := repo.Remove(ctx, "u", "shopping-cart.default"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := repo.Remove(ctx, "u", "shopping-cart.default"); err != nil {
		t.Fatalf("Remove missing: %v", err)
	}
	if _, err := repo.FindByIDAndInstanceName(ctx, "u", "shopping-cart.default"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after remove, got %v", err)
	}
}

func TestRedis_SetExpireTime(t *testing.T) {
	mr, repo := newTestRedis(t)
	ctx := context.Background()

	if err := repo.CreateOrUpdate(ctx, "u", "shopping-cart.default", []byte("x")); err != nil {
		t.Fatalf("CreateOrUpdate: %v", err)
	}
	if err := repo.SetExpireTime(ctx, "u", "shopping-cart.default", time.Minute); err != nil {
		t.Fatalf("SetExpireTime: %v", err)
	}
	if ttl := mr.TTL("shopping_cart:u.shopping-cart.default"); ttl != time.Minute {
		t.Fatalf("expected ttl 1m, got %s", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := repo.FindByIDAndInstanceName(ctx, "u", "shopping-cart.default"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected expired cart to be gone, got %v", err)
	}

	if err := repo.SetExpireTime(ctx, "missing", "shopping-cart.default", time.Minute); err != nil {
		t.Fatalf("SetExpireTime on missing key: %v", err)
	}
}

func TestRedis_StoreClearsTTL(t *testing.T) {
	mr, repo := newTestRedis(t)
	ctx := context.Background()

	_ = repo.CreateOrUpdate(ctx, "u", "shopping-cart.default", []byte("x"))
	_ = repo.SetExpireTime(ctx, "u", "shopping-cart.default", time.Minute)
	_ = repo.CreateOrUpdate(ctx, "u", "shopping-cart.default", []byte("y"))

	if ttl := mr.TTL("shopping_cart:u.shopping-cart.default"); ttl != 0 {
		t.Fatalf("expected ttl to be cleared by a new store, got %s", ttl)
	}
}

func TestRedis_RenameCart(t *testing.T) {
	mr, repo := newTestRedis(t)
	ctx := context.Background()

	if err := repo.RenameCart(ctx, "guest", "user", "shopping-cart.default"); err != nil {
		t.Fatalf("rename with missing source: %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("expected no keys, got %v", mr.Keys())
	}

	_ = repo.CreateOrUpdate(ctx, "guest", "shopping-cart.default", []byte("guest-cart"))
	if err := repo.RenameCart(ctx, "guest", "user", "shopping-cart.default"); err != nil {
		t.Fatalf("RenameCart: %v", err)
	}
	got, err := repo.FindByIDAndInstanceName(ctx, "user", "shopping-cart.default")
	if err != nil || string(got.Content) != "guest-cart" {
		t.Fatalf("expected renamed cart, got %+v err=%v", got, err)
	}
	if mr.Exists("shopping_cart:guest.shopping-cart.default") {
		t.Fatalf("expected source key to be gone")
	}
}

func TestRedis_RenameCartDoesNotOverwrite(t *testing.T) {
	_, repo := newTestRedis(t)
	ctx := context.Background()

	_ = repo.CreateOrUpdate(ctx, "guest", "shopping-cart.default", []byte("guest-cart"))
	_ = repo.CreateOrUpdate(ctx, "user", "shopping-cart.default", []byte("user-cart"))

	err := repo.RenameCart(ctx, "guest", "user", "shopping-cart.default")
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
	user, _ := repo.FindByIDAndInstanceName(ctx, "user", "shopping-cart.default")
	guest, _ := repo.FindByIDAndInstanceName(ctx, "guest", "shopping-cart.default")
	if user == nil || string(user.Content) != "user-cart" || guest == nil || string(guest.Content) != "guest-cart" {
		t.Fatalf("expected both carts untouched, got user=%+v guest=%+v", user, guest)
	}
}

func TestRedis_GetOrdersDrainsList(t *testing.T) {
	mr, repo := newTestRedis(t)
	ctx := context.Background()

	mr.Push("orders:store-9", `{"id":"o1","total":12.5}`, `{"id":"o2"}`)

	orders, err := repo.GetOrders(ctx, "orders:store-9", time.Hour)
	if err != nil {
		t.Fatalf("GetOrders: %v", err)
	}
	if len(orders) != 2 || orders[0]["id"] != "o1" || orders[1]["id"] != "o2" {
		t.Fatalf("unexpected orders %+v", orders)
	}
	if orders[0]["total"] != 12.5 {
		t.Fatalf("expected decoded total 12.5, got %v", orders[0]["total"])
	}
	if list, err := mr.List("orders:store-9"); err == nil && len(list) > 0 {
		t.Fatalf("expected list to be drained, still have %v", list)
	}

	again, err := repo.GetOrders(ctx, "orders:store-9", time.Hour)
	if err != nil {
		t.Fatalf("GetOrders on empty list: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no orders, got %+v", again)
	}
}

func TestRedis_GetOrdersBadEntryKeepsList(t *testing.T) {
	mr, repo := newTestRedis(t)
	ctx := context.Background()

	mr.Push("orders:bad", `{"id":"o1"}`, `not-json`)

	if _, err := repo.GetOrders(ctx, "orders:bad", time.Hour); err == nil {
		t.Fatalf("expected decode error")
	}
	list, err := mr.List("orders:bad")
	if err != nil || len(list) != 2 {
		t.Fatalf("expected list untouched, got %v err=%v", list, err)
	}
}

func TestRedis_GetAndKeepOrders(t *testing.T) {
	mr, repo := newTestRedis(t)
	ctx := context.Background()

	mr.Push("orders:keep", `{"id":"o1"}`)

	orders, err := repo.GetAndKeepOrders(ctx, "orders:keep", time.Hour)
	if err != nil {
		t.Fatalf("GetAndKeepOrders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	list, _ := mr.List("orders:keep")
	if len(list) != 1 {
		t.Fatalf("expected list to be kept, got %v", list)
	}
	if ttl := mr.TTL("orders:keep"); ttl != time.Hour {
		t.Fatalf("expected ttl refresh to 1h, got %s", ttl)
	}
}

func TestRedis_DeleteOrders(t *testing.T) {
	mr, repo := newTestRedis(t)
	ctx := context.Background()

	mr.Push("orders:trim", `{"id":"o1"}`, `{"id":"o2"}`, `{"id":"o3"}`)

	if err := repo.DeleteOrders(ctx, "orders:trim", 2, time.Hour); err != nil {
		t.Fatalf("DeleteOrders: %v", err)
	}
	list, _ := mr.List("orders:trim")
	if len(list) != 1 || list[0] != `{"id":"o3"}` {
		t.Fatalf("expected only o3 left, got %v", list)
	}
	if ttl := mr.TTL("orders:trim"); ttl != time.Hour {
		t.Fatalf("expected ttl 1h, got %s", ttl)
	}
}
