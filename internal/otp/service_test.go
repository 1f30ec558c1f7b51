package otp

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mini-wallet/mini_wallet/internal/notification"
)

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

type capturingNotifier struct {
	messages []notification.Message
}

func (n *capturingNotifier) Send(_ context.Context, msg notification.Message) error {
	n.messages = append(n.messages, msg)
	return nil
}

func (n *capturingNotifier) lastCode(t *testing.T) string {
	t.Helper()
	if len(n.messages) == 0 {
		t.Fatal("no message delivered")
	}
	match := codePattern.FindStringSubmatch(n.messages[len(n.messages)-1].Body)
	if match == nil {
		t.Fatalf("no code in message %q", n.messages[len(n.messages)-1].Body)
	}
	return match[1]
}

func newRedisService(t *testing.T) (*Service, *capturingNotifier, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	notifier := &capturingNotifier{}
	svc := NewService(NewRedisStore(cache), notifier, 5*time.Minute, time.Minute)
	return svc, notifier, mr
}

func TestIssueAndVerify(t *testing.T) {
	svc, notifier, _ := newRedisService(t)
	ctx := context.Background()

	if err := svc.Issue(ctx, "08012345678"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := notifier.lastCode(t)

	ok, err := svc.Verify(ctx, "08012345678", code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("correct code rejected")
	}

	// A match consumes the code.
	ok, err = svc.Verify(ctx, "08012345678", code)
	if err != nil {
		t.Fatalf("second verify: %v", err)
	}
	if ok {
		t.Fatal("consumed code accepted again")
	}
}

func TestVerifyWrongCode(t *testing.T) {
	svc, notifier, _ := newRedisService(t)
	ctx := context.Background()

	if err := svc.Issue(ctx, "08012345678"); err != nil {
		t.Fatalf("issue: %v", err)
	}

	ok, err := svc.Verify(ctx, "08012345678", "000000")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("wrong code accepted")
	}

	// A mismatch does not consume the live code.
	ok, err = svc.Verify(ctx, "08012345678", notifier.lastCode(t))
	if err != nil || !ok {
		t.Fatalf("live code rejected after mismatch: ok=%v err=%v", ok, err)
	}
}

func TestIssueCooldown(t *testing.T) {
	svc, _, mr := newRedisService(t)
	ctx := context.Background()

	if err := svc.Issue(ctx, "08012345678"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := svc.Issue(ctx, "08012345678"); !errors.Is(err, ErrCooldown) {
		t.Fatalf("err = %v", err)
	}

	// Another identifier is unaffected.
	if err := svc.Issue(ctx, "08087654321"); err != nil {
		t.Fatalf("second identifier: %v", err)
	}

	// Once the cooldown lapses, reissue works.
	mr.FastForward(2 * time.Minute)
	if err := svc.Issue(ctx, "08012345678"); err != nil {
		t.Fatalf("reissue: %v", err)
	}
}

func TestCodeExpires(t *testing.T) {
	svc, notifier, mr := newRedisService(t)
	ctx := context.Background()

	if err := svc.Issue(ctx, "08012345678"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := notifier.lastCode(t)

	mr.FastForward(6 * time.Minute)

	ok, err := svc.Verify(ctx, "08012345678", code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("expired code accepted")
	}
}

func TestMemoryStoreCooldownAndExpiry(t *testing.T) {
	store := NewMemoryStore()
	current := time.Now()
	store.now = func() time.Time { return current }

	ctx := context.Background()

	ok, err := store.ReserveCooldown(ctx, "ada", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first reserve: ok=%v err=%v", ok, err)
	}
	ok, _ = store.ReserveCooldown(ctx, "ada", time.Minute)
	if ok {
		t.Fatal("reservation should still be live")
	}

	current = current.Add(2 * time.Minute)
	ok, _ = store.ReserveCooldown(ctx, "ada", time.Minute)
	if !ok {
		t.Fatal("lapsed reservation should free up")
	}

	if err := store.SaveCode(ctx, "ada", "123456", time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	current = current.Add(2 * time.Minute)
	code, err := store.LoadCode(ctx, "ada")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if code != "" {
		t.Fatalf("expired code still loadable: %q", code)
	}
}
