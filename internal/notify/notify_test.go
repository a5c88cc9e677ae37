package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/Zainify/onlineportal-sub001/internal/infra/memory"
	"github.com/Zainify/onlineportal-sub001/internal/notify"
)

func TestHubDeliversByAudience(t *testing.T) {
	hub := notify.NewHub()
	studentCh, cancelStudent := hub.Subscribe(domain.Identity{UserID: "s1", Role: domain.RoleStudent})
	defer cancelStudent()
	teacherCh, cancelTeacher := hub.Subscribe(domain.Identity{UserID: "t1", Role: domain.RoleTeacher})
	defer cancelTeacher()

	role := domain.RoleStudent
	hub.Deliver(domain.Notification{Title: "broadcast", Audience: domain.Audience{ToRole: &role}})

	select {
	case n := <-studentCh:
		if n.Title != "broadcast" {
			t.Fatalf("unexpected notification %+v", n)
		}
	case <-time.After(time.Second):
		t.Fatalf("student did not receive broadcast")
	}
	select {
	case n := <-teacherCh:
		t.Fatalf("teacher should not receive student broadcast, got %+v", n)
	default:
	}
}

func TestHubDropsOldestForSlowSubscribers(t *testing.T) {
	hub := notify.NewHub()
	ch, cancel := hub.Subscribe(domain.Identity{UserID: "s1", Role: domain.RoleStudent})
	defer cancel()

	user := "s1"
	for i := 0; i < 20; i++ {
		hub.Deliver(domain.Notification{Title: string(rune('a' + i)), Audience: domain.Audience{ToUser: &user}})
	}
	var last domain.Notification
	for len(ch) > 0 {
		last = <-ch
	}
	if last.Title != string(rune('a'+19)) {
		t.Fatalf("expected the newest notification to survive, got %q", last.Title)
	}
}

func TestHubCancelUnsubscribes(t *testing.T) {
	hub := notify.NewHub()
	_, cancel := hub.Subscribe(domain.Identity{UserID: "s1", Role: domain.RoleStudent})
	if hub.Len() != 1 {
		t.Fatalf("expected 1 subscriber")
	}
	cancel()
	cancel()
	if hub.Len() != 0 {
		t.Fatalf("expected no subscribers after cancel")
	}
}

func TestDispatcherStoresAndPublishes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewNotificationStore()
	hub := notify.NewHub()
	dispatcher := notify.NewDispatcher(store, hub)

	ch, cancel := hub.Subscribe(domain.Identity{UserID: "s1", Role: domain.RoleStudent})
	defer cancel()

	user := "s1"
	if err := dispatcher.Notify(ctx, domain.Notification{Title: "result", Type: domain.NotificationResultPublished, Audience: domain.Audience{ToUser: &user}}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	got := <-ch
	if got.ID == "" || got.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp to be assigned, got %+v", got)
	}

	feed, err := dispatcher.Feed(ctx, domain.Identity{UserID: "s1", Role: domain.RoleStudent}, 10)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(feed) != 1 || feed[0].ID != got.ID {
		t.Fatalf("expected stored notification in feed, got %+v", feed)
	}

	other, _ := dispatcher.Feed(ctx, domain.Identity{UserID: "s2", Role: domain.RoleStudent}, 10)
	if len(other) != 0 {
		t.Fatalf("expected empty feed for another student, got %+v", other)
	}
}

func TestDispatcherRejectsMissingAudience(t *testing.T) {
	dispatcher := notify.NewDispatcher(nil, nil)
	if err := dispatcher.Notify(context.Background(), domain.Notification{Title: "x"}); err == nil {
		t.Fatalf("expected error for notification without audience")
	}
}
