package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"sori/internal/config"
	"sori/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventSyncCompleted, notifications.Payload{"copied": "3"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "sync completed",
			event: notifications.EventSyncCompleted,
			payload: notifications.Payload{
				"copied":    "3",
				"generated": "7",
				"removed":   "1",
				"elapsed":   "12s",
			},
			expectTitle:   "Sori - Sync Complete",
			expectMessage: "Audio store synced: 3 copied, 7 generated, 1 removed in 12s",
			expectTags:    "sori,sync,completed",
		},
		{
			name:  "sync completed with failures",
			event: notifications.EventSyncCompleted,
			payload: notifications.Payload{
				"copied":    "0",
				"generated": "5",
				"removed":   "0",
				"failed":    "2",
				"elapsed":   "30s",
			},
			expectTitle:    "Sori - Sync Complete (with failures)",
			expectMessage:  "Audio store synced: 0 copied, 5 generated, 0 removed in 30s, 2 failed",
			expectTags:     "sori,sync,completed",
			expectPriority: "high",
		},
		{
			name:  "merge completed",
			event: notifications.EventMergeCompleted,
			payload: notifications.Payload{
				"fetched":    "18",
				"configured": "19",
				"skipped":    "1",
			},
			expectTitle:   "Sori - Merge Complete",
			expectMessage: "Vocabulary merged: 18 of 19 repositories (1 skipped)",
			expectTags:    "sori,merge,completed",
		},
		{
			name:  "error",
			event: notifications.EventError,
			payload: notifications.Payload{
				"context": "sync",
				"error":   "store locked",
			},
			expectTitle:    "Sori - Error",
			expectMessage:  "Error with sync: store locked",
			expectTags:     "sori,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			payload:        nil,
			expectTitle:    "Sori - Test",
			expectMessage:  "Notification system test",
			expectTags:     "sori,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonorsEventSwitches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for disabled event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Sync = false
	cfg.Notifications.Merge = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	for _, event := range []notifications.Event{
		notifications.EventSyncCompleted,
		notifications.EventMergeCompleted,
		notifications.EventError,
	} {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"value": "ignored"}); err != nil {
			t.Fatalf("expected no error for disabled event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	err := svc.Publish(context.Background(), notifications.EventTest, nil)
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
