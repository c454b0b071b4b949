package api

import (
	"context"
	"fmt"
	"strings"

	"sori/internal/config"
	"sori/internal/notifications"
	"sori/internal/services"
)

// TestNotification publishes a test event so operators can verify their
// ntfy topic end to end.
func TestNotification(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is required")
	}
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return services.Wrap(services.ErrConfiguration, "notify", "configure",
			"notifications.ntfy_topic is not set", nil)
	}
	return notifications.NewService(cfg).Publish(ctx, notifications.EventTest, nil)
}
