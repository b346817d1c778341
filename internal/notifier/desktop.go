package notifier

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"

	"GradeSentinel/internal/model"
)

// DesktopSink raises a native OS notification (libnotify, Notification
// Center, Windows toast). Delivery does not wait for the user.
type DesktopSink struct {
	notify func(title, body string) error
}

// NewDesktopSink creates a sink backed by the platform notifier.
func NewDesktopSink() *DesktopSink {
	return &DesktopSink{notify: beeepNotify}
}

func (d *DesktopSink) Name() string { return "desktop" }

func (d *DesktopSink) Notify(_ context.Context, n model.Notification) error {
	if err := d.notify(n.Title, n.Body); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}

func beeepNotify(title, body string) error {
	return beeep.Notify(title, body, "")
}
