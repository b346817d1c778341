package notifier

import (
	"context"
	"fmt"
	"io"
	"os"

	"GradeSentinel/internal/model"
)

// ConsoleSink prints notifications to a writer, stdout by default.
type ConsoleSink struct {
	Out io.Writer
}

func NewConsoleSink(out io.Writer) *ConsoleSink {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleSink{Out: out}
}

func (c *ConsoleSink) Name() string { return "console" }

func (c *ConsoleSink) Notify(_ context.Context, n model.Notification) error {
	_, err := fmt.Fprintf(c.Out, "🔔 %s\n%s\n\n", n.Title, n.Body)
	return err
}
