package cli

import (
	"context"
	"fmt"

	"github.com/honhon-app/honhon-cli/internal/ctxlog"
	"github.com/honhon-app/honhon-cli/internal/form"
)

// navigator routes form destinations to the views that render them
type navigator struct {
	routes  map[form.Destination]func(ctx context.Context) error
	history []form.Destination
}

var _ form.Navigator = (*navigator)(nil)

func newNavigator() *navigator {
	return &navigator{routes: make(map[form.Destination]func(ctx context.Context) error)}
}

// Handle registers the view for a destination
func (n *navigator) Handle(dest form.Destination, view func(ctx context.Context) error) {
	n.routes[dest] = view
}

// Navigate shows the view registered for dest
func (n *navigator) Navigate(ctx context.Context, dest form.Destination) error {
	view, ok := n.routes[dest]
	if !ok {
		return fmt.Errorf("no view registered for %q", dest)
	}
	ctxlog.FromContext(ctx).Debug("navigating", "destination", string(dest))
	n.history = append(n.history, dest)
	return view(ctx)
}

// History returns the destinations visited so far
func (n *navigator) History() []form.Destination {
	return append([]form.Destination(nil), n.history...)
}
