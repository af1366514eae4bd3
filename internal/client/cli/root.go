package cli

import (
	"context"
	"fmt"
)

// Run resolves the stored session, starts the connectivity watcher and
// serves commands until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Fprintln(a.out, "Welcome to authboot (type 'help' for commands)")

	sub := a.session.Subscribe(a.onStateChange)
	defer sub.Unsubscribe()

	a.session.Start(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}
