package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"
)

// WatchCmd logs in and holds the session open in the foreground, printing
// each scheduled refresh, until the session ceiling is reached or the
// process is interrupted.
type WatchCmd struct {
	connectionFlags
	Email    string        `arg:"" help:"Account email"`
	Password string        `help:"Account password" env:"HORIZON_PASSWORD" required:""`
	Interval time.Duration `help:"Status print interval" default:"30s"`
}

func (w *WatchCmd) Run(ctx context.Context, globals *Globals) error {
	mgr, err := w.manager(globals)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	expired := make(chan string, 1)
	mgr.OnSessionExpired(func(reason string) {
		select {
		case expired <- reason:
		default:
		}
	})

	user, _, err := mgr.Login(ctx, w.Email, w.Password)
	if err != nil {
		return describeLoginError(err)
	}
	fmt.Printf("Holding session for %s, Ctrl-C to stop\n", user.Email)

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := mgr.CheckAuth(ctx); err != nil {
				fmt.Printf("check failed: %v\n", err)
			}
			if next := mgr.NextRefreshAt(); !next.IsZero() {
				fmt.Printf("session ok, next refresh %s\n", next.Format("15:04:05"))
			}
		case reason := <-expired:
			fmt.Printf("session ended: %s\n", reason)
			return nil
		case <-ctx.Done():
			fmt.Println("stopping, logging out")
			return mgr.Logout(context.Background())
		}
	}
}
