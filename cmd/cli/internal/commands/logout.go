package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/horizonetudes/authclient/internal/api"
)

type LogoutCmd struct {
	connectionFlags
}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	mgr, err := l.manager(globals)
	if err != nil {
		return err
	}

	if err := mgr.Start(ctx); err != nil {
		return err
	}

	if err := mgr.Logout(ctx); err != nil {
		return err
	}

	fmt.Println("Logged out")
	return nil
}

type LogoutAllCmd struct {
	connectionFlags
}

func (l *LogoutAllCmd) Run(ctx context.Context, globals *Globals) error {
	mgr, err := l.manager(globals)
	if err != nil {
		return err
	}

	if err := mgr.Start(ctx); err != nil {
		return err
	}

	stats, err := mgr.LogoutAll(ctx)
	if err != nil {
		if errors.Is(err, api.ErrPermissionDenied) {
			return fmt.Errorf("logout-all requires the admin role")
		}
		return err
	}

	fmt.Printf("Revoked %d sessions across %d users\n", stats.SessionsRevoked, stats.UsersAffected)

	// Server-side invalidation does not replace local cleanup.
	return mgr.Logout(ctx)
}
