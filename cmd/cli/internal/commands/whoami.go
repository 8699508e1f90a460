package commands

import (
	"context"
	"fmt"
)

type WhoamiCmd struct {
	connectionFlags
}

func (w *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	mgr, err := w.manager(globals)
	if err != nil {
		return err
	}

	if err := mgr.Start(ctx); err != nil {
		return err
	}

	if !mgr.IsAuthenticated() {
		fmt.Println("Not logged in")
		return nil
	}

	user := mgr.User()
	fmt.Printf("%s %s <%s>\n", user.FirstName, user.LastName, user.Email)
	fmt.Printf("Role: %s  Active: %t\n", user.Role, user.IsActive)
	if next := mgr.NextRefreshAt(); !next.IsZero() {
		fmt.Printf("Next token refresh: %s\n", next.Format("15:04:05"))
	}
	return nil
}
