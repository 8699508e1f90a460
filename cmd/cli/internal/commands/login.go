package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/horizonetudes/authclient/internal/api"
)

type LoginCmd struct {
	connectionFlags
	Email    string `arg:"" help:"Account email"`
	Password string `help:"Account password" env:"HORIZON_PASSWORD" required:""`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	mgr, err := l.manager(globals)
	if err != nil {
		return err
	}

	user, redirect, err := mgr.Login(ctx, l.Email, l.Password)
	if err != nil {
		return describeLoginError(err)
	}

	fmt.Printf("Logged in as %s %s (%s)\n", user.FirstName, user.LastName, user.Email)
	fmt.Printf("Next stop: %s\n", redirect)
	return nil
}

// describeLoginError turns the classified login errors into operator-facing
// messages; unknown errors pass through.
func describeLoginError(err error) error {
	var locked *api.AccountLockedError
	switch {
	case errors.Is(err, api.ErrInvalidCredentials):
		return fmt.Errorf("email or password incorrect")
	case errors.Is(err, api.ErrPasswordResetRequired):
		return fmt.Errorf("a password reset is required before logging in (use forgot-password)")
	case errors.Is(err, api.ErrAccountDisabled):
		return fmt.Errorf("this account has been deactivated, contact support")
	case errors.As(err, &locked):
		return fmt.Errorf("account temporarily locked, try again in %s", locked.RetryAfter)
	case errors.Is(err, api.ErrMaintenance):
		return fmt.Errorf("the service is under maintenance, try again later")
	case api.IsNetworkError(err):
		return fmt.Errorf("could not reach the server, check your connection")
	}
	return err
}
