package commands

import (
	"context"
	"fmt"
)

type ForgotPasswordCmd struct {
	connectionFlags
	Email string `arg:"" help:"Account email"`
}

func (f *ForgotPasswordCmd) Run(ctx context.Context, globals *Globals) error {
	mgr, err := f.manager(globals)
	if err != nil {
		return err
	}

	if err := mgr.ForgotPassword(ctx, f.Email); err != nil {
		return err
	}

	// The server answers identically whether or not the account exists.
	fmt.Println("If an account exists for that address, a reset email is on its way")
	return nil
}

type ResetPasswordCmd struct {
	connectionFlags
	Token       string `arg:"" help:"Reset token from the email"`
	NewPassword string `help:"New password" env:"HORIZON_NEW_PASSWORD" required:""`
}

func (r *ResetPasswordCmd) Run(ctx context.Context, globals *Globals) error {
	mgr, err := r.manager(globals)
	if err != nil {
		return err
	}

	if err := mgr.ResetPassword(ctx, r.Token, r.NewPassword); err != nil {
		return err
	}

	fmt.Println("Password updated, you can log in with it now")
	return nil
}
