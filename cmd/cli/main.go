package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/horizonetudes/authclient/cmd/cli/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Login          commands.LoginCmd          `cmd:"" help:"Log in to the account API"`
		Register       commands.RegisterCmd       `cmd:"" help:"Create an account"`
		Whoami         commands.WhoamiCmd         `cmd:"" help:"Show the current session"`
		Watch          commands.WatchCmd          `cmd:"" help:"Hold a session open and log refreshes"`
		Logout         commands.LogoutCmd         `cmd:"" help:"End the current session"`
		LogoutAll      commands.LogoutAllCmd      `cmd:"" name:"logout-all" help:"Invalidate all sessions (admin)"`
		ForgotPassword commands.ForgotPasswordCmd `cmd:"" name:"forgot-password" help:"Request a password reset email"`
		ResetPassword  commands.ResetPasswordCmd  `cmd:"" name:"reset-password" help:"Set a new password with a reset token"`
		Debug          bool                       `help:"Enable debug mode."`
		Version        kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
