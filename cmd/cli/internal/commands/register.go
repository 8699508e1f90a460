package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/horizonetudes/authclient/internal/api"
)

type RegisterCmd struct {
	connectionFlags
	Email     string `arg:"" help:"Account email"`
	Password  string `help:"Account password" env:"HORIZON_PASSWORD" required:""`
	FirstName string `help:"First name" required:""`
	LastName  string `help:"Last name" required:""`
	Telephone string `help:"Telephone number"`
}

func (r *RegisterCmd) Run(ctx context.Context, globals *Globals) error {
	mgr, err := r.manager(globals)
	if err != nil {
		return err
	}

	user, redirect, err := mgr.Register(ctx, api.Registration{
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Telephone: r.Telephone,
	})
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
			fmt.Println("Registration rejected:")
			for field, msg := range apiErr.Fields {
				fmt.Printf("  %s: %s\n", field, msg)
			}
			return fmt.Errorf("registration failed")
		}
		return err
	}

	fmt.Printf("Account created for %s %s (%s)\n", user.FirstName, user.LastName, user.Email)
	fmt.Printf("Next stop: %s\n", redirect)
	return nil
}
