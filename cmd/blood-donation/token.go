package main

import (
	"errors"
	"fmt"

	"github.com/bissquit/blood-donation/internal/config"
	"github.com/bissquit/blood-donation/internal/identity/jwt"
	"github.com/urfave/cli/v2"
)

var tokenCommand = &cli.Command{
	Name:  "token",
	Usage: "Issue an access token for local testing (hmac auth mode only)",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "email",
			Usage:    "Email the token is issued for",
			Required: true,
		},
	},
	Action: issueToken,
}

func issueToken(cCtx *cli.Context) error {
	cfg, err := loadConfig(cCtx)
	if err != nil {
		return err
	}
	if cfg.Auth.Mode != config.AuthModeHMAC {
		return errors.New("tokens can only be issued in hmac auth mode")
	}

	authenticator, err := jwt.NewAuthenticator(jwt.Config{
		SecretKey:           cfg.Auth.HMACSecret,
		Issuer:              cfg.Auth.Issuer,
		Audience:            cfg.Auth.Audience,
		AccessTokenDuration: cfg.Auth.TokenTTL,
	})
	if err != nil {
		return err
	}

	token, err := authenticator.IssueToken(cCtx.String("email"))
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	fmt.Fprintln(cCtx.App.Writer, token)
	return nil
}
