package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/sanosuguru/sportup/internal/config"
	"github.com/sanosuguru/sportup/internal/infrastructure/jwtauth"
)

func newTokenCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "開発用トークンの操作（AUTH_MODE=jwt）",
	}

	var name, email string
	issue := &cobra.Command{
		Use:   "issue <uid>",
		Short: "ベアラートークンを発行する",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Auth.Mode != config.AuthJWT {
				return errors.New("token issue は AUTH_MODE=jwt の場合のみ使用できます")
			}
			auth, err := jwtauth.New(c.cfg.Auth.JWTSecret, c.cfg.Auth.JWTIssuer, c.cfg.Auth.JWTTTL)
			if err != nil {
				return err
			}
			token, err := auth.Issue(args[0], name, email)
			if err != nil {
				return err
			}
			cmd.Println(token)
			return nil
		},
	}
	issue.Flags().StringVar(&name, "name", "", "表示名クレーム")
	issue.Flags().StringVar(&email, "email", "", "メールアドレスクレーム")

	cmd.AddCommand(issue)
	return cmd
}
