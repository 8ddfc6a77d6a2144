package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sanosuguru/sportup/internal/application"
	"github.com/sanosuguru/sportup/internal/domain/identity"
	"github.com/sanosuguru/sportup/internal/domain/profile"
	"github.com/sanosuguru/sportup/internal/pkg/logger"
)

func newAdminCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "ユーザーロールの管理",
	}

	var role string
	grant := &cobra.Command{
		Use:   "grant <uid>",
		Short: "ユーザーにロールを付与する",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfileService(cmd.Context(), c, func(svc *application.ProfileService) error {
				p, err := svc.GrantRole(cmd.Context(), args[0], identity.Role(role))
				if err != nil {
					return err
				}
				printRoles(cmd, p)
				return nil
			})
		},
	}
	grant.Flags().StringVar(&role, "role", string(identity.RoleAdmin), "付与するロール")

	var revokeRole string
	revoke := &cobra.Command{
		Use:   "revoke <uid>",
		Short: "ユーザーからロールを剥奪する",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfileService(cmd.Context(), c, func(svc *application.ProfileService) error {
				p, err := svc.RevokeRole(cmd.Context(), args[0], identity.Role(revokeRole))
				if err != nil {
					return err
				}
				printRoles(cmd, p)
				return nil
			})
		},
	}
	revoke.Flags().StringVar(&revokeRole, "role", string(identity.RoleAdmin), "剥奪するロール")

	cmd.AddCommand(grant, revoke)
	return cmd
}

func withProfileService(ctx context.Context, c *cli, fn func(*application.ProfileService) error) error {
	a, err := buildApp(ctx, c.cfg, false)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("接続のクローズに失敗しました", zap.Error(err))
		}
	}()
	return fn(a.profileService())
}

func printRoles(cmd *cobra.Command, p *profile.UserProfile) {
	cmd.Printf("%s: %v\n", p.UID, p.Roles)
}
