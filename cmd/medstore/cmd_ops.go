package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/medstore/app/jobs"
	"github.com/shashiranjanraj/medstore/app/services"
	"github.com/shashiranjanraj/medstore/config"
)

var userFlags services.CreateUserInput

// medstore user:create
var userCreateCmd = &cobra.Command{
	Use:   "user:create",
	Short: "Create a staff account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := bootStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close(ctx)

		u, err := services.NewUserService(store).Create(ctx, userFlags)
		if err != nil {
			return err
		}
		fmt.Printf("✅  Created %s (%s) id=%s\n", u.Username, u.Role, u.ID)
		return nil
	},
}

// medstore stock:check
var stockCheckCmd = &cobra.Command{
	Use:   "stock:check",
	Short: "Report low-stock, expired and soon-expiring medicines",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := bootStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close(ctx)

		rep, err := jobs.NewStockWatch(store, config.LowStockThreshold(), config.ExpiryWarningDays()).Scan(ctx)
		if err != nil {
			return err
		}
		printList("Low stock", rep.LowStock)
		printList("Expired", rep.Expired)
		printList("Expiring soon", rep.ExpiringSoon)
		return nil
	},
}

func printList(title string, names []string) {
	if len(names) == 0 {
		fmt.Printf("%s: none\n", title)
		return
	}
	fmt.Printf("%s (%d): %s\n", title, len(names), strings.Join(names, ", "))
}

func init() {
	f := userCreateCmd.Flags()
	f.StringVar(&userFlags.Username, "username", "", "login name (required)")
	f.StringVar(&userFlags.Password, "password", "", "password, at least 6 characters (required)")
	f.StringVar(&userFlags.Role, "role", "employee", "admin or employee")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")
}
