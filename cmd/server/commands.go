package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/repairhub/internal/repository"
	"github.com/iliyamo/repairhub/internal/service"
	"github.com/iliyamo/repairhub/internal/storage"
)

func migrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := e.openDB(cmd.Context())
			if err != nil {
				return err
			}
			return db.Close()
		},
	}
}

func seedCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-task-types [name...]",
		Short: "Insert task types that do not exist yet",
		Long:  "Insert the given task type names, or a default catalogue when none are given. Existing names are skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = defaultTaskTypes
			}
			db, err := e.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			n, err := repository.NewTaskTypeRepo(db).Seed(cmd.Context(), names)
			if err != nil {
				return err
			}
			e.log.Info("seeded task types", zap.Int("inserted", n), zap.Int("requested", len(names)))
			return nil
		},
	}
}

func createAdminCmd(e *env) *cobra.Command {
	var username, fullName, email string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a back-office admin account",
		Long:  "Create an admin. The password is read from ADMIN_PASSWORD so it stays out of shell history.",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("ADMIN_PASSWORD")
			if strings.TrimSpace(password) == "" {
				return fmt.Errorf("ADMIN_PASSWORD must be set")
			}
			db, err := e.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			accounts := service.NewAccountService(service.SQLStores(db), nil, storage.NewDiskStore(e.cfg.UploadDir), e.cfg.BcryptCost)
			a, err := accounts.CreateAdmin(cmd.Context(), username, fullName, email, password)
			if err != nil {
				return err
			}
			e.log.Info("created admin", zap.String("username", a.Username), zap.Uint64("id", a.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "admin login name")
	cmd.Flags().StringVar(&fullName, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "contact email")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
