// campusctl 是运维命令行：迁移、灌数据、账号角色管理
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campusconnect/internal/core/config"
	"campusconnect/internal/core/database"
	"campusconnect/internal/core/logger"
	"campusconnect/internal/domain"
	"campusconnect/internal/repo"
	"campusconnect/internal/seed"
)

var (
	configPath string

	fakePosts int
	fakeSeed  int64

	adminName     string
	adminEmail    string
	adminPassword string
)

var rootCmd = &cobra.Command{
	Use:           "campusctl",
	Short:         "CampusConnect maintenance tool",
	Long:          "campusctl runs schema migrations, seeds sample data and manages privileged accounts against the configured database.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
			if err := repo.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("migrate done")
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the sample accounts, posts and comments",
	Long:  "seed is safe to re-run: existing accounts are kept and the sample posts are only written into an empty forum. --fake adds generated posts on every run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if fakePosts < 0 {
			return fmt.Errorf("--fake must not be negative")
		}
		return withDB(cmd.Context(), func(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
			if err := repo.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			s := seed.New(seed.Store{
				Users:    repo.NewUserRepo(db),
				Posts:    repo.NewPostRepo(db),
				Comments: repo.NewCommentRepo(db),
			}, log)
			res, err := s.Run(ctx, seed.Options{Fake: fakePosts, FakeSeed: fakeSeed})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d users, %d posts, %d comments\n", res.Users, res.Posts, res.Comments)
			return nil
		})
	},
}

var setRoleCmd = &cobra.Command{
	Use:   "set-role <email> <Admin|Faculty|Student>",
	Short: "Change the role of an existing account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
			u, err := seed.SetRole(ctx, repo.NewUserRepo(db), args[0], domain.Role(args[1]))
			if err != nil {
				return err
			}
			log.Info("role updated", zap.String("uid", u.ID), zap.String("role", string(u.Role)))
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, u.Role)
			return nil
		})
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an Admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
			u, err := seed.CreateAdmin(ctx, repo.NewUserRepo(db), adminName, adminEmail, adminPassword)
			if err != nil {
				return err
			}
			log.Info("admin created", zap.String("uid", u.ID))
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", u.Email, u.ID)
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $CONFIG_PATH or ./configs/config.local.yaml)")

	seedCmd.Flags().IntVar(&fakePosts, "fake", 0, "number of generated posts to add")
	seedCmd.Flags().Int64Var(&fakeSeed, "fake-seed", 0, "random seed for generated posts (0 = random)")

	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrator", "display name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "login email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "login password (min 6 chars)")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(migrateCmd, seedCmd, setRoleCmd, createAdminCmd)
}

// withDB 打开配置里的库，跑完 fn 后关闭
func withDB(ctx context.Context, fn func(context.Context, *gorm.DB, *zap.Logger) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	db, err := openDB(cfg, log)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer func() { _ = database.Close(db) }()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, db, log)
}

func openDB(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	return database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		SlowThresholdMs:    cfg.DB.SlowThresholdMs,
	}, l)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "campusctl:", err)
		os.Exit(1)
	}
}
