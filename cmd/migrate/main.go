// Package main 是 admin-panel 的数据库迁移工具，只支持 mysql 驱动。
//
// 用法：
//
//	migrate -action=up
//	migrate -action=down -steps=1
//	migrate -action=version -target=2
//	migrate -action=force -target=1
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/MorseWayne/admin_panel/internal/config"
	"github.com/MorseWayne/admin_panel/internal/database"
	"github.com/MorseWayne/admin_panel/internal/logger"
)

// migrator 由 *database.DB 实现
type migrator interface {
	RunMigrations(dir string) error
	MigrateDown(dir string, steps int) error
	MigrateToVersion(dir string, version uint) error
	ForceMigrationVersion(dir string, version int) error
}

// command 一次迁移操作的参数
type command struct {
	action string
	steps  int
	target int
}

var errUsage = errors.New("usage")

// parseCommand 解析命令行参数，参数组合非法时返回 errUsage
func parseCommand(args []string, output io.Writer) (command, error) {
	var cmd command
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cmd.action, "action", "up", "up, down, version or force")
	fs.IntVar(&cmd.steps, "steps", 1, "number of versions to roll back with -action=down")
	fs.IntVar(&cmd.target, "target", 0, "target version for -action=version or -action=force (-1 clears the version with force)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: migrate -action=[up|down|version|force] [options]\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return cmd, errUsage
	}

	switch cmd.action {
	case "up", "force":
	case "down":
		if cmd.steps < 1 {
			fmt.Fprintln(output, "-steps must be at least 1")
			return cmd, errUsage
		}
	case "version":
		if cmd.target <= 0 {
			fmt.Fprintln(output, "-target must be a positive version")
			return cmd, errUsage
		}
	default:
		fmt.Fprintf(output, "unknown action %q\n", cmd.action)
		fs.Usage()
		return cmd, errUsage
	}
	return cmd, nil
}

// run 执行迁移操作
func run(m migrator, dir string, cmd command, lg *zap.Logger) error {
	lg = lg.With(zap.String("action", cmd.action), zap.String("dir", dir))
	var err error
	switch cmd.action {
	case "up":
		err = m.RunMigrations(dir)
	case "down":
		lg.Info("rolling back migrations", zap.Int("steps", cmd.steps))
		err = m.MigrateDown(dir, cmd.steps)
	case "version":
		err = m.MigrateToVersion(dir, uint(cmd.target))
	case "force":
		lg.Warn("forcing migration version, dirty state will be cleared", zap.Int("target", cmd.target))
		err = m.ForceMigrationVersion(dir, cmd.target)
	default:
		return fmt.Errorf("unknown action %q", cmd.action)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.action, err)
	}
	lg.Info("migration finished")
	return nil
}

func main() {
	cmd, err := parseCommand(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, "migrate", cfg.App.Version)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if cfg.Database.Driver != "mysql" {
		lg.Fatal("migrations require the mysql driver", zap.String("driver", cfg.Database.Driver))
	}

	db, err := database.New(context.Background(), cfg.Database, lg)
	if err != nil {
		lg.Fatal("failed to connect to database", zap.Error(err))
	}

	err = run(db, cfg.Migrations.Dir, cmd, lg)
	if cerr := db.Close(); cerr != nil {
		lg.Error("failed to close database", zap.Error(cerr))
	}
	if err != nil {
		lg.Fatal("migration failed", zap.Error(err))
	}
}
