package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/riskibarqy/career-coach/internal/app"
	"github.com/spf13/cobra"
)

var (
	dbURL         string
	migrationsDir string
)

var rootCmd = &cobra.Command{
	Use:           "migration",
	Short:         "Apply and inspect career-coach database migrations",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrator(func(m *migrate.Migrate, source string) error {
			if err := ignoreNoChange(cmd, m.Up()); err != nil {
				return err
			}
			cmd.Printf("migrations applied (source=%s)\n", source)
			return nil
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back the given number of migrations (default 1)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := parseSteps(args)
		if err != nil {
			return err
		}
		return withMigrator(func(m *migrate.Migrate, _ string) error {
			if err := ignoreNoChange(cmd, m.Steps(-steps)); err != nil {
				return err
			}
			cmd.Printf("rolled back %d migration(s)\n", steps)
			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrator(func(m *migrate.Migrate, _ string) error {
			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				cmd.Println("version: none")
				cmd.Println("dirty: false")
				return nil
			}
			if err != nil {
				return fmt.Errorf("read version: %w", err)
			}
			cmd.Printf("version: %d\n", version)
			cmd.Printf("dirty: %t\n", dirty)
			return nil
		})
	},
}

var forceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Set the schema version without running migrations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := parseVersion(args[0])
		if err != nil {
			return err
		}
		return withMigrator(func(m *migrate.Migrate, _ string) error {
			if err := m.Force(version); err != nil {
				return fmt.Errorf("force version %d: %w", version, err)
			}
			cmd.Printf("forced version to %d\n", version)
			return nil
		})
	},
}

var gotoCmd = &cobra.Command{
	Use:     "goto <version>",
	Aliases: []string{"migrate"},
	Short:   "Migrate up or down to the given version",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := parseTarget(args[0])
		if err != nil {
			return err
		}
		return withMigrator(func(m *migrate.Migrate, _ string) error {
			if err := ignoreNoChange(cmd, m.Migrate(target)); err != nil {
				return err
			}
			cmd.Printf("migrated to version %d\n", target)
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database URL (defaults to DB_URL)")
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "", "migrations directory (defaults to MIGRATIONS_DIR or ./db/migrations)")
	rootCmd.AddCommand(upCmd, downCmd, versionCmd, forceCmd, gotoCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func withMigrator(fn func(m *migrate.Migrate, source string) error) error {
	target := strings.TrimSpace(dbURL)
	if target == "" {
		target = strings.TrimSpace(os.Getenv("DB_URL"))
	}
	if target == "" {
		return fmt.Errorf("DB_URL is required")
	}

	dir, err := resolveMigrationsDir(migrationsDir)
	if err != nil {
		return err
	}

	source := "file://" + filepath.ToSlash(dir)
	m, err := migrate.New(source, app.NormalizeDBURL(target))
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			fmt.Fprintf(os.Stderr, "close migration source: %v\n", srcErr)
		}
		if dbErr != nil {
			fmt.Fprintf(os.Stderr, "close migration db: %v\n", dbErr)
		}
	}()

	return fn(m, source)
}

func ignoreNoChange(cmd *cobra.Command, err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		cmd.Println("no migration changes")
		return nil
	}
	return err
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}

	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, fmt.Errorf("down steps must be > 0")
	}

	return steps, nil
}

func parseVersion(raw string) (int, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("version must be >= 0")
	}
	if value > int64(^uint(0)>>1) {
		return 0, fmt.Errorf("version is too large for this platform")
	}

	return int(value), nil
}

func parseTarget(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", raw, err)
	}
	return uint(value), nil
}

func resolveMigrationsDir(flagValue string) (string, error) {
	candidates := []string{
		strings.TrimSpace(flagValue),
		strings.TrimSpace(os.Getenv("MIGRATIONS_DIR")),
		"./db/migrations",
		"/app/db/migrations",
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}
		return abs, nil
	}

	return "", fmt.Errorf("migration directory not found (checked --dir, MIGRATIONS_DIR, ./db/migrations, /app/db/migrations)")
}
