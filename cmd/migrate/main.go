package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	appconfig "github.com/wolfman30/idseva-booking/internal/config"
	"github.com/wolfman30/idseva-booking/internal/database"
	"github.com/wolfman30/idseva-booking/pkg/logging"
)

func main() {
	appconfig.LoadDotEnv()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	databaseURL := strings.TrimSpace(cfg.DatabaseURL)
	if databaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	if err := db.Ping(); err != nil {
		logger.Error("ping db", "error", err)
		os.Exit(1)
	}

	m, err := database.NewMigrator(db)
	if err != nil {
		logger.Error("create migrator", "error", err)
		os.Exit(1)
	}
	defer func() { _, _ = m.Close() }()

	cmd := "up"
	if len(os.Args) >= 2 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		if err := database.MigrateUp(m); err != nil {
			logger.Error("migrate up", "error", err)
			os.Exit(1)
		}
	case "down":
		// /bin/migrate down <steps>
		steps := 1
		if len(os.Args) >= 3 {
			if steps, err = strconv.Atoi(os.Args[2]); err != nil || steps <= 0 {
				logger.Error("invalid step count", "value", os.Args[2])
				os.Exit(1)
			}
		}
		if err := m.Steps(-steps); err != nil {
			logger.Error("migrate down", "error", err)
			os.Exit(1)
		}
	case "force":
		// /bin/migrate force <version>
		if len(os.Args) < 3 {
			logger.Error("usage: migrate force <version>")
			os.Exit(1)
		}
		version, err := strconv.Atoi(os.Args[2])
		if err != nil {
			logger.Error("invalid version", "error", err)
			os.Exit(1)
		}
		if err := m.Force(version); err != nil {
			logger.Error("force version", "error", err)
			os.Exit(1)
		}
		fmt.Printf("forced version to %d\n", version)
		return
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			logger.Error("read version", "error", err)
			os.Exit(1)
		}
		fmt.Printf("version %d (dirty=%t)\n", version, dirty)
		return
	default:
		logger.Error("unknown command", "command", cmd)
		os.Exit(2)
	}

	fmt.Println("migrations complete")
}
