// migrate aplica las migraciones embebidas sobre PostgreSQL.
//
// Uso: go run ./cmd/migrate [up|down|status|version|redo] [args...]
// Por defecto ejecuta "up". Lee DB_* / DATABASE_URL igual que la API.
package main

import (
	"context"
	"os"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jhoicas/fishstock-api/internal/infrastructure/postgres"
	"github.com/jhoicas/fishstock-api/pkg/config"
	"github.com/jhoicas/fishstock-api/pkg/logger"
	"github.com/jhoicas/fishstock-api/pkg/migrate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: cfg.App.Name}).Component("migrate")

	command := "up"
	var args []string
	if len(os.Args) > 1 {
		command = os.Args[1]
		args = os.Args[2:]
	}

	if err := run(cfg.DB, command, args); err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("migración fallida")
	}
	log.Info().Str("command", command).Msg("migración completada")
}

func run(dbCfg config.DBConfig, command string, args []string) error {
	if err := migrate.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return migrate.Run(ctx, db, command, args...)
}
