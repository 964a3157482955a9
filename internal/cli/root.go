package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yungbote/lingua-progress-backend/internal/app"
	"github.com/yungbote/lingua-progress-backend/internal/data/db"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
)

// Execute runs progressctl with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree. Flags fall back to the server's environment variables.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "progressctl",
		Short:         "Maintenance commands for the learner progress service",
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.String("db-driver", db.DriverPostgres, "Database driver: postgres or sqlite (DB_DRIVER)")
	pf.String("dsn", "", "Database DSN or sqlite file path (DATABASE_URL); empty uses POSTGRES_* / SQLITE_PATH")
	pf.String("log-mode", "development", "Logger mode: development, production or test (LOG_MODE)")
	pf.String("jwt-secret", "defaultsecret", "HMAC secret for minted tokens (JWT_SECRET_KEY)")

	for name, env := range map[string]string{
		"db-driver":  "DB_DRIVER",
		"dsn":        "DATABASE_URL",
		"log-mode":   "LOG_MODE",
		"jwt-secret": "JWT_SECRET_KEY",
	} {
		_ = v.BindPFlag(name, pf.Lookup(name))
		_ = v.BindEnv(name, env)
	}

	root.AddCommand(
		newMigrateCmd(v),
		newRecomputeCmd(v),
		newPruneCmd(v),
		newUnitsCmd(v),
		newAssignCmd(v),
		newTokenCmd(v),
	)
	return root
}

// runtime is what a command needs to touch the store.
type runtime struct {
	log *logger.Logger
	svc *db.Service
	app *app.App
}

func (r *runtime) Close() {
	if r == nil {
		return
	}
	if r.app != nil {
		r.app.Close()
	}
	if r.svc != nil {
		_ = r.svc.Close()
	}
	if r.log != nil {
		r.log.Sync()
	}
}

func newLogger(v *viper.Viper) (*logger.Logger, error) {
	return logger.New(v.GetString("log-mode"))
}

func openStore(v *viper.Viper, log *logger.Logger) (*db.Service, error) {
	driver := strings.ToLower(strings.TrimSpace(v.GetString("db-driver")))
	dsn := strings.TrimSpace(v.GetString("dsn"))
	if dsn == "" {
		if driver == db.DriverSQLite {
			dsn = "progress.db"
		} else {
			return db.NewService(log)
		}
	}
	return db.Open(log, driver, dsn)
}

// open connects, migrates and, when withApp is set, wires the service graph.
func open(v *viper.Viper, withApp bool) (*runtime, error) {
	log, err := newLogger(v)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	rt := &runtime{log: log}
	rt.svc, err = openStore(v, log)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := rt.svc.AutoMigrateAll(); err != nil {
		rt.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	if withApp {
		rt.app, err = app.Build(app.Config{
			JWTSecretKey: v.GetString("jwt-secret"),
		}, app.Deps{Log: log, DB: rt.svc.DB()})
		if err != nil {
			rt.Close()
			return nil, err
		}
	}
	return rt, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
