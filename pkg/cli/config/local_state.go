package config

import (
	"log/slog"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/adapter/storage"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// LocalState is the device-local key/value store holding ack records, the
// recipient identity, sound preferences and spam guard history.
type LocalState struct {
	path string
}

func (x *LocalState) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "state-db",
			Usage:       "SQLite file for device-local state; state is kept in memory when empty",
			Category:    "Local State",
			Destination: &x.path,
			Sources:     cli.EnvVars("YUHBLOCKIN_STATE_DB"),
		},
	}
}

func (x LocalState) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", x.path),
	)
}

// Configure opens the store. The closer is always safe to call.
func (x *LocalState) Configure() (interfaces.KVStore, func(), error) {
	if x.path == "" {
		logging.Default().Warn("local state is not persisted (--state-db is empty)")
		return storage.NewMemory(), func() {}, nil
	}

	db, err := storage.NewSQLite(x.path)
	if err != nil {
		return nil, func() {}, err
	}
	return db, func() {
		if err := db.Close(); err != nil {
			logging.Default().Warn("failed to close local state", logging.ErrAttr(err))
		}
	}, nil
}

func (x LocalState) Args() []string {
	if x.path == "" {
		return nil
	}
	return []string{"--state-db", x.path}
}
