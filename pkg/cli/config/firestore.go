package config

import (
	"context"
	"log/slog"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Firestore is the shared alert store both parties talk to.
type Firestore struct {
	projectID  string
	databaseID string
}

func (c *Firestore) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore project ID of the alert store",
			Destination: &c.projectID,
			Category:    "Firestore",
			Sources:     cli.EnvVars("YUHBLOCKIN_FIRESTORE_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore database ID",
			Destination: &c.databaseID,
			Category:    "Firestore",
			Sources:     cli.EnvVars("YUHBLOCKIN_FIRESTORE_DATABASE_ID"),
			Value:       "(default)",
		},
	}
}

func (c Firestore) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("project_id", c.projectID),
		slog.String("database_id", c.databaseID),
	)
}

func (c *Firestore) IsConfigured() bool {
	return c.projectID != ""
}

func (c *Firestore) Configure(ctx context.Context) (*repository.Firestore, error) {
	if !c.IsConfigured() {
		return nil, goerr.New("firestore project ID is required (--firestore-project-id)")
	}
	return repository.NewFirestore(ctx, c.projectID, c.databaseID)
}

// Args renders the flags again for a spawned background process.
func (c Firestore) Args() []string {
	if !c.IsConfigured() {
		return nil
	}
	return []string{
		"--firestore-project-id", c.projectID,
		"--firestore-database-id", c.databaseID,
	}
}
