//go:build integration
// +build integration

package test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/orlangure/gnomock"
	"github.com/orlangure/gnomock/preset/postgres"
	"github.com/stretchr/testify/require"
)

const (
	ownerUser     = "gnomock"
	ownerPassword = "gnomick"
	readerUser    = "readonly"
	readerPass    = "readonly"
	databaseName  = "mydb"
)

var fixtures = []string{
	`CREATE TABLE sheets (id integer PRIMARY KEY, name text NOT NULL)`,
	`INSERT INTO sheets (id, name) VALUES (1, 'alpha'), (2, 'beta')`,
	fmt.Sprintf(`CREATE ROLE %s LOGIN PASSWORD '%s'`, readerUser, readerPass),
	fmt.Sprintf(`GRANT SELECT ON sheets TO %s`, readerUser),
}

func startPostgres(t *testing.T) *gnomock.Container {
	p := postgres.Preset(
		postgres.WithUser(ownerUser, ownerPassword),
		postgres.WithDatabase(databaseName),
		postgres.WithQueries(fixtures...),
	)

	options := p.Options()
	options = append(options, gnomock.WithRegistryAuth(os.Getenv("QUAY_TOKEN")))
	options = append(options, gnomock.WithUseLocalImagesFirst())
	psql, err := gnomock.StartCustom("quay.io/app-sre/postgres:12.5", p.Ports(),
		options...,
	)
	require.NoError(t, err)

	t.Cleanup(func() { _ = gnomock.Stop(psql) })

	return psql
}

func writeConfig(t *testing.T, psql *gnomock.Container, user, password string) string {
	t.Helper()

	content := fmt.Sprintf(`
database:
  staging:
    driver: pgx
    host: %s
    port: %d
    user: %s
    password: %s
    name: %s
    sslmode: disable
vpn:
  enabled: false
`, psql.Host, psql.DefaultPort(), user, password, databaseName)

	path := filepath.Join(t.TempDir(), "explorer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}
