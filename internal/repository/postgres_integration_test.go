//go:build integration

package repository_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/clusterview/internal/models"
	"github.com/UnknownOlympus/clusterview/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const schema = `
	CREATE TABLE cluster_groups (
		group_id SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		anchor_latitude DOUBLE PRECISION NOT NULL,
		anchor_longitude DOUBLE PRECISION NOT NULL
	);

	CREATE TABLE cluster_members (
		member_id TEXT PRIMARY KEY,
		group_id INTEGER NOT NULL REFERENCES cluster_groups (group_id),
		position INTEGER NOT NULL,
		label TEXT NOT NULL,
		address TEXT,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		locate_attempts INTEGER NOT NULL DEFAULT 0,
		locate_error TEXT
	);

	INSERT INTO cluster_groups (name, anchor_latitude, anchor_longitude)
	VALUES ('benelux', 51.502615, 4.972326);

	INSERT INTO cluster_members (member_id, group_id, position, label, address, latitude, longitude)
	VALUES
		('brussel', 1, 1, 'Brussel', NULL, 50.861592, 4.359965),
		('utrecht', 1, 2, 'Utrecht', 'Domplein, Utrecht', NULL, NULL),
		('maastricht', 1, 3, 'Maastricht', NULL, NULL, NULL);
`

func startPostgres(t *testing.T) *repository.Repository {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("clusterview"),
		postgres.WithUsername("clusterview"),
		postgres.WithPassword("clusterview"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	pool, err := repository.NewDatabase(host, port.Port(), "clusterview", "clusterview", "clusterview")
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, schema)
	require.NoError(t, err)

	return repository.NewRepository(pool, slog.Default())
}

func TestRepository_Postgres(t *testing.T) {
	repo := startPostgres(t)
	ctx := t.Context()

	group, err := repo.FetchGroup(ctx, "benelux")
	require.NoError(t, err)
	assert.Equal(t, "benelux", group.Name)

	_, err = repo.FetchGroup(ctx, "nowhere")
	require.ErrorIs(t, err, repository.ErrGroupNotFound)

	members, err := repo.FetchMembers(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, []string{"brussel", "utrecht", "maastricht"},
		[]string{members[0].ID, members[1].ID, members[2].ID})
	assert.Equal(t, "Domplein, Utrecht", members[1].Locator())
	assert.Equal(t, "Maastricht", members[2].Locator())

	utrecht := models.GeoPoint{Latitude: 52.090432, Longitude: 5.122310}
	require.NoError(t, repo.UpdateMemberLocation(ctx, "utrecht", utrecht))

	for range repository.MaxLocateAttempts {
		require.NoError(t, repo.IncrementLocateFailure(ctx, "maastricht", "no results"))
	}

	members, err = repo.FetchMembers(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.NotNil(t, members[1].Location)
	assert.InDelta(t, utrecht.Latitude, members[1].Location.Latitude, 1e-9)
}
