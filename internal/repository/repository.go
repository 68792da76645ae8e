package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/UnknownOlympus/clusterview/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MaxLocateAttempts is how often a member address is sent to a geocoder before it is given up on.
const MaxLocateAttempts = 5

// ErrGroupNotFound is returned when no cluster group with the requested name exists.
var ErrGroupNotFound = errors.New("cluster group not found")

// Database is the subset of pgxpool.Pool the repository needs.
type Database interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository struct {
	db  Database
	log *slog.Logger
}

// Interface is a source of cluster groups and their members.
type Interface interface {
	FetchGroup(ctx context.Context, name string) (models.GroupRecord, error)
	FetchMembers(ctx context.Context, groupID int) ([]models.MemberSeed, error)
	UpdateMemberLocation(ctx context.Context, memberID string, location models.GeoPoint) error
	IncrementLocateFailure(ctx context.Context, memberID string, errMsg string) error
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}
