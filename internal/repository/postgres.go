package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/UnknownOlympus/clusterview/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// FetchGroup retrieves the cluster group with the given name together with its anchor.
// It returns ErrGroupNotFound when there is no such group and an error wrapping
// models.ErrInvalidCoordinate when the stored anchor is out of range.
func (r *Repository) FetchGroup(ctx context.Context, name string) (models.GroupRecord, error) {
	var (
		group    models.GroupRecord
		lat, lon float64
	)
	query := `
		SELECT group_id, name, anchor_latitude, anchor_longitude
		FROM public.cluster_groups
		WHERE name = $1;
	`

	err := r.db.QueryRow(ctx, query, name).Scan(&group.ID, &group.Name, &lat, &lon)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.GroupRecord{}, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}
	if err != nil {
		return models.GroupRecord{}, fmt.Errorf("failed to query cluster group: %w", err)
	}

	if group.Anchor, err = models.NewGeoPoint(lat, lon); err != nil {
		return models.GroupRecord{}, fmt.Errorf("failed to read anchor of group %s: %w", name, err)
	}

	return group, nil
}

// FetchMembers retrieves the members of a group in display order.
// Members without coordinates are only returned while they have fewer than
// MaxLocateAttempts failed geocoding attempts.
//
// Parameters:
// - ctx: The context for the operation, allowing for cancellation and timeout.
// - groupID: The group whose members are loaded.
//
// Returns:
// - A slice of models.MemberSeed, Location is nil for members that still need geocoding.
// - An error if the query fails, a row cannot be scanned or a stored location is invalid.
func (r *Repository) FetchMembers(ctx context.Context, groupID int) ([]models.MemberSeed, error) {
	var members []models.MemberSeed
	query := `
		SELECT member_id, label, address, latitude, longitude
		FROM public.cluster_members
		WHERE
			group_id = $1
			AND (latitude IS NOT NULL OR locate_attempts < $2)
		ORDER BY position ASC;
	`

	rows, err := r.db.Query(ctx, query, groupID, MaxLocateAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to query cluster members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			member   models.MemberSeed
			address  pgtype.Text
			lat, lon pgtype.Float8
		)
		if errScan := rows.Scan(&member.ID, &member.Label, &address, &lat, &lon); errScan != nil {
			return nil, fmt.Errorf("failed to scan cluster member: %w", errScan)
		}

		member.Address = address.String

		if lat.Valid && lon.Valid {
			location, errLoc := models.NewGeoPoint(lat.Float64, lon.Float64)
			if errLoc != nil {
				return nil, fmt.Errorf("failed to read location of member %s: %w", member.ID, errLoc)
			}
			member.Location = &location
		}

		r.log.DebugContext(ctx, "Cluster member loaded.",
			"ID", member.ID, "Label", member.Label, "located", member.Location != nil)
		members = append(members, member)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return members, nil
}

// UpdateMemberLocation stores the geocoded location of a member and clears its last error.
func (r *Repository) UpdateMemberLocation(ctx context.Context, memberID string, location models.GeoPoint) error {
	query := `
		UPDATE cluster_members
		SET
			latitude = $1,
			longitude = $2,
			locate_error = NULL
		WHERE
			member_id = $3;
	`

	_, err := r.db.Exec(ctx, query, location.Latitude, location.Longitude, memberID)
	if err != nil {
		return fmt.Errorf("failed to update member location: %w", err)
	}

	return nil
}

// IncrementLocateFailure increments the geocoding attempt count of a member and records
// the error message of the failed attempt.
func (r *Repository) IncrementLocateFailure(ctx context.Context, memberID string, errMsg string) error {
	query := `
		UPDATE cluster_members
		SET
			locate_attempts = locate_attempts + 1,
			locate_error = $1
		WHERE member_id = $2;
	`

	_, err := r.db.Exec(ctx, query, errMsg, memberID)
	if err != nil {
		return fmt.Errorf("failed to update locate error and number of attempts: %w", err)
	}

	return nil
}
