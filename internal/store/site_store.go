package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sitewise/chatrelay/internal/errs"
	"github.com/sitewise/chatrelay/internal/models"
)

// CreateSite persists a new site record, assigning created_at at write
// time, and returns the stored record.
func (s *Store) CreateSite(ctx context.Context, site models.Site) (models.Site, error) {
	now := time.Now().UTC()
	var constraints sql.NullString
	if site.ActiveConstraintsJSON != nil {
		constraints = sql.NullString{String: *site.ActiveConstraintsJSON, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sites (site_id, name, timezone, active_constraints_json, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		site.SiteID, site.Name, site.Timezone, constraints, now.Format(timeLayout),
	)
	if err != nil {
		s.log.Error("site create failed", "site_id", site.SiteID, "err", err)
		return models.Site{}, &errs.StoreError{Op: "create", EntityID: site.SiteID, Err: err}
	}
	site.CreatedAt = now
	return site, nil
}

// GetSiteByID fetches one site record, returning errs.ErrSiteNotFound when
// no record exists for the id.
func (s *Store) GetSiteByID(ctx context.Context, siteID string) (models.Site, error) {
	var (
		site        models.Site
		constraints sql.NullString
		createdAt   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT site_id, name, timezone, active_constraints_json, created_at
		FROM sites
		WHERE site_id = ?`,
		siteID,
	).Scan(&site.SiteID, &site.Name, &site.Timezone, &constraints, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Site{}, errs.ErrSiteNotFound
	}
	if err != nil {
		s.log.Error("site fetch failed", "site_id", siteID, "err", err)
		return models.Site{}, &errs.StoreError{Op: "getById", EntityID: siteID, Err: err}
	}
	if constraints.Valid {
		site.ActiveConstraintsJSON = &constraints.String
	}
	if site.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return models.Site{}, &errs.StoreError{Op: "getById", EntityID: siteID, Err: err}
	}
	return site, nil
}
