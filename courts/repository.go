// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package courts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/podsudnost/podsudnost/spatial"
	"github.com/rs/zerolog/log"
	"github.com/uber/h3-go/v4"
)

// h3Resolution is the cell size used to prefilter nearest-court queries
// (edges of roughly 1.2 km).
const h3Resolution = 7

// ringSizes are the successive grid-disk radii tried around the query cell.
var ringSizes = []int{1, 2, 4, 8, 16, 32}

// Repository persists courts in DuckDB, where territories can be queried with
// the spatial extension.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps an open DuckDB connection.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateSchema creates the courts table.
func (r *Repository) CreateSchema() error {
	if _, err := r.db.Exec(`INSTALL spatial; LOAD spatial;`); err != nil {
		return fmt.Errorf("loading spatial extension: %w", err)
	}

	_, err := r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS courts_seq START 1;

		CREATE TABLE IF NOT EXISTS courts (
			id INTEGER PRIMARY KEY DEFAULT nextval('courts_seq'),
			name VARCHAR NOT NULL,
			type VARCHAR NOT NULL,
			code VARCHAR,
			address VARCHAR NOT NULL,
			phone VARCHAR,
			email VARCHAR,
			website VARCHAR,
			point POINT_2D,
			electronic_filing VARCHAR NOT NULL,
			territory TEXT,
			polygon GEOMETRY,
			h3_res7 UBIGINT
		);
	`)
	if err != nil {
		return fmt.Errorf("creating courts table: %w", err)
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ReplaceAll swaps the content of the table with the given records, keeping
// their order.
func (r *Repository) ReplaceAll(ctx context.Context, records []Record) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM courts`); err != nil {
		return fmt.Errorf("clearing courts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO courts(
			name, type, code, address, phone, email, website,
			point, electronic_filing, territory, polygon, h3_res7
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ST_Point(?, ?), ?, ?, ST_GeomFromText(?), ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		rec := &records[i]

		var lng, lat sql.NullFloat64

		var cell sql.NullInt64

		if rec.HasCoordinates() {
			lng = sql.NullFloat64{Float64: rec.Coordinates.Lng, Valid: true}
			lat = sql.NullFloat64{Float64: rec.Coordinates.Lat, Valid: true}

			c, cerr := rec.Coordinates.Cell(h3Resolution)
			if cerr != nil {
				return cerr
			}

			cell = sql.NullInt64{Int64: int64(c), Valid: true}
		}

		var polygon sql.NullString

		poly, perr := spatial.ParsePolygon(rec.Polygon)
		if perr != nil {
			log.Warn().Err(perr).Str("court", rec.Name).Msg("storing court without territory")
		}

		if poly != nil {
			polygon = sql.NullString{String: poly.WKT(), Valid: true}
		}

		category := rec.Category
		if category == "" {
			category = CategoryOfName(rec.Name)
		}

		if _, err = stmt.ExecContext(ctx,
			rec.Name,
			string(category),
			nullString(rec.Code),
			rec.Address,
			nullString(rec.Phone),
			nullString(rec.Email),
			nullString(rec.Website),
			lng,
			lat,
			rec.ElectronicFiling.String(),
			nullString(rec.Territory),
			polygon,
			cell,
		); err != nil {
			return fmt.Errorf("inserting court %q: %w", rec.Name, err)
		}
	}

	return tx.Commit()
}

const selectCourt = `
	SELECT name, type, code, address, phone, email, website,
	       point, electronic_filing, territory, ST_AsText(polygon)
	FROM courts
`

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record

	for rows.Next() {
		var (
			rec                                         Record
			category, filing                            string
			code, phone, email, website, territory, wkt sql.NullString
			point                                       spatial.NullPoint
		)

		if err := rows.Scan(
			&rec.Name,
			&category,
			&code,
			&rec.Address,
			&phone,
			&email,
			&website,
			&point,
			&filing,
			&territory,
			&wkt,
		); err != nil {
			return nil, err
		}

		rec.Category = Category(category)
		rec.Code = code.String
		rec.Phone = phone.String
		rec.Email = email.String
		rec.Website = website.String
		rec.Coordinates = point.Ptr()
		rec.ElectronicFiling = ParseElectronicFiling(filing)
		rec.Territory = territory.String
		rec.Polygon = wkt.String

		records = append(records, rec)
	}

	return records, rows.Err()
}

// LoadAll returns every stored court in insertion order.
func (r *Repository) LoadAll(ctx context.Context) ([]Record, error) {
	records, err := r.query(ctx, selectCourt+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("loading courts: %w", err)
	}

	return records, nil
}

// FindByBoundary returns the first court of the category whose territory
// polygon contains the point.
func (r *Repository) FindByBoundary(ctx context.Context, p spatial.Point, c Category) (*Record, error) {
	records, err := r.query(ctx, selectCourt+`
		WHERE type = ? AND polygon IS NOT NULL AND ST_Within(ST_Point(?, ?), polygon)
		ORDER BY id
		LIMIT 1
	`, string(c), p.Lng, p.Lat)
	if err != nil {
		return nil, fmt.Errorf("finding court by boundary: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	return &records[0], nil
}

func cellList(cells []h3.Cell) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = strconv.FormatUint(uint64(c), 10)
	}

	return strings.Join(parts, ",")
}

// Nearest returns the closest court of the category. Candidates are first
// searched in growing h3 disks around the point; once one is found the disk is
// doubled so that closer courts in neighbouring cells are not missed. Without
// any candidate nearby it falls back to scanning the whole table.
func (r *Repository) Nearest(ctx context.Context, p spatial.Point, c Category) (*Record, error) {
	origin, err := p.Cell(h3Resolution)
	if err != nil {
		return nil, err
	}

	var candidates []Record

	for _, k := range ringSizes {
		if candidates, err = r.inDisk(ctx, origin, k, c); err != nil {
			return nil, err
		}

		if len(candidates) > 0 {
			if candidates, err = r.inDisk(ctx, origin, 2*k, c); err != nil {
				return nil, err
			}

			break
		}
	}

	if len(candidates) == 0 {
		candidates, err = r.query(ctx, selectCourt+`
			WHERE type = ? AND point IS NOT NULL
			ORDER BY id
		`, string(c))
		if err != nil {
			return nil, fmt.Errorf("scanning courts: %w", err)
		}
	}

	best, bestDist := -1, math.Inf(1)

	for i := range candidates {
		if d := p.HaversineDistance(candidates[i].Coordinates); d < bestDist {
			best, bestDist = i, d
		}
	}

	if best < 0 {
		return nil, nil
	}

	return &candidates[best], nil
}

func (r *Repository) inDisk(ctx context.Context, origin h3.Cell, k int, c Category) ([]Record, error) {
	cells, err := h3.GridDisk(origin, k)
	if err != nil {
		return nil, fmt.Errorf("computing h3 disk k=%d: %w", k, err)
	}

	// cell ids are integers, safe to inline
	records, err := r.query(ctx, selectCourt+`
		WHERE type = ? AND point IS NOT NULL AND h3_res7 IN (`+cellList(cells)+`)
		ORDER BY id
	`, string(c))
	if err != nil {
		return nil, fmt.Errorf("querying h3 disk k=%d: %w", k, err)
	}

	return records, nil
}

// Locate finds the court whose territory contains the point and, for courts
// without a known territory, the nearest one.
func (r *Repository) Locate(ctx context.Context, p spatial.Point, c Category) (*Record, error) {
	rec, err := r.FindByBoundary(ctx, p, c)
	if err != nil {
		return nil, err
	}

	if rec != nil {
		log.Debug().Str("court", rec.Name).Msg("court found by territory")

		return rec, nil
	}

	return r.Nearest(ctx, p, c)
}
