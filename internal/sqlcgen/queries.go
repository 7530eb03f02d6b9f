package sqlcgen

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX matches the minimal interface needed from pgxpool.Pool or pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const insertIncident = `-- name: InsertIncident :one
INSERT INTO incidents (
  category,
  event_type,
  subdivision,
  police_station,
  complaint,
  occurred_on,
  latitude,
  longitude
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id
`

type InsertIncidentParams struct {
	Category      string
	EventType     string
	Subdivision   string
	PoliceStation *string
	Complaint     *string
	OccurredOn    *time.Time
	Latitude      float64
	Longitude     float64
}

func (q *Queries) InsertIncident(ctx context.Context, arg InsertIncidentParams) (int64, error) {
	row := q.db.QueryRow(ctx, insertIncident,
		arg.Category,
		arg.EventType,
		arg.Subdivision,
		arg.PoliceStation,
		arg.Complaint,
		arg.OccurredOn,
		arg.Latitude,
		arg.Longitude,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listIncidents = `-- name: ListIncidents :many
SELECT id,
       category,
       event_type,
       subdivision,
       police_station,
       complaint,
       occurred_on,
       latitude,
       longitude
FROM incidents
ORDER BY id
`

func (q *Queries) ListIncidents(ctx context.Context) ([]Incident, error) {
	rows, err := q.db.Query(ctx, listIncidents)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Incident
	for rows.Next() {
		var i Incident
		if err := rows.Scan(
			&i.ID,
			&i.Category,
			&i.EventType,
			&i.Subdivision,
			&i.PoliceStation,
			&i.Complaint,
			&i.OccurredOn,
			&i.Latitude,
			&i.Longitude,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listEventTypes = `-- name: ListEventTypes :many
SELECT DISTINCT event_type
FROM incidents
ORDER BY event_type
`

func (q *Queries) ListEventTypes(ctx context.Context) ([]string, error) {
	return q.listStrings(ctx, listEventTypes)
}

const listSubdivisions = `-- name: ListSubdivisions :many
SELECT DISTINCT subdivision
FROM incidents
ORDER BY subdivision
`

func (q *Queries) ListSubdivisions(ctx context.Context) ([]string, error) {
	return q.listStrings(ctx, listSubdivisions)
}

func (q *Queries) listStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteAllIncidents = `-- name: DeleteAllIncidents :execrows
DELETE FROM incidents
`

func (q *Queries) DeleteAllIncidents(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteAllIncidents)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
