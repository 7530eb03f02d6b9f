package db

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"crimewatch/dashboard-go/internal/incident"
	"crimewatch/dashboard-go/internal/sqlcgen"
)

//go:embed schema.sql
var schema string

type Pool struct {
	pool *pgxpool.Pool
}

func Open(ctx context.Context, databaseURL string) (*Pool, error) {
	p, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	// Verify connectivity early.
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, err
	}

	return &Pool{pool: p}, nil
}

func (p *Pool) Close() {
	if p == nil || p.pool == nil {
		return
	}
	p.pool.Close()
}

func (p *Pool) Ping(ctx context.Context) error {
	if p == nil || p.pool == nil {
		return nil
	}
	return p.pool.Ping(ctx)
}

func (p *Pool) Queries() *sqlcgen.Queries {
	return sqlcgen.New(p.pool)
}

// EnsureSchema creates the incidents table when it does not exist yet.
func (p *Pool) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// ListIncidents implements incident.Source over the incidents table.
func (p *Pool) ListIncidents(ctx context.Context) ([]incident.Record, error) {
	rows, err := p.Queries().ListIncidents(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]incident.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, ToRecord(r))
	}
	return out, nil
}

// FilterOptions lists the distinct event types and subdivisions on record.
func (p *Pool) FilterOptions(ctx context.Context) (incident.FilterOptions, error) {
	q := p.Queries()
	eventTypes, err := q.ListEventTypes(ctx)
	if err != nil {
		return incident.FilterOptions{}, fmt.Errorf("list event types: %w", err)
	}
	subdivisions, err := q.ListSubdivisions(ctx)
	if err != nil {
		return incident.FilterOptions{}, fmt.Errorf("list subdivisions: %w", err)
	}
	return incident.FilterOptions{EventTypes: eventTypes, Subdivisions: subdivisions}.WithDefaults(), nil
}

func ToRecord(row sqlcgen.Incident) incident.Record {
	r := incident.Record{
		Category:    row.Category,
		EventType:   row.EventType,
		Subdivision: row.Subdivision,
		Complaint:   row.Complaint,
		Latitude:    row.Latitude,
		Longitude:   row.Longitude,
	}
	if row.PoliceStation != nil {
		r.PoliceStation = *row.PoliceStation
	}
	if row.OccurredOn != nil {
		r.Date = row.OccurredOn.Format("2006-01-02")
	}
	return r
}
