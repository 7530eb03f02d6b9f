// Package dashboard wires the record store, boundary registry and selection
// controller into bootstrapped snapshots and per-user sessions.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"crimewatch/dashboard-go/internal/boundary"
	"crimewatch/dashboard-go/internal/incident"
)

type OptionsSource interface {
	FilterOptions(ctx context.Context) (incident.FilterOptions, error)
}

type AnalyticsSource interface {
	Analytics(ctx context.Context) (incident.Analytics, error)
}

// NoAnalytics serves an empty summary for record sources that have none.
type NoAnalytics struct{}

func (NoAnalytics) Analytics(context.Context) (incident.Analytics, error) {
	return incident.Analytics{TopStations: []incident.StationCount{}}, nil
}

type Deps struct {
	Options   OptionsSource
	Records   incident.Source
	Analytics AnalyticsSource
	// Boundaries may be nil, in which case no boundary is registered.
	Boundaries boundary.Fetcher
	Loader     *boundary.Loader
	Log        zerolog.Logger
}

// Snapshot is one immutable, fully loaded view of the data a session works on.
type Snapshot struct {
	Store      *incident.Store
	Options    incident.FilterOptions
	Analytics  incident.Analytics
	Boundaries *boundary.Registry
	Outline    *boundary.Outline
	// FailedBoundaries lists boundary files that could not be loaded.
	FailedBoundaries []string
	LoadedAt         time.Time
}

// Bootstrap fetches filter options, records and analytics concurrently. If any
// of the three fails nothing is built and the error matches
// incident.ErrDataUnavailable. Boundary files are loaded afterwards; their
// failures never fail the bootstrap.
func Bootstrap(ctx context.Context, deps Deps) (*Snapshot, error) {
	if deps.Options == nil || deps.Records == nil || deps.Analytics == nil {
		return nil, fmt.Errorf("%w: bootstrap sources not configured", incident.ErrDataUnavailable)
	}

	var (
		opts      incident.FilterOptions
		store     *incident.Store
		analytics incident.Analytics
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o, err := deps.Options.FilterOptions(gctx)
		if err != nil {
			return fmt.Errorf("filter options: %w", err)
		}
		opts = o.WithDefaults()
		return nil
	})
	g.Go(func() error {
		s, err := incident.Load(gctx, deps.Records)
		if err != nil {
			return err
		}
		store = s
		return nil
	})
	g.Go(func() error {
		a, err := deps.Analytics.Analytics(gctx)
		if err != nil {
			return fmt.Errorf("analytics: %w", err)
		}
		analytics = a
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, incident.ErrDataUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", incident.ErrDataUnavailable, err)
	}

	snap := &Snapshot{
		Store:      store,
		Options:    opts,
		Analytics:  analytics,
		Boundaries: boundary.NewRegistry(),
		LoadedAt:   time.Now().UTC(),
	}
	if deps.Boundaries != nil {
		loader := deps.Loader
		if loader == nil {
			loader = boundary.NewLoader(deps.Log, boundary.Options{}, nil)
		}
		res := loader.Load(ctx, deps.Boundaries)
		snap.Boundaries = res.Registry
		snap.Outline = res.Outline
		for file := range res.Failed {
			snap.FailedBoundaries = append(snap.FailedBoundaries, file)
		}
		sort.Strings(snap.FailedBoundaries)
	}

	deps.Log.Info().
		Int("records", store.Len()).
		Int("event_types", len(opts.EventTypes)).
		Int("subdivisions", len(opts.Subdivisions)).
		Int("boundaries", snap.Boundaries.Len()).
		Msg("dashboard snapshot loaded")
	return snap, nil
}

// BoundariesGeoJSON marshals every registered subdivision and the outline with
// their resting styles.
func (s *Snapshot) BoundariesGeoJSON() ([]byte, error) {
	return boundary.FeatureCollection(s.Boundaries, s.Outline, nil).MarshalJSON()
}
