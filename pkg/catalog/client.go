package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ceylontrails/tripplanner/pkg/trip"
	"github.com/ceylontrails/tripplanner/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	placesEndpoint     = "/api/places"
	parametersEndpoint = "/api/trip-parameters"
	vehiclesEndpoint   = "/api/vehicles"
)

// Client reads the place catalog, trip parameters and vehicle list from the
// content API. The collections are fetched once per process and consumed
// read-only.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Snapshot is the read-only session data: no component mutates it.
type Snapshot struct {
	Places     []trip.CatalogPlace
	Parameters trip.Parameters
	Vehicles   []trip.Vehicle

	placesByID   map[string]trip.CatalogPlace
	vehiclesByID map[string]trip.Vehicle
}

func NewSnapshot(places []trip.CatalogPlace, params trip.Parameters, vehicles []trip.Vehicle) *Snapshot {
	s := &Snapshot{
		Places:     places,
		Parameters: params,
		Vehicles:   vehicles,
	}
	s.index()
	return s
}

func (s *Snapshot) index() {
	s.placesByID = make(map[string]trip.CatalogPlace, len(s.Places))
	for _, p := range s.Places {
		s.placesByID[p.ID] = p
	}
	s.vehiclesByID = make(map[string]trip.Vehicle, len(s.Vehicles))
	for _, v := range s.Vehicles {
		s.vehiclesByID[v.ID] = v
	}
}

func (s *Snapshot) PlaceByID(id string) (trip.CatalogPlace, bool) {
	p, ok := s.placesByID[id]
	return p, ok
}

func (s *Snapshot) VehicleByID(id string) (trip.Vehicle, bool) {
	v, ok := s.vehiclesByID[id]
	return v, ok
}

// Load fetches the three collections concurrently and indexes them by id.
func (c *Client) Load(ctx context.Context) (*Snapshot, error) {
	snapshot := &Snapshot{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.fetch(gctx, placesEndpoint, &snapshot.Places)
	})
	g.Go(func() error {
		return c.fetch(gctx, parametersEndpoint, &snapshot.Parameters)
	})
	g.Go(func() error {
		return c.fetch(gctx, vehiclesEndpoint, &snapshot.Vehicles)
	})
	if err := g.Wait(); err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "failed to load catalog")
	}

	snapshot.index()

	c.log.Info("catalog loaded",
		zap.Int("places", len(snapshot.Places)),
		zap.Int("vehicles", len(snapshot.Vehicles)))
	return snapshot, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: content api returned http %d", endpoint, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
