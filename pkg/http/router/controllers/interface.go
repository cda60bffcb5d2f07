package controllers

import (
	"context"

	"github.com/ceylontrails/tripplanner/pkg/geo"
	"github.com/ceylontrails/tripplanner/pkg/http/usecases"
	"github.com/ceylontrails/tripplanner/pkg/trip"
)

type PlannerService interface {
	CreateSession() *usecases.SessionView
	Session(sessionID string) (*usecases.SessionView, error)
	SetStart(ctx context.Context, sessionID, name string, coord geo.Coordinate) (*usecases.SessionView, error)
	GeocodeFreeText(sessionID, text string) (*usecases.SessionView, error)
	ConfirmCandidate(sessionID string) (*usecases.SessionView, error)
	SelectPlace(sessionID, placeID string) (*usecases.SessionView, error)
	BeginEndEntry(sessionID string) (*usecases.SessionView, error)
	CancelEndEntry(sessionID string) (*usecases.SessionView, error)
	ConfirmStartOnly(sessionID string) (*usecases.SessionView, error)
	ResumeWaypointEntry(sessionID string) (*usecases.SessionView, error)
	RemovePoint(sessionID, pointID string) (*usecases.SessionView, error)
	SelectVehicle(sessionID, vehicleID string) (*usecases.SessionView, error)
	Nearby(sessionID string) ([]usecases.NearbyPlace, error)
	Vehicles() []trip.Vehicle
	Places() []trip.CatalogPlace
	SetNotifier(n usecases.Notifier)
}
