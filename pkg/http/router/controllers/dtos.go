package controllers

import (
	"github.com/ceylontrails/tripplanner/pkg/geo"
	"github.com/ceylontrails/tripplanner/pkg/http/usecases"
	"github.com/ceylontrails/tripplanner/pkg/trip"
)

type setStartRequest struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lon  float64 `json:"lon" validate:"required,min=-180,max=180"`
}

type geocodeRequest struct {
	Text string `json:"text" validate:"required"`
}

type selectPlaceRequest struct {
	PlaceID string `json:"place_id"`
}

type selectVehicleRequest struct {
	VehicleID string `json:"vehicle_id" validate:"required"`
}

type subscribeRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

type pointResponse struct {
	ID                          string         `json:"id"`
	Role                        string         `json:"role"`
	Name                        string         `json:"name"`
	Address                     string         `json:"address,omitempty"`
	Coordinate                  geo.Coordinate `json:"coordinate"`
	CatalogRef                  string         `json:"catalog_ref,omitempty"`
	StayDurationMinutes         float64        `json:"stay_duration_minutes"`
	StayCostAmount              float64        `json:"stay_cost_amount"`
	DistanceFromPreviousKm      *float64       `json:"distance_from_previous_km,omitempty"`
	DurationFromPreviousMinutes *float64       `json:"duration_from_previous_minutes,omitempty"`
	TotalCostAtPoint            *float64       `json:"total_cost_at_point,omitempty"`
}

func NewPointResponse(p trip.Point) pointResponse {
	resp := pointResponse{
		ID:                  p.GetID(),
		Role:                p.GetRole().String(),
		Name:                p.GetName(),
		Address:             p.GetAddress(),
		Coordinate:          p.GetCoordinate(),
		CatalogRef:          p.GetCatalogRef(),
		StayDurationMinutes: p.GetStayDurationMinutes(),
		StayCostAmount:      p.GetStayCostAmount(),
	}
	if dist, ok := p.GetDistanceFromPreviousKm(); ok {
		resp.DistanceFromPreviousKm = &dist
	}
	if dur, ok := p.GetDurationFromPreviousMinutes(); ok {
		resp.DurationFromPreviousMinutes = &dur
	}
	if cost, ok := p.GetTotalCostAtPoint(); ok {
		resp.TotalCostAtPoint = &cost
	}
	return resp
}

type nearbyPlaceResponse struct {
	Place      trip.CatalogPlace `json:"place"`
	DistanceKm float64           `json:"distance_km"`
}

func NewNearbyPlaceResponse(nearby []usecases.NearbyPlace) []nearbyPlaceResponse {
	resp := make([]nearbyPlaceResponse, 0, len(nearby))
	for _, n := range nearby {
		resp = append(resp, nearbyPlaceResponse{Place: n.Place, DistanceKm: n.DistanceKm})
	}
	return resp
}

type sessionResponse struct {
	ID            string                `json:"id"`
	State         string                `json:"state"`
	Points        []pointResponse       `json:"points"`
	Vehicle       *trip.Vehicle         `json:"vehicle,omitempty"`
	Totals        *trip.Totals          `json:"totals,omitempty"`
	Nearby        []nearbyPlaceResponse `json:"nearby,omitempty"`
	Candidate     *usecases.Candidate   `json:"candidate,omitempty"`
	Message       string                `json:"message,omitempty"`
	RoutePolyline string                `json:"route_polyline,omitempty"`
}

func NewSessionResponse(view *usecases.SessionView) sessionResponse {
	resp := sessionResponse{
		ID:            view.ID,
		State:         view.State.String(),
		Points:        make([]pointResponse, 0, len(view.Points)),
		Vehicle:       view.Vehicle,
		Totals:        view.Totals,
		Candidate:     view.Candidate,
		Message:       view.Message,
		RoutePolyline: view.RoutePolyline,
	}
	for _, p := range view.Points {
		resp.Points = append(resp.Points, NewPointResponse(p))
	}
	if len(view.Nearby) > 0 {
		resp.Nearby = NewNearbyPlaceResponse(view.Nearby)
	}
	return resp
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
