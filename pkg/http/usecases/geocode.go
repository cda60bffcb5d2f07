package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/ceylontrails/tripplanner/pkg/trip"
	"github.com/ceylontrails/tripplanner/pkg/util"
	"go.uber.org/zap"
)

// GeocodeFreeText schedules a debounced forward geocode of user input. Rapid
// typing issues at most one outstanding request per quiet period: every call
// resets the timer and bumps the generation counter, so an earlier in-flight
// lookup can no longer apply its result. A response is also discarded when
// the session has left the mode it was issued in.
func (ps *PlannerService) GeocodeFreeText(sessionID, text string) (*SessionView, error) {
	s, err := ps.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.seq.State()
	if state == trip.COMPLETE {
		return nil, util.WrapErrorf(nil, util.ErrConflict, "resume waypoint entry before searching for a location")
	}

	s.geocodeGen++
	gen := s.geocodeGen

	if s.geocodeTimer != nil {
		s.geocodeTimer.Stop()
	}
	s.geocodeTimer = time.AfterFunc(ps.debounce, func() {
		ps.lookupCandidate(s, gen, state, text)
	})

	return s.view(), nil
}

func (ps *PlannerService) lookupCandidate(s *Session, gen uint64, issuedState trip.State, text string) {
	s.mu.Lock()
	if s.geocodeGen != gen || s.seq.State() != issuedState {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), providerTimeout)
	defer cancel()

	result, err := ps.gateway.Geocode(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()

	// latest request wins; a stale response never overwrites newer state
	if s.geocodeGen != gen || s.seq.State() != issuedState {
		return
	}

	if err != nil {
		s.candidate = nil
		s.candidateMessage = geocodeFailureMessage(err, text)
		ps.log.Debug("geocode failed", zap.String("session", s.id),
			zap.String("text", text), zap.Error(err))
		ps.notify(s)
		return
	}

	s.candidate = &Candidate{
		Name:       text,
		Address:    result.FormattedAddress,
		Coordinate: result.Coordinate,
	}
	s.candidateMessage = ""
	ps.notify(s)
}

func geocodeFailureMessage(err error, text string) string {
	var serviceErr *util.Error
	if errors.As(err, &serviceErr) {
		switch {
		case errors.Is(serviceErr.Code(), util.ErrOutOfServiceArea):
			return "that location is outside the area we currently serve"
		case errors.Is(serviceErr.Code(), util.ErrRoutingUnavailable):
			return "location search is temporarily unavailable, try again in a moment"
		}
	}
	return "we could not find \"" + text + "\", try a different spelling"
}
