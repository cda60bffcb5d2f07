package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ceylontrails/tripplanner/pkg/geo"
	helper "github.com/ceylontrails/tripplanner/pkg/http/router/routerhelper"
	"github.com/ceylontrails/tripplanner/pkg/http/usecases"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

type plannerAPI struct {
	plannerService PlannerService
	log            *zap.Logger
}

func New(plannerService PlannerService, log *zap.Logger) *plannerAPI {
	return &plannerAPI{
		plannerService: plannerService,
		log:            log,
	}
}

func (api *plannerAPI) Routes(group *helper.RouteGroup) {
	group.POST("/sessions", api.createSession)
	group.GET("/sessions/:id", api.getSession)
	group.POST("/sessions/:id/start", api.setStart)
	group.POST("/sessions/:id/geocode", api.geocode)
	group.POST("/sessions/:id/points", api.addPoint)
	group.DELETE("/sessions/:id/points/:pointID", api.removePoint)
	group.POST("/sessions/:id/end-entry", api.beginEndEntry)
	group.DELETE("/sessions/:id/end-entry", api.cancelEndEntry)
	group.POST("/sessions/:id/confirm", api.confirmStartOnly)
	group.POST("/sessions/:id/resume", api.resumeWaypointEntry)
	group.PUT("/sessions/:id/vehicle", api.selectVehicle)
	group.GET("/sessions/:id/nearby", api.nearby)
	group.GET("/vehicles", api.vehicles)
	group.GET("/places", api.places)
}

// createSession godoc
//
//	@Summary		create a new trip planning session
//	@Tags			sessions
//	@Produce		json
//	@Success		201	{object}	sessionResponse
//	@Router			/sessions [post]
func (api *plannerAPI) createSession(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	view := api.plannerService.CreateSession()

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusCreated, envelope{"data": NewSessionResponse(view)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *plannerAPI) getSession(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	view, err := api.plannerService.Session(p.ByName("id"))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSessionResponse(view)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

// setStart godoc
//
//	@Summary		confirm the trip start location from map coordinates
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"session id"
//	@Param			body	body		setStartRequest	true	"start location"
//	@Success		200		{object}	sessionResponse
//	@Router			/sessions/{id}/start [post]
func (api *plannerAPI) setStart(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var (
		request setStartRequest
		err     error
	)
	err = api.readJSON(w, r, &request)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	validate := validator.New()
	if err := validate.Struct(request); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		vvString := []string{}
		for _, v := range vv {
			vvString = append(vvString, v.Error())
		}
		api.BadRequestResponse(w, r, fmt.Errorf("validation error: %v", vvString))
		return
	}

	view, err := api.plannerService.SetStart(r.Context(), p.ByName("id"), request.Name,
		geo.NewCoordinate(request.Lat, request.Lon))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSessionResponse(view)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

// geocode godoc
//
//	@Summary		geocode free text typed into the location field
//	@Description	the lookup is debounced; the resolved candidate is pushed over the session websocket and also readable via GET /sessions/{id}
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"session id"
//	@Param			body	body		geocodeRequest	true	"free text location"
//	@Success		202		{object}	sessionResponse
//	@Router			/sessions/{id}/geocode [post]
func (api *plannerAPI) geocode(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var (
		request geocodeRequest
		err     error
	)
	err = api.readJSON(w, r, &request)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	validate := validator.New()
	if err := validate.Struct(request); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		vvString := []string{}
		for _, v := range vv {
			vvString = append(vvString, v.Error())
		}
		api.BadRequestResponse(w, r, fmt.Errorf("validation error: %v", vvString))
		return
	}

	view, err := api.plannerService.GeocodeFreeText(p.ByName("id"), request.Text)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusAccepted, envelope{"data": NewSessionResponse(view)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

// addPoint confirms the pending geocoded candidate, or selects a catalog
// place when place_id is set. The point role follows the session state.
//
//	@Summary		add the next point to the trip sequence
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"session id"
//	@Param			body	body		selectPlaceRequest	true	"empty body confirms the pending candidate"
//	@Success		200		{object}	sessionResponse
//	@Router			/sessions/{id}/points [post]
func (api *plannerAPI) addPoint(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var (
		request selectPlaceRequest
		view    *usecases.SessionView
		err     error
	)
	// an empty body is a valid request: it confirms the pending candidate
	err = api.readJSON(w, r, &request)
	if err != nil && !errors.Is(err, io.EOF) {
		api.BadRequestResponse(w, r, err)
		return
	}

	if request.PlaceID != "" {
		view, err = api.plannerService.SelectPlace(p.ByName("id"), request.PlaceID)
	} else {
		view, err = api.plannerService.ConfirmCandidate(p.ByName("id"))
	}
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSessionResponse(view)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *plannerAPI) removePoint(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	view, err := api.plannerService.RemovePoint(p.ByName("id"), p.ByName("pointID"))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSessionResponse(view)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *plannerAPI) beginEndEntry(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	view, err := api.plannerService.BeginEndEntry(p.ByName("id"))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSessionResponse(view)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *plannerAPI) cancelEndEntry(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	view, err := api.plannerService.CancelEndEntry(p.ByName("id"))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSessionResponse(view)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *plannerAPI) confirmStartOnly(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	view, err := api.plannerService.ConfirmStartOnly(p.ByName("id"))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSessionResponse(view)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *plannerAPI) resumeWaypointEntry(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	view, err := api.plannerService.ResumeWaypointEntry(p.ByName("id"))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSessionResponse(view)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

// selectVehicle godoc
//
//	@Summary		select the trip vehicle and recompute the cost totals
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"session id"
//	@Param			body	body		selectVehicleRequest	true	"vehicle selection"
//	@Success		200		{object}	sessionResponse
//	@Router			/sessions/{id}/vehicle [put]
func (api *plannerAPI) selectVehicle(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var (
		request selectVehicleRequest
		err     error
	)
	err = api.readJSON(w, r, &request)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	validate := validator.New()
	if err := validate.Struct(request); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		vvString := []string{}
		for _, v := range vv {
			vvString = append(vvString, v.Error())
		}
		api.BadRequestResponse(w, r, fmt.Errorf("validation error: %v", vvString))
		return
	}

	view, err := api.plannerService.SelectVehicle(p.ByName("id"), request.VehicleID)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSessionResponse(view)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *plannerAPI) nearby(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	nearby, err := api.plannerService.Nearby(p.ByName("id"))
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewNearbyPlaceResponse(nearby)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *plannerAPI) vehicles(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": api.plannerService.Vehicles()}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *plannerAPI) places(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": api.plannerService.Places()}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}
