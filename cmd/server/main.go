package main

import (
	"context"
	"flag"
	"time"

	"github.com/ceylontrails/tripplanner/pkg"
	"github.com/ceylontrails/tripplanner/pkg/catalog"
	"github.com/ceylontrails/tripplanner/pkg/directions"
	"github.com/ceylontrails/tripplanner/pkg/http"
	"github.com/ceylontrails/tripplanner/pkg/http/usecases"
	"github.com/ceylontrails/tripplanner/pkg/logger"
	"github.com/ceylontrails/tripplanner/pkg/spatialindex"
	"github.com/ceylontrails/tripplanner/pkg/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	useRateLimit = flag.Bool("use_rate_limit", false, "rate limit the planner API per client ip")
)

func main() {
	flag.Parse()
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}

	if err := util.ReadConfig(); err != nil {
		panic(err)
	}

	viper.SetDefault("CONTENT_API_URL", "http://localhost:7070")
	viper.SetDefault("CONTENT_API_TIMEOUT", "10s")
	viper.SetDefault("ROUTING_API_URL", "https://maps.googleapis.com/maps/api")
	viper.SetDefault("ROUTING_API_TIMEOUT", "10s")

	ctx, cleanup, err := NewContext()
	if err != nil {
		panic(err)
	}

	contentClient := catalog.NewClient(viper.GetString("CONTENT_API_URL"),
		viper.GetDuration("CONTENT_API_TIMEOUT"), logger)
	snapshot, err := contentClient.Load(ctx)
	if err != nil {
		panic(err)
	}

	rtree := spatialindex.NewRtree()
	rtree.Build(snapshot.Places, logger)

	area := directions.NewServiceArea(pkg.SERVICE_AREA_MIN_LAT, pkg.SERVICE_AREA_MIN_LON,
		pkg.SERVICE_AREA_MAX_LAT, pkg.SERVICE_AREA_MAX_LON)
	gateway := directions.NewClient(viper.GetString("ROUTING_API_URL"), viper.GetString("ROUTING_API_KEY"),
		pkg.COUNTRY_RESTRICTION, area, viper.GetDuration("ROUTING_API_TIMEOUT"), logger)

	api := http.NewServer(logger)

	plannerService := usecases.NewPlannerService(logger, gateway, rtree, snapshot,
		pkg.GEOCODE_DEBOUNCE_MS*time.Millisecond, pkg.PROXIMITY_RADIUS_KM, pkg.MAX_NEARBY_PLACES)

	api.Use(ctx,
		logger, *useRateLimit, plannerService)

	signal := http.GracefulShutdown()

	logger.Info("CeylonTrails Trip Planner Server Stopped", zap.String("signal", signal.String()))
	cleanup()
}

func NewContext() (context.Context, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	cb := func() {
		cancel()
	}

	return ctx, cb, nil
}
