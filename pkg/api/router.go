package api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/urmzd/growbox/pkg/api/handlers"
	"github.com/urmzd/growbox/pkg/camera"
	"github.com/urmzd/growbox/pkg/climate"
	"github.com/urmzd/growbox/pkg/dashboard"
	"github.com/urmzd/growbox/pkg/db"
	"github.com/urmzd/growbox/pkg/device"
	"github.com/urmzd/growbox/pkg/settings"
)

// Deps are the collaborators of the data API.
type Deps struct {
	DB           *db.DB
	Controller   device.Controller
	Commander    device.Commander
	Events       device.EventSubscriber
	Outlets      handlers.OutletSwitcher
	Monitor      handlers.HealthReporter
	Thermal      handlers.ThermalReader
	Validator    *settings.Validator
	Session      *dashboard.Session
	FridgeDevice string
	StaticDir    string

	RebootUser   string
	RebootHash   string
	RebootCmd    []string
	RebootRunner handlers.CommandRunner
}

// Router holds the Gin engine and dependencies
type Router struct {
	engine *gin.Engine
	deps   Deps
}

// NewRouter creates the data API router. A nil Commander rejects every
// command; nil Outlets binds no outlet to a climate controller.
func NewRouter(deps Deps) *Router {
	if deps.Commander == nil {
		null := device.NewNullCommander()
		deps.Commander = null
		if deps.Events == nil {
			deps.Events = null
		}
	}
	if deps.Events == nil {
		deps.Events = device.NewNullCommander()
	}
	if deps.Outlets == nil {
		deps.Outlets = climate.NewController(climate.Config{}, deps.Commander, nil, nil)
	}

	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	SetupMiddleware(engine)

	router := &Router{
		engine: engine,
		deps:   deps,
	}

	router.setupRoutes()

	return router
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	d := r.deps

	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	serveStatic(r.engine, d.StaticDir)

	healthHandler := handlers.NewHealthHandler(d.Controller, d.Monitor, d.DB.HealthIssues())
	r.engine.GET("/health", healthHandler.Health)
	r.engine.GET("/health/errors", healthHandler.Errors)

	zigbeeHandler := handlers.NewZigbeeHandler(d.Controller, d.FridgeDevice)
	r.engine.GET("/zigbee/state", zigbeeHandler.State)
	r.engine.GET("/zigbee/devices", zigbeeHandler.Devices)
	r.engine.GET("/fridge_state", zigbeeHandler.FridgeState)

	controlHandler := handlers.NewControlHandler(d.Commander, d.Outlets)
	r.engine.POST("/light/control", controlHandler.LightControl)
	r.engine.POST("/zigbee/devices/:id/state", controlHandler.SetState)
	r.engine.POST("/zigbee/devices/:id/toggle", controlHandler.Toggle)

	discoveryHandler := handlers.NewDiscoveryHandler(d.Commander, d.Events)
	discovery := r.engine.Group("/discovery")
	{
		discovery.POST("/start", discoveryHandler.StartDiscovery)
		discovery.POST("/stop", discoveryHandler.StopDiscovery)
		discovery.GET("/events", discoveryHandler.Events)
	}

	dataHandler := handlers.NewDataHandler(d.DB.Measurements(), d.Thermal)
	data := r.engine.Group("/data")
	{
		data.GET("", dataHandler.History)
		data.GET("/now", dataHandler.Now)
		data.GET("/rpi-temperature", dataHandler.CPUTemperature)
	}

	settingsHandler := handlers.NewSettingsHandler(d.DB.Profiles(), d.DB.Settings(), d.Validator)
	r.engine.GET("/config", settingsHandler.Get)
	r.engine.POST("/config", settingsHandler.Put)
	r.engine.POST("/set-light-times", settingsHandler.SetLightTimes)

	rebootHandler := handlers.NewRebootHandler(d.RebootUser, d.RebootHash, d.RebootCmd, d.RebootRunner)
	r.engine.POST("/reboot", rebootHandler.Reboot)

	v1 := r.engine.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Health)
		v1.GET("/outlets", controlHandler.Outlets)

		if d.Session != nil {
			dashboardHandler := handlers.NewDashboardHandler(d.Session)
			dash := v1.Group("/dashboard")
			{
				dash.GET("", dashboardHandler.Get)
				dash.GET("/events", dashboardHandler.Events)
				dash.GET("/groups", dashboardHandler.Groups)
				dash.POST("/tab", dashboardHandler.SelectTab)
				dash.POST("/toggles/:name", dashboardHandler.SetToggle)
				dash.POST("/span", dashboardHandler.SetSpan)
			}
		}
	}
}

// Handler returns the router as an http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// NewCameraRouter creates the camera relay's router: the live frame stream,
// the latest still and the viewer page.
func NewCameraRouter(frames handlers.FrameSource, hub *camera.Hub, staticDir string) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	SetupMiddleware(engine)

	cameraHandler := handlers.NewCameraHandler(frames, hub)
	engine.GET("/ws", cameraHandler.Stream)
	engine.GET("/snapshot.jpg", cameraHandler.Snapshot)
	serveStatic(engine, staticDir)

	return &Router{engine: engine}
}

func serveStatic(engine *gin.Engine, dir string) {
	if dir == "" {
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return
	}
	engine.Static("/static", dir)
}
