package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/growbox/pkg/api"
	"github.com/urmzd/growbox/pkg/climate"
	"github.com/urmzd/growbox/pkg/config"
	"github.com/urmzd/growbox/pkg/dashboard"
	"github.com/urmzd/growbox/pkg/db"
	"github.com/urmzd/growbox/pkg/device"
	"github.com/urmzd/growbox/pkg/health"
	"github.com/urmzd/growbox/pkg/sensor"
	"github.com/urmzd/growbox/pkg/settings"
	"github.com/urmzd/growbox/pkg/sysinfo"
	"github.com/urmzd/growbox/pkg/taskgroup"
	"github.com/urmzd/growbox/pkg/uploader"
	"golang.org/x/sync/errgroup"

	_ "github.com/urmzd/growbox/docs"
)

// @title           Growbox API
// @version         1.0
// @description     Sensor data, zigbee state, settings and dashboard control for the grow box

// @host      localhost:5000
// @BasePath  /
// @schemes   http

// @securityDefinitions.basic  BasicAuth

func main() {
	// Configure logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Parse flags
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/growbox/config.yaml)")
	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/growbox/growbox.db)")
	noDashboard := flag.Bool("no-dashboard", false, "Do not start the dashboard session")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open database
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	log.Info().Str("path", database.Path()).Msg("Database opened")

	if err := database.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Bootstrap if needed (first run)
	needsBootstrap, err := database.NeedsBootstrap(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to check bootstrap status")
	}
	if needsBootstrap {
		log.Info().Msg("First run detected, bootstrapping database...")
		if err := database.Bootstrap(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to bootstrap database")
		}
		log.Info().Msg("Database bootstrapped successfully")
	}

	active, err := database.ActiveConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load profile")
	}

	log.Info().
		Str("profile", active.Profile.Name).
		Str("timezone", active.Timezone()).
		Str("address", active.DashboardAddress()).
		Msg("Configuration loaded")

	// Read zigbee2mqtt data files; fall back to NullController
	var controller device.Controller
	if _, err := os.Stat(cfg.Zigbee.StateFile); err != nil {
		log.Warn().Err(err).Str("state_file", cfg.Zigbee.StateFile).Msg("Zigbee data unavailable, using null controller")
		controller = device.NewNullController()
	} else {
		controller = device.NewFileController(cfg.Zigbee.StateFile, cfg.Zigbee.DatabaseFile)
	}
	defer controller.Close()

	// Connect to the zigbee2mqtt broker; fall back to NullCommander
	var commander device.Commander
	var events device.EventSubscriber
	if cfg.Zigbee.MQTT.Broker == "" {
		log.Warn().Msg("No MQTT broker configured, device commands disabled")
		null := device.NewNullCommander()
		commander, events = null, null
	} else {
		mqttCommander, err := device.DialMQTT(device.MQTTConfig{
			Broker:    cfg.Zigbee.MQTT.Broker,
			ClientID:  cfg.Zigbee.MQTT.ClientID,
			Username:  cfg.Zigbee.MQTT.Username,
			Password:  cfg.Zigbee.MQTT.Password,
			BaseTopic: cfg.Zigbee.MQTT.BaseTopic,
			Timeout:   cfg.Zigbee.MQTT.Timeout,
		})
		if err != nil {
			log.Warn().Err(err).Str("broker", cfg.Zigbee.MQTT.Broker).Msg("MQTT broker unavailable, device commands disabled")
			null := device.NewNullCommander()
			commander, events = null, null
		} else {
			defer mqttCommander.Close()
			commander, events = mqttCommander, mqttCommander
		}
	}

	// Open the sensor board; fall back to NullSource
	var source sensor.Source
	serialSource, err := sensor.OpenSerial(cfg.Sensor.Port, cfg.Sensor.Baud)
	if err != nil {
		log.Warn().Err(err).Str("port", cfg.Sensor.Port).Msg("Sensor board unavailable, sampling disabled")
		source = sensor.NullSource{}
	} else {
		source = serialSource
	}
	defer func() { _ = source.Close() }()

	thermal := sysinfo.NewThermal()
	if cfg.Health.ThermalRoot != "" {
		thermal.Root = cfg.Health.ThermalRoot
	}
	sampler := sensor.NewSampler(source, database.Measurements(), cfg.Sensor.Interval)
	activeSettings := func(ctx context.Context) (settings.Settings, error) {
		s, err := database.Settings().Get(ctx, active.Profile.ID)
		if errors.Is(err, db.ErrSettingsNotFound) {
			return settings.Defaults(), nil
		}
		return s, err
	}
	monitor := health.NewMonitor(
		health.Config{
			Interval:       cfg.Health.Interval,
			StaleAfter:     cfg.Health.StaleAfter,
			FrozenLimit:    cfg.Health.FrozenLimit,
			OverheatC:      cfg.Health.OverheatC,
			OverheatMargin: cfg.Health.OverheatMargin,
		},
		sampler, controller, database.HealthIssues(),
		health.WithSettings(activeSettings),
		health.WithCPUTemperature(thermal.CPU),
		health.WithLocation(active.Profile.Location()),
	)

	climateCtrl := climate.NewController(
		climate.Config{
			Interval:    cfg.Control.Interval,
			CO2Interval: cfg.Control.CO2Interval,
			CO2Pulse:    cfg.Control.CO2Pulse,
			StaleAfter:  cfg.Health.StaleAfter,
			Override:    cfg.Control.Override,
			Outlets: []climate.OutletConfig{
				{Role: climate.Light, Device: cfg.Control.LightDevice},
				{Role: climate.Fridge, Device: cfg.Zigbee.FridgeDevice, MinOff: cfg.Control.FridgeMinOff},
				{Role: climate.Heater, Device: cfg.Control.HeaterDevice, MinOff: cfg.Control.HeaterMinOff},
				{Role: climate.Humidifier, Device: cfg.Control.HumidifierDevice, MinOff: cfg.Control.HumidifierMinOff},
				{Role: climate.CO2, Device: cfg.Control.CO2Device},
			},
		},
		commander, sampler, activeSettings,
		climate.WithLocation(active.Profile.Location()),
	)
	client := dashboard.NewClient(cfg.Dashboard.UpstreamURL, dashboard.WithSnapshotURL(cfg.Dashboard.SnapshotURL))
	reporter := uploader.New(
		uploader.Config{
			DataInterval:       cfg.Uploader.DataInterval,
			ImageInterval:      cfg.Uploader.ImageInterval,
			StaleAfter:         cfg.Health.StaleAfter,
			InsecureSkipVerify: cfg.Uploader.InsecureSkipVerify,
		},
		activeSettings, sampler, client,
	)

	// Server-side groups and dashboard groups live on separate managers so
	// closing the dashboard never stops sampling.
	sched := taskgroup.NewTickerScheduler()
	observer := taskgroup.LogObserver{Logger: log.Logger}

	backend := taskgroup.NewManager(sched, taskgroup.WithObserver(observer), taskgroup.WithLogger(log.Logger))
	if err := backend.DefineGroup("sensor", sampler.Task()); err != nil {
		log.Fatal().Err(err).Msg("Failed to define sensor group")
	}
	if err := backend.DefineGroup("health", monitor.Task()); err != nil {
		log.Fatal().Err(err).Msg("Failed to define health group")
	}
	if err := backend.DefineGroup("uploader", reporter.Tasks()...); err != nil {
		log.Fatal().Err(err).Msg("Failed to define uploader group")
	}
	backendGroups := []string{"sensor", "health", "uploader"}
	if tasks := climateCtrl.Tasks(); len(tasks) > 0 {
		if err := backend.DefineGroup("controllers", tasks...); err != nil {
			log.Fatal().Err(err).Msg("Failed to define controllers group")
		}
		backendGroups = append(backendGroups, "controllers")
	}

	var session *dashboard.Session
	if !*noDashboard {
		frontend := taskgroup.NewManager(sched, taskgroup.WithObserver(observer), taskgroup.WithLogger(log.Logger))
		session, err = dashboard.NewSession(frontend, client, dashboard.NewView(),
			dashboard.WithCPUAlert(cfg.Health.OverheatC))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create dashboard session")
		}
	}

	router := api.NewRouter(api.Deps{
		DB:           database,
		Controller:   controller,
		Commander:    commander,
		Events:       events,
		Outlets:      climateCtrl,
		Monitor:      monitor,
		Thermal:      thermal,
		Validator:    settings.NewValidator(),
		Session:      session,
		FridgeDevice: cfg.Zigbee.FridgeDevice,
		StaticDir:    cfg.Dashboard.StaticDir,
		RebootUser:   cfg.Reboot.User,
		RebootHash:   cfg.Reboot.PasswordHash,
		RebootCmd:    cfg.Reboot.Command,
	})

	addr := active.DashboardAddress()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal().Err(err).Str("address", addr).Msg("Failed to listen")
	}
	srv := &http.Server{Handler: router.Handler(), ReadHeaderTimeout: 10 * time.Second}

	for _, name := range backendGroups {
		if err := backend.Start(name); err != nil {
			log.Fatal().Err(err).Str("group", name).Msg("Failed to start task group")
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("address", addr).Msg("Starting API server")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if session != nil {
		g.Go(func() error {
			return session.SelectTab(dashboard.TabEnvironment)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server failed")
	}

	if session != nil {
		session.Close()
	}
	backend.StopAll()
	sched.Wait()
}
