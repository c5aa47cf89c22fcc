package internal

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"voxeld/internal/core"
	"voxeld/internal/core/data"
	"voxeld/internal/core/debug"
	"voxeld/internal/dispatch"
	"voxeld/internal/game"
	"voxeld/internal/room"
	"voxeld/internal/session"
	"voxeld/internal/transport"
	"voxeld/internal/vitals"
	"voxeld/internal/world"
)

// Controller is the main entrypoint for voxeld. It's responsible for
// initializing any shared resources (such as the database, logging, and the
// vitals engine), defining the server frontends, and launching everything.
type Controller struct {
	Config *core.Config

	logger *logrus.Logger
	wg     sync.WaitGroup

	vitalsEngine *vitals.Engine
	servers      []*frontend
}

func (c *Controller) Start(ctx context.Context) {
	defer c.Shutdown(ctx)

	var err error
	// Set up the logger, which will be used by every component.
	c.logger, err = core.NewLogger(c.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error initializing logger: %v\n", err)
		return
	}

	// Start any debug utilities if we're configured to do so.
	if c.Config.Debugging.Enabled {
		debug.StartUtilities(c.logger, c.Config.Debugging.PprofPort)
	}

	if err := data.Initialize(c.Config.DatabaseURL(), c.Config.Debugging.DatabaseLoggingEnabled); err != nil {
		c.logger.Errorf("error initializing database connection: %v", err)
		return
	}
	c.logger.Infof("connected to database %s:%d", c.Config.Database.Host, c.Config.Database.Port)

	sessions := session.NewRegistry()
	worlds := world.NewRegistry(c.Config.Worlds)
	rooms := room.NewManager(c.logger, sessions, worlds)

	engine := vitals.NewEngine(c.logger, vitals.NewStore(data.DB()), sessions, rooms)
	engine.RegenInterval = c.Config.Vitals.RegenInterval
	engine.HungerDecayInterval = c.Config.Vitals.HungerDecayInterval
	engine.Run(ctx)
	c.vitalsEngine = engine

	// Configure and run the frontends.
	c.declareServers(sessions, rooms, engine)
	c.run(ctx)
}

// Set up the frontends we want to run. The TCP listener is always present;
// the websocket listener joins it when a port is configured. Both feed the
// same backend through the same dispatcher.
func (c *Controller) declareServers(sessions *session.Registry, rooms *room.Manager, engine *vitals.Engine) {
	dispatcher := dispatch.NewDispatcher(c.logger)
	backend := &game.Server{
		Name:     "GAME",
		Config:   c.Config,
		Logger:   c.logger,
		DB:       data.DB(),
		Sessions: sessions,
		Rooms:    rooms,
		Vitals:   engine,
	}

	c.servers = []*frontend{
		{
			Address:    c.buildAddress(c.Config.GameServer.Port),
			Listen:     transport.ListenTCP,
			Backend:    backend,
			Dispatcher: dispatcher,
		},
	}

	if c.Config.GameServer.WebsocketPort > 0 {
		c.servers = append(c.servers, &frontend{
			Address:    c.buildAddress(c.Config.GameServer.WebsocketPort),
			Listen:     transport.ListenWebsocket,
			Backend:    backend,
			Dispatcher: dispatcher,
		})
	}
}

func (c *Controller) run(ctx context.Context) {
	// Start all of our servers. Failure to initialize one of the registered
	// servers is considered terminal.
	for _, server := range c.servers {
		server.Config = c.Config
		server.Logger = c.logger

		if err := server.Start(ctx, &c.wg); err != nil {
			c.logger.Errorf("error starting %s server: %v", server.Backend.Identifier(), err)
			return
		}
	}

	c.wg.Wait()
}

func (c *Controller) buildAddress(port int) string {
	return fmt.Sprintf("%s:%v", c.Config.Hostname, port)
}

// Shutdown waits for the frontends to drain, then stops the vitals engine
// (flushing its queued saves) before the database connection goes away.
func (c *Controller) Shutdown(_ context.Context) {
	c.wg.Wait()
	if c.vitalsEngine == nil {
		// Startup never made it past resource initialization.
		return
	}

	c.vitalsEngine.Shutdown()
	if err := data.Shutdown(); err != nil {
		c.logger.Warnf("error closing database connection: %v", err)
	}
}
