package app

import (
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/socraticbse/backend/api"
	"github.com/socraticbse/backend/config"
	"github.com/socraticbse/backend/database"
	"github.com/socraticbse/backend/router"
	"github.com/socraticbse/backend/services"
	"github.com/socraticbse/backend/services/cron"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		return err
	}

	// Load the concept catalog; a malformed seed file is a startup failure
	catalog, err := services.LoadCatalog(getEnv.SEED_PATH)
	if err != nil {
		return err
	}

	// Snapshot mirror is optional; losing it loses no information
	var snapshot *database.SnapshotStore
	if getEnv.SNAPSHOT_ENABLED {
		snapshot = database.NewSnapshotStore(getEnv.SESSIONS_STORE_PATH)
	}
	sessionStore := database.NewSessionStore(store.DB(), snapshot)

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" { // Default to enabled
		cronManager = cron.NewCronManager(store.DB(), sessionStore)
		if err := cronManager.Start(); err != nil {
			print("Warning: Failed to start cron jobs\n")
			print("Error: ", err.Error(), "\n")
			// Don't fail the app, just log the warning
		}
	}

	// Defer Closing DB and stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	// Init API
	var server *api.APIServer = api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Attach Middleware
	app.Use(logger.New())

	app.Use(recover.New())

	// Setup Routes
	router.SetupRoutes(app, store, sessionStore, catalog)

	// Get the PORT & Start the Server
	return server.Run()
}
