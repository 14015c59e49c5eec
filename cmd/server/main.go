package main

import (
	"fmt"
	"log"

	"gamestore/backend/internal/config"
	"gamestore/backend/internal/database"
	"gamestore/backend/internal/repository"
	"gamestore/backend/internal/server"

	"github.com/gin-gonic/gin"
)

// @title           Game Store API
// @version         1.0
// @description     CRUD API for the games in the store.
// @host            localhost:8080
// @BasePath        /api
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	// Connect to the database
	db, err := database.Connect(cfg.DatabaseURL, database.ParseLogLevel(cfg.DBLogLevel))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Database connection established.")

	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		log.Println("Database migrated successfully.")
	}

	router := server.NewRouter(cfg, repository.NewGameRepository(db))

	fmt.Printf("Server is running on %s\n", cfg.ServerAddr)
	fmt.Println("Swagger UI is available at /swagger/index.html")
	log.Fatal(router.Run(cfg.ServerAddr))
}
