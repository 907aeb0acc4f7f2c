package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/lavanda/internal/config"
	"github.com/example/lavanda/internal/database"
	"github.com/example/lavanda/internal/routes"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)
	rdb := database.ConnectRedis(cfg.RedisURL)

	if err := database.SeedAdmin(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Printf("admin seed failed: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName: "Lavanda Backend",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, db, rdb, cfg)

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
