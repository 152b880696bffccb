package main

import (
	"log"
	"os"

	"github.com/amitalon123/Video-Streaming-Project/db"
	"github.com/amitalon123/Video-Streaming-Project/logger"
	api "github.com/amitalon123/Video-Streaming-Project/routes"
)

func main() {
	zl, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	store, err := db.NewDBService()
	if err != nil {
		zl.Fatal("failed to connect to database", "error", err)
	}

	api.ExposeAPI(store, zl)
}
