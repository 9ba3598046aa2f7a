package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/dongurihub/uploadhub/internal/api"
	"github.com/dongurihub/uploadhub/internal/api/handlers"
	"github.com/dongurihub/uploadhub/internal/bot"
	"github.com/dongurihub/uploadhub/internal/configuration"
	"github.com/dongurihub/uploadhub/internal/index"
	"github.com/dongurihub/uploadhub/internal/listing"
	"github.com/dongurihub/uploadhub/internal/quota"
	"github.com/dongurihub/uploadhub/internal/upload"
)

func main() {
	cfg := configuration.Load()

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	store := index.NewStore(cfg.IndexPath)
	log.Printf("Index has %d entries", len(store.Snapshot()))

	pipeline := &upload.Pipeline{
		Dir:   cfg.UploadDir,
		Index: store,
		Quota: quota.Tracker{Limit: cfg.MaxIPStorageBytes},
	}

	uploader := gin.Default()
	api.RegisterRoutes(uploader, &handlers.Handler{Config: cfg, Index: store, Pipeline: pipeline})

	creds := configuration.NewCredentialStore(cfg.ListingUsername, cfg.ListingPassword, cfg.CredentialsFile)
	listingEngine := gin.Default()
	surface := &listing.Surface{Config: cfg, Creds: creds, Index: store}
	surface.RegisterRoutes(listingEngine)

	go serve(uploader, cfg.HTTPHost+":"+cfg.HTTPPort, "uploader")
	go serve(listingEngine, cfg.HTTPHost+":"+cfg.ListingPort, "listing")

	var discord *bot.Bot
	if cfg.DiscordToken != "" {
		b, err := bot.New(cfg, store)
		if err != nil {
			log.Fatalf("Failed to create Discord session: %v", err)
		}
		if err := b.Start(); err != nil {
			log.Fatalf("Failed to connect to Discord: %v", err)
		}
		discord = b
	} else {
		log.Println("No Discord token configured, running HTTP surfaces only")
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("Shutting down gracefully...")
	if discord != nil {
		if err := discord.Stop(); err != nil {
			log.Printf("Error closing Discord session: %v", err)
		}
	}
}

func serve(r *gin.Engine, addr, name string) {
	log.Printf("%s server starting on %s", name, addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start %s server: %v", name, err)
	}
}
