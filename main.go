package main

import (
	"log"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/config"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGallery/service"
)

func main() {
	cfg, err := config.InitConfig("./config/config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	log.Printf("gallery api at %s, bucket %s", cfg.API.BaseURL, cfg.Minio.Bucket)

	//creating the add image form service
	galleryService, err := service.NewService(cfg)
	if err != nil {
		log.Fatalf("failed to create service: %v", err)
	}

	if err := galleryService.StartService(); err != nil {
		log.Fatalf("failed to start service: %v", err)
	}
}
