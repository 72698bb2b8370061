// Prints the QR sheet for one hunt: the scan URL and a text banner per
// question, in hunt order, ready to paste into a document and print.
//
// The same payload is served at /api/qr/display/:token; this script is
// for preparing a whole hunt offline before class.
//
// Usage: go run scripts/print_qr.go -hunt 1 -base https://my-tunnel.example.com
package main

import (
	"campus_hunt_backend/internal/config"
	"campus_hunt_backend/internal/repository"
	"campus_hunt_backend/internal/util"
	"campus_hunt_backend/pkg/database"
	"campus_hunt_backend/pkg/logger"
	"flag"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

func main() {
	huntID := flag.Uint("hunt", 0, "hunt id to print")
	baseURL := flag.String("base", "http://localhost:8080", "public base URL QR codes should point at")
	flag.Parse()

	if *huntID == 0 {
		log.Fatal("usage: go run scripts/print_qr.go -hunt <id> [-base <url>]")
	}

	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("Failed to parse config file: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	hunts := repository.NewHuntRepository(db)
	questions := repository.NewQuestionRepository(db)

	hunt, err := hunts.FindByID(uint(*huntID))
	if err != nil {
		log.Fatalf("Hunt %d not found: %v", *huntID, err)
	}

	list, err := questions.ListByHunt(hunt.ID)
	if err != nil {
		log.Fatalf("Failed to load questions: %v", err)
	}
	if len(list) == 0 {
		log.Fatalf("Hunt %q has no questions yet", hunt.Name)
	}

	fmt.Printf("Hunt: %s (%d questions)\n", hunt.Name, len(list))
	for _, q := range list {
		url := util.QRCodeURL(*baseURL, q.QRToken)
		fmt.Printf("\nQuestion %d: %s\n", q.QuestionOrder, q.Text)
		fmt.Printf("URL: %s\n", url)
		fmt.Println(util.QRCodeText(url))
	}
}
