package main

import (
	"log"
	"os"

	"biodelta/adapters/excel"
	"biodelta/app"
	"biodelta/domain/diversity"
	"biodelta/internal/config"
	"biodelta/ui"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env: %v", err)
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	exportConfig := excel.DefaultExportConfig()
	exportConfig.IncludeChart = appConfig.Export.IncludeChart

	reader := excel.NewDataReader()
	session := app.NewAnalysisSession(
		reader,
		excel.NewWorkbookExporter(exportConfig),
		diversity.NewCalculator(appConfig.Analysis.LossThreshold),
	)

	webApp, err := ui.NewApp(ui.Config{
		Port:           appConfig.Server.Port,
		MaxUploadBytes: int64(appConfig.Server.MaxUploadMB) << 20,
	}, session, reader)
	if err != nil {
		log.Fatalf("Failed to initialize web app: %v", err)
	}

	log.Printf("Loss threshold ΔH > %.2f bits", session.Threshold())
	log.Fatal(webApp.Start())
}
