package main

import (
	"flag"
	"os"

	"smssignup/config"
	"smssignup/internal/database"

	"github.com/sirupsen/logrus"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("load config")
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	if err := database.Migrate(cfg.DatabaseURL, *direction); err != nil {
		logger.WithError(err).WithField("direction", *direction).Fatal("migrate")
	}
	logger.WithField("direction", *direction).Info("migrations applied")
}
