package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"AblClaimsRecon/internal/appmanager"
	"AblClaimsRecon/internal/config"
	"AblClaimsRecon/internal/store"
)

func main() {
	// Load .env for local dev; absent in deployed environments.
	_ = godotenv.Load(".env")

	storePath := os.Getenv("STORE_PATH")
	if storePath == "" {
		storePath = config.DefaultStorePath
	}
	st, warnings := store.Open(storePath)
	for _, warning := range warnings {
		log.Println("store:", warning)
	}
	appmanager.SetStore(st)

	manager := appmanager.NewAppManager()

	servicesCfg, err := appmanager.LoadServiceSequence("services.yaml")
	if err != nil {
		log.Fatal("failed to load service sequence:", err)
	}
	manager.AutoRegisterServices(servicesCfg)

	if err := manager.StartAll(); err != nil {
		log.Fatal("failed to start:", err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	if err := manager.StopAll(); err != nil {
		log.Fatal("failed to stop:", err)
	}
}
