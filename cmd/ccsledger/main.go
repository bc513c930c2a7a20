package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"

	"ccsledger/api/server"
	"ccsledger/core/audit"
	"ccsledger/core/contract"
	"ccsledger/core/storage"
)

func main() {
	godotenv.Load("ccsledger.env")

	// Log to file as well as stdout
	if err := os.MkdirAll("logs", 0o755); err == nil {
		logFile, err := os.OpenFile("logs/ccsledger-node.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			log.SetOutput(io.MultiWriter(os.Stdout, logFile))
		}
	}

	fmt.Println("Starting CCS ledger node")

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "ccsledger-data"
	}
	store, err := storage.NewStore(dbPath)
	if err != nil {
		log.Fatalf("Failed to open ledger storage at %s: %v", dbPath, err)
	}
	defer store.Close()

	auditLogger := audit.NewStdoutAuditLogger()
	ctr := contract.New(store, auditLogger)

	srv := server.NewServer(store, ctr, server.DefaultListenAddr())
	if err := srv.Start(); err != nil {
		log.Fatalf("API server stopped: %v", err)
	}
}
