package server

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"ccsledger/core/contract"
	"ccsledger/core/identity"
	"ccsledger/core/storage"

	"github.com/joho/godotenv"
)

func init() {
	godotenv.Load("ccsledger.env")
}

// --- Environment Variable Config ---
// All sensitive/configurable values are loaded from environment variables.
// See ccsledger.env for variable names and dummy values.

var (
	jwtSecret   = os.Getenv("JWT_SECRET")       // HS256 secret for caller bearer tokens
	serverPort  = os.Getenv("SERVER_PORT")      // Server port (default: 8080)
	enableHTTPS = os.Getenv("ENABLE_HTTPS")     // Enable HTTPS (true/false)
	tlsCertPath = os.Getenv("TLS_CERT_PATH")    // TLS certificate path
	tlsKeyPath  = os.Getenv("TLS_KEY_PATH")     // TLS key path
	maxPageSize = os.Getenv("MAX_PAGE_SIZE")    // Pagination cap override
)

// Server exposes the ledger's two collaborator calls over HTTP: submit a
// named function as the authenticated caller, and evaluate a read-only
// function.
type Server struct {
	store      *storage.Store
	contract   *contract.Contract
	verifier   *identity.TokenVerifier
	ListenAddr string
}

func NewServer(store *storage.Store, ctr *contract.Contract, listenAddr string) *Server {
	if n, err := strconv.Atoi(maxPageSize); err == nil {
		ctr.SetMaxPageSize(n)
	}
	return &Server{
		store:      store,
		contract:   ctr,
		verifier:   &identity.TokenVerifier{Secret: []byte(jwtSecret)},
		ListenAddr: listenAddr,
	}
}

func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Ledger function surface
	mux.HandleFunc("/api/v1/invoke", s.HandleInvoke)
	mux.HandleFunc("/api/v1/query", s.HandleQuery)

	// Modular health/status endpoints
	mux.HandleFunc("/nodehealth", s.HandleNodeHealth)
	mux.HandleFunc("/health/liveness", s.HandleLiveness)
	mux.HandleFunc("/health/readiness", s.HandleReadiness)
	mux.HandleFunc("/status", s.HandleStatus)

	fmt.Println("API server listening at", s.ListenAddr)

	if enableHTTPS == "true" {
		fmt.Println("[HTTPS] Enabled. Using cert:", tlsCertPath, "key:", tlsKeyPath)
		return http.ListenAndServeTLS(s.ListenAddr, tlsCertPath, tlsKeyPath, mux)
	}
	fmt.Println("[HTTPS] Disabled. Serving HTTP only!")
	return http.ListenAndServe(s.ListenAddr, mux)
}

// DefaultListenAddr resolves the listen address from the environment.
func DefaultListenAddr() string {
	port := serverPort
	if port == "" {
		port = "8080"
	}
	return ":" + port
}
