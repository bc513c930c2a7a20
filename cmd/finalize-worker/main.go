// finalize-worker invokes the auditor's period-finalization functions against
// a running ledger node on a schedule: each month's total shortly after the
// month closes, each year's total shortly after January 1st. The worker holds
// an auditor bearer token; the node's policy gate still makes the decision.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type workerConfig struct {
	nodeURL      string
	auditorToken string
	projectIDs   []string
}

func loadConfig() (workerConfig, error) {
	cfg := workerConfig{
		nodeURL:      os.Getenv("NODE_URL"),
		auditorToken: os.Getenv("AUDITOR_TOKEN"),
	}
	if cfg.nodeURL == "" {
		cfg.nodeURL = "http://localhost:8080"
	}
	if cfg.auditorToken == "" {
		return cfg, fmt.Errorf("AUDITOR_TOKEN not set in environment")
	}
	for _, id := range strings.Split(os.Getenv("PROJECT_IDS"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			cfg.projectIDs = append(cfg.projectIDs, id)
		}
	}
	if len(cfg.projectIDs) == 0 {
		return cfg, fmt.Errorf("PROJECT_IDS not set in environment")
	}
	return cfg, nil
}

type invocationRequest struct {
	Function string   `json:"function"`
	Args     []string `json:"args"`
}

func (cfg workerConfig) invoke(function string, args []string) error {
	body, err := json.Marshal(invocationRequest{Function: function, Args: args})
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, cfg.nodeURL+"/api/v1/invoke", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.auditorToken)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var msg bytes.Buffer
		msg.ReadFrom(resp.Body)
		return fmt.Errorf("%s returned %d: %s", function, resp.StatusCode, strings.TrimSpace(msg.String()))
	}
	return nil
}

func (cfg workerConfig) finalizeLastMonth() {
	prev := time.Now().UTC().AddDate(0, -1, 0)
	year, month := strconv.Itoa(prev.Year()), strconv.Itoa(int(prev.Month()))
	for _, projectID := range cfg.projectIDs {
		if err := cfg.invoke("monthlyCO2Stored", []string{projectID, year, month}); err != nil {
			log.Printf("[WARN] monthly finalize %s %s-%s: %v", projectID, year, month, err)
			continue
		}
		log.Printf("finalized month %s-%s for %s", year, month, projectID)
	}
}

func (cfg workerConfig) finalizeLastYear() {
	year := strconv.Itoa(time.Now().UTC().Year() - 1)
	for _, projectID := range cfg.projectIDs {
		if err := cfg.invoke("annualCO2Stored", []string{projectID, year}); err != nil {
			log.Printf("[WARN] annual finalize %s %s: %v", projectID, year, err)
			continue
		}
		log.Printf("finalized year %s for %s", year, projectID)
	}
}

func main() {
	godotenv.Load("ccsledger.env")

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("finalize-worker: %v", err)
	}

	c := cron.New()
	// 00:15 UTC on the 1st: close out the previous month.
	if _, err := c.AddFunc("15 0 1 * *", cfg.finalizeLastMonth); err != nil {
		log.Fatalf("finalize-worker: monthly schedule: %v", err)
	}
	// 00:45 UTC on Jan 1st: close out the previous year.
	if _, err := c.AddFunc("45 0 1 1 *", cfg.finalizeLastYear); err != nil {
		log.Fatalf("finalize-worker: annual schedule: %v", err)
	}

	log.Printf("finalize-worker scheduling against %s for projects %v", cfg.nodeURL, cfg.projectIDs)
	c.Run()
}
