package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/config"
	"github.com/spf13/cobra"
)

var (
	healthcheckCmd = &cobra.Command{
		Use:   "healthcheck",
		Short: "Check if the server is healthy",
		Long: `Calls the /health endpoint and exits non-zero unless it answers
{"status":"ok"}. Intended for container HEALTHCHECK instructions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), healthcheckTimeout)
			defer cancel()
			target, err := healthcheckTarget()
			if err != nil {
				return err
			}
			if err := checkHealth(ctx, target); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}

	healthcheckTimeout time.Duration
	healthcheckURL     string
)

func init() {
	healthcheckCmd.Flags().DurationVar(&healthcheckTimeout, "timeout", 5*time.Second, "request timeout")
	healthcheckCmd.Flags().StringVar(&healthcheckURL, "url", "", "health check URL (default: /health on the configured HOST and PORT)")
}

// healthResponse matches the body written by the /health handler.
type healthResponse struct {
	Status string `json:"status"`
}

// healthcheckTarget resolves the URL to probe: --url when set, otherwise
// /health on the configured HOST and PORT (--config and environment), with
// wildcard hosts mapped to localhost. The configuration is not validated.
func healthcheckTarget() (string, error) {
	if healthcheckURL != "" {
		return healthcheckURL, nil
	}
	cfg, err := config.Read(configPath)
	if err != nil {
		return "", fmt.Errorf("config error: %w", err)
	}
	host := cfg.Server.Host
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		host = "localhost"
	}
	return fmt.Sprintf("http://%s/health", net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port))), nil
}

func checkHealth(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("parse health response: %w", err)
	}
	if body.Status != "ok" {
		return fmt.Errorf("unhealthy: status=%s", body.Status)
	}
	return nil
}
