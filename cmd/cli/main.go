package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// Config is the CLI's saved state: where the API lives, which
// workspace/project to talk to, and the bearer token to use.
type Config struct {
	BaseURL   string `json:"base_url"`
	Token     string `json:"token"`
	Workspace string `json:"workspace"`
	ProjectID string `json:"project_id"`
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".tracklite")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "cli_config.json"), nil
}

func loadConfig() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func saveConfig(cfg *Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func requireConfig() (*Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" || cfg.Token == "" || cfg.Workspace == "" {
		return nil, fmt.Errorf("not configured; run `tracklite use` first")
	}
	return cfg, nil
}

func doRequest(cfg *Config, method, path string, body io.Reader) (*http.Response, error) {
	url := strings.TrimRight(cfg.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.Token)
	return http.DefaultClient.Do(req)
}

func readError(resp *http.Response) error {
	msg, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("request failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}

var rootCmd = &cobra.Command{
	Use:   "tracklite",
	Short: "Tracklite CLI",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ---- Use (configure) ----

func cmdUse(args []string) error {
	fs := flag.NewFlagSet("use", flag.ExitOnError)
	baseURL := fs.String("base-url", "http://localhost:3001", "API base URL")
	token := fs.String("token", "", "Bearer token")
	workspace := fs.String("workspace", "", "Workspace slug")
	projectID := fs.String("project", "", "Default project id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.BaseURL = strings.TrimRight(*baseURL, "/")
	if *token != "" {
		cfg.Token = *token
	}
	if *workspace != "" {
		cfg.Workspace = *workspace
	}
	if *projectID != "" {
		cfg.ProjectID = *projectID
	}
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Println("Configuration saved")
	return nil
}

// ---- Timer ----

func issuePath(cfg *Config, issueID string) string {
	return fmt.Sprintf("/api/workspaces/%s/projects/%s/issues/%s", cfg.Workspace, cfg.ProjectID, issueID)
}

func cmdTimer(args []string) error {
	if len(args) == 0 {
		fmt.Println("Usage: tracklite timer [start|stop|active] <issue-id>")
		return nil
	}
	sub := args[0]
	switch sub {
	case "start":
		return timerStart(args[1:])
	case "stop":
		return timerStop(args[1:])
	case "active":
		return timerActive(args[1:])
	default:
		fmt.Println("Usage: tracklite timer [start|stop|active] <issue-id>")
		return nil
	}
}

func timerStart(args []string) error {
	fs := flag.NewFlagSet("timer start", flag.ExitOnError)
	note := fs.String("note", "", "Entry note")
	billable := fs.Bool("billable", false, "Mark the entry billable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: tracklite timer start <issue-id>")
	}

	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]any{"note": *note, "is_billable": *billable})
	if err != nil {
		return err
	}
	resp, err := doRequest(cfg, http.MethodPost, issuePath(cfg, fs.Arg(0))+"/timer", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return readError(resp)
	}

	var entry struct {
		ID        string `json:"id"`
		StartedAt string `json:"started_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return err
	}
	fmt.Printf("Timer started (entry %s) at %s\n", entry.ID, entry.StartedAt)
	return nil
}

func timerStop(args []string) error {
	fs := flag.NewFlagSet("timer stop", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: tracklite timer stop <issue-id>")
	}

	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	resp, err := doRequest(cfg, http.MethodDelete, issuePath(cfg, fs.Arg(0))+"/timer", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return readError(resp)
	}

	var entry struct {
		DurationSeconds int64   `json:"duration_seconds"`
		DurationHours   float64 `json:"duration_hours"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return err
	}
	fmt.Printf("Timer stopped: %ds (%.2fh)\n", entry.DurationSeconds, entry.DurationHours)
	return nil
}

func timerActive(args []string) error {
	fs := flag.NewFlagSet("timer active", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: tracklite timer active <issue-id>")
	}

	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	resp, err := doRequest(cfg, http.MethodGet, issuePath(cfg, fs.Arg(0))+"/timer/active", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return readError(resp)
	}

	var payload struct {
		ActiveTimer *struct {
			ID        string `json:"id"`
			StartedAt string `json:"started_at"`
		} `json:"active_timer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return err
	}
	if payload.ActiveTimer == nil {
		fmt.Println("No active timer")
		return nil
	}
	fmt.Printf("Active timer %s running since %s\n", payload.ActiveTimer.ID, payload.ActiveTimer.StartedAt)
	return nil
}

// ---- Report ----

func cmdReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	groupBy := fs.String("group-by", "user", "Grouping dimension (user, work_item, project, module)")
	from := fs.String("from", "", "From date (YYYY-MM-DD)")
	to := fs.String("to", "", "To date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/api/workspaces/%s/time-tracking/reports?group_by=%s", cfg.Workspace, *groupBy)
	if *from != "" {
		path += "&from=" + *from
	}
	if *to != "" {
		path += "&to=" + *to
	}
	if cfg.ProjectID != "" {
		path += "&project_id=" + cfg.ProjectID
	}

	resp, err := doRequest(cfg, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return readError(resp)
	}

	var report struct {
		GroupBy string `json:"group_by"`
		Data    []struct {
			UserDisplayName string  `json:"user_display_name,omitempty"`
			IssueName       string  `json:"issue_name,omitempty"`
			ProjectName     string  `json:"project_name,omitempty"`
			ModuleName      string  `json:"module_name,omitempty"`
			TotalSeconds    int64   `json:"total_seconds"`
			TotalHours      float64 `json:"total_hours"`
			EntryCount      int     `json:"entry_count"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return err
	}

	if len(report.Data) == 0 {
		fmt.Println("No completed entries in range")
		return nil
	}
	fmt.Printf("Report by %s:\n", report.GroupBy)
	for _, row := range report.Data {
		label := row.UserDisplayName
		if label == "" {
			label = row.IssueName
		}
		if label == "" {
			label = row.ProjectName
		}
		if label == "" {
			label = row.ModuleName
		}
		fmt.Printf("  %-30s %8.2fh  (%d entries)\n", label, row.TotalHours, row.EntryCount)
	}
	return nil
}

// ---- Export ----

func cmdExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "", "Output file (defaults to the server-suggested name)")
	from := fs.String("from", "", "From date (YYYY-MM-DD)")
	to := fs.String("to", "", "To date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/api/workspaces/%s/time-tracking/export", cfg.Workspace)
	sep := "?"
	if *from != "" {
		path += sep + "from=" + *from
		sep = "&"
	}
	if *to != "" {
		path += sep + "to=" + *to
		sep = "&"
	}
	if cfg.ProjectID != "" {
		path += sep + "project_id=" + cfg.ProjectID
	}

	resp, err := doRequest(cfg, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return readError(resp)
	}

	filename := *out
	if filename == "" {
		filename = filenameFromDisposition(resp.Header.Get("Content-Disposition"))
	}
	if filename == "" {
		filename = "time_entries.csv"
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d bytes)\n", filename, n)
	return nil
}

func filenameFromDisposition(disposition string) string {
	const marker = "filename="
	idx := strings.Index(disposition, marker)
	if idx < 0 {
		return ""
	}
	name := disposition[idx+len(marker):]
	return strings.Trim(name, `"`)
}

// ---- Cobra command wiring ----

func init() {
	useCmd := &cobra.Command{
		Use:                "use",
		Short:              "Configure the API endpoint, token, and workspace",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdUse(args)
		},
	}

	timerCmd := &cobra.Command{
		Use:                "timer",
		Short:              "Start, stop, or inspect a timer on an issue",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdTimer(args)
		},
	}

	reportCmd := &cobra.Command{
		Use:                "report",
		Short:              "Show a grouped time report for the workspace",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdReport(args)
		},
	}

	exportCmd := &cobra.Command{
		Use:                "export",
		Short:              "Download the workspace time entries as CSV",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdExport(args)
		},
	}

	rootCmd.AddCommand(useCmd, timerCmd, reportCmd, exportCmd)
}
