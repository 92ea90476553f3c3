package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type client struct {
	addr  string
	token string
	http  *http.Client
}

func (c *client) do(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.addr+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type valveRow struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Location      string `json:"location"`
	NextDueDate   string `json:"next_due_date"`
	RemainingDays int    `json:"remaining_days"`
	Status        string `json:"status"`
}

func coloredStatus(status string) string {
	switch status {
	case "ok":
		return color.New(color.FgGreen).Sprint("OK")
	case "due_soon":
		return color.New(color.FgYellow).Sprint("DUE SOON")
	case "expired":
		return color.New(color.FgRed).Sprint("EXPIRED")
	default:
		return status
	}
}

func listCmd(c *client) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List valves with their inspection deadline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/valves"
			if query != "" {
				path += "?q=" + query
			}
			var rows []valveRow
			if err := c.do(http.MethodGet, path, nil, &rows); err != nil {
				return err
			}
			sort.Slice(rows, func(i, j int) bool { return rows[i].RemainingDays < rows[j].RemainingDays })
			fmt.Printf("%-10s %-24s %-16s %-12s %9s  %s\n", "ID", "NAME", "LOCATION", "NEXT DUE", "REMAINING", "STATUS")
			for _, row := range rows {
				fmt.Printf("%-10s %-24s %-16s %-12s %9d  %s\n",
					row.ID, row.Name, row.Location, row.NextDueDate, row.RemainingDays, coloredStatus(row.Status))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter valves by id or name substring")
	return cmd
}

func pauseCmd(c *client) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause alert notifications for a number of days",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Paused     bool   `json:"paused"`
				PauseUntil string `json:"pause_until"`
			}
			if err := c.do(http.MethodPost, "/api/v1/alerts/pause", map[string]int{"days": days}, &resp); err != nil {
				return err
			}
			fmt.Printf("alerts paused until %s\n", resp.PauseUntil)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 1, "pause duration in days (1, 30 or 365 are the usual choices)")
	return cmd
}

func resumeCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume alert notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.do(http.MethodPost, "/api/v1/alerts/resume", nil, nil); err != nil {
				return err
			}
			fmt.Println("alerts resumed")
			return nil
		},
	}
}

func checkCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Trigger an immediate deadline evaluation",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Paused   bool              `json:"paused"`
				LastTick string            `json:"last_tick"`
				Statuses map[string]string `json:"statuses"`
			}
			if err := c.do(http.MethodPost, "/api/v1/alerts/check", nil, &resp); err != nil {
				return err
			}
			ids := make([]string, 0, len(resp.Statuses))
			for id := range resp.Statuses {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Printf("%-10s %s\n", id, coloredStatus(resp.Statuses[id]))
			}
			if resp.Paused {
				fmt.Println(color.New(color.FgYellow).Sprint("notifications are paused"))
			}
			return nil
		},
	}
}

func main() {
	c := &client{http: &http.Client{Timeout: 30 * time.Second}}

	rootCmd := &cobra.Command{
		Use:   "valvectl",
		Short: "valvectl - inspect and control the collaudo deadline tracker",
	}
	rootCmd.PersistentFlags().StringVar(&c.addr, "addr", getenvDefault("VALVECTL_ADDR", "http://localhost:8080"), "tracker base URL")
	rootCmd.PersistentFlags().StringVar(&c.token, "token", os.Getenv("VALVECTL_TOKEN"), "bearer token")

	rootCmd.AddCommand(listCmd(c))
	rootCmd.AddCommand(pauseCmd(c))
	rootCmd.AddCommand(resumeCmd(c))
	rootCmd.AddCommand(checkCmd(c))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
