// Command dbcheck verifies that the server database can be opened and queried.
// It prints a JSON report and exits non-zero when any component is down.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"medibook/internal/adapters/storage"
	accountStore "medibook/internal/adapters/storage/account"
)

// Status of one checked component.
type Status string

const (
	StatusUp   Status = "UP"
	StatusDown Status = "DOWN"
)

// Component is one line of the report.
type Component struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Report is the overall result.
type Report struct {
	Status     Status      `json:"status"`
	Database   string      `json:"database"`
	Components []Component `json:"components"`
	Timestamp  time.Time   `json:"timestamp"`
}

const checkTimeout = 5 * time.Second

func main() {
	path := envOrDefault("MEDIBOOK_DB", "medibook.db")
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	report := check(ctx, path)
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("encode report: %v", err)
	}
	fmt.Println(string(out))
	if report.Status != StatusUp {
		os.Exit(1)
	}
}

// check opens the database and counts accounts.
// POST: Status is StatusUp only if every component is up
func check(ctx context.Context, path string) Report {
	report := Report{Status: StatusUp, Database: path, Timestamp: time.Now().UTC()}
	add := func(c Component) {
		if c.Status != StatusUp {
			report.Status = StatusDown
		}
		report.Components = append(report.Components, c)
	}

	if _, err := os.Stat(path); err != nil {
		add(Component{Name: "file", Status: StatusDown, Error: err.Error()})
		return report
	}

	db, err := storage.Open(ctx, path)
	if err != nil {
		add(Component{Name: "connection", Status: StatusDown, Error: err.Error()})
		return report
	}
	defer db.Close()
	add(Component{Name: "connection", Status: StatusUp})

	count, err := accountStore.NewSQLiteStore(db).Count(ctx)
	if err != nil {
		add(Component{Name: "accounts", Status: StatusDown, Error: err.Error()})
		return report
	}
	add(Component{Name: "accounts", Status: StatusUp, Detail: fmt.Sprintf("%d accounts", count)})
	return report
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
