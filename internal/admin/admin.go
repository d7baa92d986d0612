// Package admin exposes operator debug routes over the action store: a
// live SQL console, run statistics, and on-demand backups.
package admin

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/loopwave/motionscript/internal/httputil"
	"github.com/loopwave/motionscript/internal/scriptstore"
)

// AttachRoutes mounts tailSQL and a handful of JSON/backup endpoints
// under mux's debug surface, backed by store.
func AttachRoutes(mux *http.ServeMux, store *scriptstore.Store, dbPath string) error {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("admin: create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+dbPath, store.DB, &tailsql.DBOptions{
		Label: "Motion Script Actions",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("run-stats", "Action counts per run (JSON)", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stats, err := runStats(store)
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to get run stats: %v", err))
			return
		}
		httputil.WriteJSONOK(w, stats)
	}))

	debug.Handle("backup", "Create and download a backup of the action database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			httputil.MethodNotAllowed(w)
			return
		}
		backupPath := fmt.Sprintf("backup-%d.db", time.Now().Unix())
		if _, err := store.Exec("VACUUM INTO ?", backupPath); err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to create backup: %v", err))
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		http.ServeFile(w, r, backupPath)
	}))

	return nil
}

// RunStat is one row of AttachRoutes' run-stats debug endpoint.
type RunStat struct {
	RunID       string `json:"run_id"`
	ActionCount int    `json:"action_count"`
}

func runStats(store *scriptstore.Store) ([]RunStat, error) {
	rows, err := store.Query(`SELECT run_id, COUNT(*) FROM actions GROUP BY run_id ORDER BY run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []RunStat
	for rows.Next() {
		var s RunStat
		if err := rows.Scan(&s.RunID, &s.ActionCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
