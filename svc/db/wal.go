package db

import (
	"database/sql"
	"time"

	"macrobin/svc/util"
)

const checkpointInterval = 5 * time.Minute

// StartWALMaintenance periodically checkpoints the WAL so the main
// database file stays close to the committed state. A final checkpoint
// runs on quit.
func StartWALMaintenance(db *sql.DB, quit chan struct{}) {
	ticker := time.NewTicker(checkpointInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			checkpoint(db)
		case <-quit:
			checkpoint(db)
			return
		}
	}
}

func checkpoint(db *sql.DB) {
	var busy, log, checkpointed int
	err := db.QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &log, &checkpointed)
	if err != nil {
		util.Warn().Err(err).Msg("WAL checkpoint failed")
		return
	}
	if log > 1000 || busy > 0 {
		if _, err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			util.Warn().Err(err).Msg("TRUNCATE checkpoint failed")
			return
		}
	}
	util.Debug().Int("log_pages", log).Int("checkpointed", checkpointed).Msg("WAL checkpoint completed")
}
