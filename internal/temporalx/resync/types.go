package resync

const (
	WorkflowName       = "pagegen_full_resync"
	ActivityFullResync = "pagegen_full_resync_run"
	// WorkflowID is fixed so only one cron workflow exists per namespace.
	WorkflowID = "pagegen-full-resync"
)

// Result is what one scheduled resync did. Skipped runs carry the reason instead of
// counts.
type Result struct {
	Skipped   bool   `json:"skipped"`
	Reason    string `json:"reason,omitempty"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
	Restored  int    `json:"restored"`
	Retired   int    `json:"retired"`
	Purged    int    `json:"purged"`
	Unchanged int    `json:"unchanged"`
	Failed    int    `json:"failed"`
}
