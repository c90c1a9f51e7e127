package job

import (
	"github.com/inkwell-blog/inkwell/database"
	"github.com/inkwell-blog/inkwell/logger"
)

// CheckpointJob folds the SQLite WAL back into the database file.
type CheckpointJob struct{}

func NewCheckpointJob() *CheckpointJob {
	return new(CheckpointJob)
}

func (j *CheckpointJob) Run() {
	if err := database.Checkpoint(); err != nil {
		logger.Warning("checkpoint job err:", err)
	}
}
