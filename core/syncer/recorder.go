package syncer

import (
	"context"

	"media-sync/core/database"
	"media-sync/core/execute"

	"go.uber.org/zap"
)

// OpLogRecorder adapts the persisted operation log to the executor's
// Recorder. Recording failures are logged and swallowed; losing a log row
// must never affect the run.
type OpLogRecorder struct {
	oplog *database.OpLog
	log   *zap.Logger
}

// NewOpLogRecorder creates the adapter. A nil oplog records nothing.
func NewOpLogRecorder(oplog *database.OpLog, log *zap.Logger) *OpLogRecorder {
	return &OpLogRecorder{oplog: oplog, log: log}
}

func (r *OpLogRecorder) Record(ctx context.Context, rec execute.Record) {
	if r.oplog == nil {
		return
	}
	err := r.oplog.Record(ctx, database.OperationRecord{
		RunID:      rec.RunID,
		Category:   string(rec.Op.Category),
		Direction:  string(rec.Op.Direction),
		Action:     string(rec.Op.Action),
		IMDBID:     rec.Op.Item.IMDBID,
		Title:      rec.Op.Item.Title,
		Outcome:    string(rec.Outcome),
		Attempts:   rec.Attempts,
		Error:      rec.Err,
		ExecutedAt: rec.At,
	})
	if err != nil {
		r.log.Warn("Failed to record operation outcome", zap.Error(err))
	}
}
