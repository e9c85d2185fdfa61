package assets

import (
	"context"
	"time"

	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/scholarship-analytics/enrollment-planner/internal/history"
	"github.com/scholarship-analytics/enrollment-planner/internal/model"
)

// FileLoader loads the history CSV and the model artifact from disk.
type FileLoader struct {
	HistoryPath string
	ModelPath   string
}

var _ Loader = FileLoader{}

// Load implements Loader. Both files must load; there is no partial snapshot.
func (l FileLoader) Load(ctx context.Context) (*Snapshot, error) {
	logger := ctrl.LoggerFrom(ctx)

	ds, report, err := history.LoadFile(ctx, l.HistoryPath)
	if err != nil {
		return nil, err
	}
	if ds.Len() == 1 {
		logger.Info("History has a single month; both lag features use it (flat trend assumed)",
			"path", l.HistoryPath)
	}

	p, err := model.LoadFile(ctx, l.ModelPath)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Model:    p,
		History:  ds,
		Report:   report,
		LoadedAt: time.Now(),
	}, nil
}
