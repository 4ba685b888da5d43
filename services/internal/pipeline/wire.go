package pipeline

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/telescope-ops/obsadmin/services/internal/archive"
	"github.com/telescope-ops/obsadmin/services/internal/bulkfile"
	"github.com/telescope-ops/obsadmin/services/internal/config"
	"github.com/telescope-ops/obsadmin/services/internal/csvin"
	"github.com/telescope-ops/obsadmin/services/internal/db"
	"github.com/telescope-ops/obsadmin/services/internal/schedule"
)

// FromConfig assembles a Manager backed by store. reg may be nil to skip
// metrics.
func FromConfig(ctx context.Context, cfg config.Config, store *db.Store, reg prometheus.Registerer) (*Manager, error) {
	files, err := bulkfile.New(cfg.BulkDir)
	if err != nil {
		return nil, errors.Wrap(err, "bulk dir")
	}

	proc := &schedule.Processor{
		Gateway:          store,
		Files:            files,
		Location:         cfg.Location,
		CommentTemplates: schedule.CommentTemplatesWithAdmin(cfg.AdminPI),
	}

	var opts []Option
	blob, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		return nil, errors.Wrap(err, "archive")
	}
	if blob != nil {
		opts = append(opts, WithArchive(blob))
	}
	if reg != nil {
		opts = append(opts, WithMetrics(NewMetrics(reg)))
	}

	return New(csvin.Tokenizer{}, proc, store.Ingester(), opts...), nil
}
