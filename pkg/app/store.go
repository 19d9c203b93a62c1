// Package app holds the wiring shared by the tracker and server binaries.
package app

import (
	"github.com/mklimuk/job-pilot/pkg/config"
	"github.com/mklimuk/job-pilot/pkg/logging"
	gitsync "github.com/mklimuk/job-pilot/pkg/sync"
	"github.com/mklimuk/job-pilot/pkg/tracker"
)

// OpenStore returns the tracker store for cfg. With git enabled every save
// is committed, and pushed when cfg.Git.Push is set.
func OpenStore(cfg config.Config, log *logging.Logger) *tracker.Store {
	if log == nil {
		log = logging.NewNop()
	}
	opts := []tracker.Option{tracker.WithLogger(log)}
	if cfg.Git.Enabled {
		gitOpts := []gitsync.Option{gitsync.WithLogger(log.With("component", "git"))}
		if cfg.Git.Push {
			gitOpts = append(gitOpts, gitsync.WithPush(cfg.Git.SSHKey))
		}
		opts = append(opts, tracker.WithSaveHook(gitsync.NewGitManager(cfg.DataFile, gitOpts...).Hook))
	}
	return tracker.NewStore(cfg.DataFile, opts...)
}
