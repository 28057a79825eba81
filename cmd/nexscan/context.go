package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"nexscan/internal/archive"
	"nexscan/internal/config"
	"nexscan/internal/download"
	"nexscan/internal/logging"
)

// archiveService is what the commands need from the archive: listing for the
// query stage and object bodies for downloads.
type archiveService interface {
	archive.Client
	download.Source
}

type archiveFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (archiveService, error)

func newS3Archive(ctx context.Context, cfg *config.Config, logger *slog.Logger) (archiveService, error) {
	return archive.NewS3Client(ctx, archive.Options{
		Bucket:          cfg.Archive.Bucket,
		Region:          cfg.Archive.Region,
		Endpoint:        cfg.Archive.Endpoint,
		AccessKeyID:     cfg.Archive.AccessKeyID,
		SecretAccessKey: cfg.Archive.SecretAccessKey,
		Timeout:         cfg.RequestTimeout(),
		MaxRetries:      cfg.Archive.MaxRetries,
		Logger:          logger,
	})
}

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	newArchive   archiveFactory

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string, factory archiveFactory) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		newArchive:   factory,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// session is the per-invocation state shared by the pipeline commands.
type session struct {
	ctx context.Context
	cfg *config.Config
	// logger is untagged; components that read the run id from ctx use it.
	logger *slog.Logger
	// runLogger carries the run id for components that take no context.
	runLogger *slog.Logger
	archive   archiveService
}

// openSession loads config, builds a run logger, and constructs the archive
// client.
func (c *commandContext) openSession(cmd *cobra.Command) (*session, error) {
	sess, err := c.openLocalSession(cmd)
	if err != nil {
		return nil, err
	}
	client, err := c.newArchive(sess.ctx, sess.cfg, sess.runLogger)
	if err != nil {
		return nil, err
	}
	sess.archive = client
	return sess, nil
}

// openLocalSession is openSession without the archive client, for commands
// that only touch the local folder. Logs go to the command's stderr and carry
// a fresh run id.
func (c *commandContext) openLocalSession(cmd *cobra.Command) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	level := ""
	if c.logLevelFlag != nil {
		level = *c.logLevelFlag
	}
	base, err := logging.NewFromConfigWriter(cfg, level, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.WithRunID(ctx, logging.NewRunID())
	return &session{
		ctx:       ctx,
		cfg:       cfg,
		logger:    base,
		runLogger: logging.WithContext(ctx, base),
	}, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
