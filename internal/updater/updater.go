// internal/updater/updater.go

// Package updater implements git-based self-update for agents deployed
// as a checkout on the device. On update the systemd unit is
// restarted, so a successful update normally never returns.
package updater

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"printer-agent/internal/config"
)

// Updater checks the deployment checkout against its git remote
type Updater struct {
	repoDir     string
	branch      string
	serviceName string
	logger      *zap.Logger
}

// New creates an updater from the update configuration
func New(cfg *config.UpdateConfig, logger *zap.Logger) *Updater {
	branch := cfg.Branch
	if branch == "" {
		branch = "main"
	}
	repoDir := cfg.RepoDir
	if repoDir == "" {
		repoDir = "."
	}
	return &Updater{
		repoDir:     repoDir,
		branch:      branch,
		serviceName: cfg.ServiceName,
		logger:      logger,
	}
}

// CheckAndUpdate fetches the remote branch, pulls if it moved and
// restarts the service. Returns whether an update was applied. Every
// failure is best effort: an unreachable remote must never keep the
// agent from printing.
func (u *Updater) CheckAndUpdate(ctx context.Context) (bool, error) {
	u.logger.Info("Checking for updates",
		zap.String("branch", u.branch),
		zap.String("repo_dir", u.repoDir))

	if err := u.git(ctx, "fetch", "origin", u.branch); err != nil {
		return false, fmt.Errorf("git fetch failed: %w", err)
	}

	localHash, err := u.gitOutput(ctx, "rev-parse", "HEAD")
	if err != nil {
		return false, fmt.Errorf("failed to read local commit: %w", err)
	}
	remoteHash, err := u.gitOutput(ctx, "rev-parse", "origin/"+u.branch)
	if err != nil {
		return false, fmt.Errorf("failed to read remote commit: %w", err)
	}

	if localHash == remoteHash {
		u.logger.Info("Already up to date", zap.String("commit", shortHash(localHash)))
		return false, nil
	}

	u.logger.Info("Update available",
		zap.String("local", shortHash(localHash)),
		zap.String("remote", shortHash(remoteHash)))

	if err := u.git(ctx, "pull", "origin", u.branch); err != nil {
		return false, fmt.Errorf("git pull failed: %w", err)
	}

	u.logger.Info("Update complete, restarting service",
		zap.String("service", u.serviceName))
	u.restartService(ctx)

	return true, nil
}

// git runs a git command in the repo directory
func (u *Updater) git(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = u.repoDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// gitOutput runs a git command and returns its trimmed stdout
func (u *Updater) gitOutput(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = u.repoDir

	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// restartService asks systemd to restart the agent unit. When it
// succeeds this process is killed, so the error path is the only one
// that ever logs.
func (u *Updater) restartService(ctx context.Context) {
	if u.serviceName == "" {
		u.logger.Warn("No service name configured, skipping restart")
		return
	}

	cmd := exec.CommandContext(ctx, "sudo", "systemctl", "restart", u.serviceName)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		u.logger.Error("Service restart failed",
			zap.Error(err),
			zap.String("stderr", strings.TrimSpace(stderr.String())))
	}
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
