// Package appupdate checks for newer draftline releases in the background.
package appupdate

import (
	"context"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"go.uber.org/zap"
)

// Repository is the GitHub repository releases are published to.
const Repository = "prosewrites/draftline"

type Release interface {
	Version() string
}

type Updater interface {
	DetectLatest(ctx context.Context, repo string) (Release, bool, error)
}

// DefaultUpdater looks up releases on GitHub.
type DefaultUpdater struct{}

func (DefaultUpdater) DetectLatest(ctx context.Context, repo string) (Release, bool, error) {
	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(repo))
	if err != nil || !found {
		return nil, found, err
	}
	return latest, true, nil
}

// CheckForUpdate looks for a release newer than currentVersion. The returned
// channel yields the newer version, if any, and is then closed. Dev builds
// and unparsable versions skip the check. A newer version is also recorded
// at recordPath so the next start can mention it without a network call.
func CheckForUpdate(
	ctx context.Context,
	currentVersion string,
	recordPath string,
	logger *zap.Logger,
	updater Updater,
) <-chan string {
	resultChannel := make(chan string, 1)

	currentSemVer, err := semver.NewVersion(currentVersion)
	if err != nil {
		logger.Debug("running a dev build, skipping update check")
		close(resultChannel)
		return resultChannel
	}

	go fetchLatestVersion(ctx, resultChannel, recordPath, logger, updater, currentSemVer)

	return resultChannel
}

func fetchLatestVersion(
	ctx context.Context,
	resultChannel chan string,
	recordPath string,
	logger *zap.Logger,
	updater Updater,
	currentSemVer *semver.Version,
) {
	defer close(resultChannel)

	latest, found, err := updater.DetectLatest(ctx, Repository)
	if err != nil {
		logger.Warn("error occurred while getting latest version from remote", zap.Error(err))
		return
	}
	if !found {
		logger.Warn("latest version could not be found")
		return
	}

	latestSemVer, err := semver.NewVersion(latest.Version())
	if err != nil {
		logger.Error("failed to parse latest version", zap.Error(err))
		return
	}

	if latestSemVer.LessThanEqual(currentSemVer) {
		logger.Debug("already running the latest version")
		return
	}

	if err := os.WriteFile(recordPath, []byte(latestSemVer.String()), 0644); err != nil {
		logger.Error("failed to save latest version", zap.Error(err))
	}

	logger.Info("new version available", zap.String("current", currentSemVer.String()), zap.String("latest", latestSemVer.String()))
	resultChannel <- latestSemVer.String()
}

// RecordedUpdate returns the version saved by a previous check if it is
// newer than currentVersion.
func RecordedUpdate(currentVersion, recordPath string) (string, bool) {
	currentSemVer, err := semver.NewVersion(currentVersion)
	if err != nil {
		return "", false
	}

	data, err := os.ReadFile(recordPath)
	if err != nil {
		return "", false
	}

	recorded, err := semver.NewVersion(strings.TrimSpace(string(data)))
	if err != nil || !recorded.GreaterThan(currentSemVer) {
		return "", false
	}

	return recorded.String(), true
}
