// Package artifact owns the lifecycle of transient download artifacts in an
// output directory. Every job gets its own temp namespace
// (temp-<jobID>.*), so concurrent jobs sharing a directory never see each
// other's files and cleanup never reaches outside the job's namespace.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ytget/streamflare/internal/model"
	"github.com/ytget/streamflare/internal/platform"
)

// Naming constants
const (
	TempPrefix  = "temp-"
	ExtTemplate = "%(ext)s"
	// StaleAge is how long leftovers of an interrupted run are kept.
	StaleAge = 24 * time.Hour
)

// SubtitleExtensions are sidecar files adopted next to the final file.
var SubtitleExtensions = []string{"vtt", "srt", "ass", "ttml", "srv3"}

// Manager handles temp artifacts of one output directory.
type Manager struct {
	dir string
	log *zap.Logger
}

// NewManager creates a manager for dir.
func NewManager(dir string, log *zap.Logger) *Manager {
	return &Manager{dir: dir, log: log}
}

// Dir returns the managed output directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Stem returns the temp file stem of a job.
func (m *Manager) Stem(jobID string) string {
	return TempPrefix + platform.SanitizeFilename(jobID)
}

// Template returns the extractor output template for a job's temp artifact.
func (m *Manager) Template(jobID string) string {
	return filepath.Join(m.dir, m.Stem(jobID)+"."+ExtTemplate)
}

// TempPath returns the temp artifact path for a given extension.
func (m *Manager) TempPath(jobID, ext string) string {
	return filepath.Join(m.dir, m.Stem(jobID)+"."+strings.TrimPrefix(ext, "."))
}

// Cleanup removes every file in the job's temp namespace. Calling it when
// nothing is there is a no-op.
func (m *Manager) Cleanup(jobID string) error {
	matches, err := m.namespace(jobID)
	if err != nil {
		return err
	}

	var failed []string
	for _, path := range matches {
		if err := platform.RemoveIfExists(path); err != nil {
			failed = append(failed, path)
			continue
		}
		m.log.Debug("removed temp artifact", zap.String("path", path))
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to remove temp artifacts: %s", strings.Join(failed, ", "))
	}
	return nil
}

// SweepStale removes job temp artifacts last modified more than maxAge ago.
// Job IDs are unique per run, so files left by a killed run are never
// reached by Cleanup. Live jobs keep touching their files and are skipped.
func (m *Manager) SweepStale(maxAge time.Duration) ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list temp artifacts: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	var removed []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), TempPrefix+model.JobIDPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(m.dir, entry.Name())
		if err := platform.RemoveIfExists(path); err != nil {
			m.log.Warn("failed to remove stale temp artifact", zap.String("path", path), zap.Error(err))
			continue
		}
		removed = append(removed, path)
	}
	if len(removed) > 0 {
		m.log.Info("removed stale temp artifacts", zap.Int("count", len(removed)), zap.String("dir", m.dir))
	}
	return removed, nil
}

// Locate finds the materialized media file of a job. Preferred extensions
// are tried in order, then any recognized media extension. Partial
// downloads, metadata and subtitle sidecars are never returned.
func (m *Manager) Locate(jobID string, preferred ...string) (string, string, error) {
	for _, ext := range preferred {
		path := m.TempPath(jobID, ext)
		if isNonEmptyFile(path) {
			return path, strings.TrimPrefix(ext, "."), nil
		}
	}

	matches, err := m.namespace(jobID)
	if err != nil {
		return "", "", err
	}
	stem := m.Stem(jobID)
	for _, path := range matches {
		rest := strings.TrimPrefix(filepath.Base(path), stem+".")
		// rest is the bare extension for media; sidecars and yt-dlp
		// fragments carry extra dots (temp-x.en.vtt, temp-x.f137.mp4)
		if strings.Contains(rest, ".") || !model.IsMediaExtension(rest) {
			continue
		}
		if isNonEmptyFile(path) {
			return path, rest, nil
		}
	}

	return "", "", model.Errorf(model.KindMissingArtifact, "locate",
		"temporary file %s.* does not exist in %s", stem, m.dir)
}

// Finalize moves src to dst. On success src no longer exists and dst is
// replaced if it was already there.
func (m *Manager) Finalize(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		return model.NewError(model.KindMissingArtifact, "finalize", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", src, dst, err)
	}
	m.log.Debug("finalized artifact", zap.String("from", src), zap.String("to", dst))
	return nil
}

// AdoptSidecars moves subtitle sidecars of a job next to finalPath, named
// <final-stem>.<lang>.<ext>. It returns the adopted paths.
func (m *Manager) AdoptSidecars(jobID, finalPath string) ([]string, error) {
	matches, err := m.namespace(jobID)
	if err != nil {
		return nil, err
	}

	stem := m.Stem(jobID)
	finalStem := strings.TrimSuffix(finalPath, filepath.Ext(finalPath))
	var adopted []string
	for _, path := range matches {
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if !slices.Contains(SubtitleExtensions, ext) {
			continue
		}
		suffix := strings.TrimPrefix(filepath.Base(path), stem)
		dst := finalStem + suffix
		if err := os.Rename(path, dst); err != nil {
			return adopted, fmt.Errorf("failed to move subtitle %s: %w", path, err)
		}
		adopted = append(adopted, dst)
	}
	return adopted, nil
}

// FinalPath builds <dir>/<sanitized name>.<ext>. A name that already ends
// with the extension is not suffixed twice.
func (m *Manager) FinalPath(name string, format model.Format) string {
	ext := "." + format.Extension()
	name = strings.TrimSpace(name)
	if strings.HasSuffix(strings.ToLower(name), ext) {
		name = name[:len(name)-len(ext)]
	}
	if name == "" {
		name = model.DefaultTitle
	}
	return filepath.Join(m.dir, platform.SanitizeFilename(name)+ext)
}

// namespace lists every file of the job's temp namespace, including
// partial downloads. A missing directory yields an empty namespace.
func (m *Manager) namespace(jobID string) ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list temp artifacts: %w", err)
	}

	prefix := m.Stem(jobID) + "."
	var matches []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		matches = append(matches, filepath.Join(m.dir, entry.Name()))
	}
	return matches, nil
}

func isNonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}
