package uploads

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Manager owns the on-disk audio workspace: downloaded call recordings
// under the upload dir, synthesized replies under the processed dir.
type Manager struct {
	uploadDir    string
	processedDir string
	cleanupDelay time.Duration
	client       *http.Client
	logger       *zap.Logger
}

// NewManager creates an uploads manager.
func NewManager(uploadDir, processedDir string, cleanupDelay, downloadTimeout time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		uploadDir:    uploadDir,
		processedDir: processedDir,
		cleanupDelay: cleanupDelay,
		client:       &http.Client{Timeout: downloadTimeout},
		logger:       logger,
	}
}

// EnsureDirs creates the upload and processed directories.
func (m *Manager) EnsureDirs() error {
	for _, dir := range []string{m.uploadDir, m.processedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// RecordingPath returns a fresh temp path for a downloaded call recording.
func (m *Manager) RecordingPath(callSid string) string {
	return filepath.Join(m.uploadDir, fmt.Sprintf("audio_%s_%d.mp3", callSid, time.Now().UnixMilli()))
}

// UploadPath returns a path under the upload dir for the given name.
func (m *Manager) UploadPath(name string) string {
	return filepath.Join(m.uploadDir, name)
}

// TTSPath returns a fresh path for a synthesized reply.
func (m *Manager) TTSPath(callSid string) string {
	return filepath.Join(m.processedDir, fmt.Sprintf("tts_%s_%d.mp3", callSid, time.Now().UnixMilli()))
}

// ProcessedDir is where synthesized audio is written, for static serving.
func (m *Manager) ProcessedDir() string {
	return m.processedDir
}

// Download fetches url into dest.
func (m *Manager) Download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("audio download failed: status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to write audio file: %w", err)
	}

	return out.Close()
}

// Write stores audio bytes at dest.
func (m *Manager) Write(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	return nil
}

// Remove deletes the file. A missing file is not an error.
func (m *Manager) Remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("Failed to remove audio file",
			zap.String("path", path),
			zap.Error(err),
		)
	}
}

// ScheduleRemove deletes the file after the cleanup delay, so the
// telephony provider has time to fetch it.
func (m *Manager) ScheduleRemove(path string) {
	time.AfterFunc(m.cleanupDelay, func() {
		m.Remove(path)
	})
}

// Sweep removes files older than maxAge from both directories. Returns
// how many files were removed.
func (m *Manager) Sweep(maxAge time.Duration) int {
	removed := 0
	cutoff := time.Now().Add(-maxAge)

	for _, dir := range []string{m.uploadDir, m.processedDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				m.logger.Warn("Failed to read audio directory",
					zap.String("dir", dir),
					zap.Error(err),
				)
			}
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				path := filepath.Join(dir, entry.Name())
				if err := os.Remove(path); err == nil {
					removed++
				}
			}
		}
	}

	return removed
}

// RunJanitor sweeps stale audio files on a fixed interval until the
// context is cancelled. Catches anything a scheduled removal missed,
// for example after a restart.
func (m *Manager) RunJanitor(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := m.Sweep(maxAge); removed > 0 {
				m.logger.Info("Swept stale audio files", zap.Int("removed", removed))
			}
		}
	}
}
