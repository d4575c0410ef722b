package storage

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pstuifzand/outline-diff/internal/model"
)

// ErrNoBackups is returned when a file has fewer backups than requested
var ErrNoBackups = errors.New("no backups found")

const (
	backupExt        = ".json"
	backupTimeLayout = "20060102_150405"
	sessionIDLen     = 8
)

// BackupManager stores timestamped snapshots of outline files
type BackupManager struct {
	backupDir string
}

// NewBackupManager creates a backup manager for dir, or for the default
// backup directory when dir is empty
func NewBackupManager(dir string) (*BackupManager, error) {
	if dir == "" {
		dir = getBackupDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	return &BackupManager{
		backupDir: dir,
	}, nil
}

// Dir returns the directory holding the backups
func (bm *BackupManager) Dir() string {
	return bm.backupDir
}

// CreateBackup writes a timestamped copy of outline and records the
// absolute path of the file it came from. It returns the backup's path.
func (bm *BackupManager) CreateBackup(outline *model.Outline, originalPath string, sessionID string) (string, error) {
	absPath, err := filepath.Abs(originalPath)
	if err != nil {
		absPath = originalPath
	}

	backup := *outline
	backup.OriginalFilename = absPath

	data, err := json.MarshalIndent(&backup, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal backup JSON: %w", err)
	}

	backupPath := filepath.Join(bm.backupDir, generateBackupFilename(time.Now(), sessionID))
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup file: %w", err)
	}

	return backupPath, nil
}

// generateBackupFilename creates a filename in the format: YYYYMMDD_HHMMSS_<sessionID>.json
func generateBackupFilename(t time.Time, sessionID string) string {
	return fmt.Sprintf("%s_%s%s", t.Format(backupTimeLayout), sessionID, backupExt)
}

// NewSessionID returns a random identifier for backup filenames
func NewSessionID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, sessionIDLen)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// getBackupDir returns the path to the backup directory
func getBackupDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".outline-diff", "backups")
	}
	return filepath.Join(homeDir, ".local", "share", "outline-diff", "backups")
}

// Contains reports whether path lies in the backup directory
func (bm *BackupManager) Contains(path string) bool {
	if path == "" {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return filepath.Dir(abs) == filepath.Clean(bm.backupDir)
}

// BackupMetadata holds parsed information about a backup file
type BackupMetadata struct {
	FilePath     string    // Full path to backup file
	Timestamp    time.Time // Parsed timestamp from filename
	SessionID    string
	OriginalFile string // Original filename stored in backup
}

// Load reads the outline stored in the backup
func (m BackupMetadata) Load() (*model.Outline, error) {
	f, err := os.Open(m.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// FindBackupsForFile returns all backups of originalFilePath, oldest first.
// An empty path returns every backup.
func (bm *BackupManager) FindBackupsForFile(originalFilePath string) ([]BackupMetadata, error) {
	entries, err := os.ReadDir(bm.backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var searchPath string
	if originalFilePath != "" {
		absPath, err := filepath.Abs(originalFilePath)
		if err != nil {
			searchPath = originalFilePath
		} else {
			searchPath = filepath.Clean(absPath)
		}
	}

	var backups []BackupMetadata
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), backupExt) {
			continue
		}

		metadata, err := parseBackupFilename(entry.Name(), filepath.Join(bm.backupDir, entry.Name()))
		if err != nil {
			continue
		}

		if searchPath != "" && filepath.Clean(metadata.OriginalFile) != searchPath {
			continue
		}

		backups = append(backups, metadata)
	}

	slices.SortFunc(backups, func(a, b BackupMetadata) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.FilePath, b.FilePath)
	})
	return backups, nil
}

// LatestBackups returns the n most recent backups of a file, oldest first
func (bm *BackupManager) LatestBackups(originalFilePath string, n int) ([]BackupMetadata, error) {
	backups, err := bm.FindBackupsForFile(originalFilePath)
	if err != nil {
		return nil, err
	}
	if len(backups) < n {
		return nil, fmt.Errorf("%s has %d backups, need %d: %w", originalFilePath, len(backups), n, ErrNoBackups)
	}
	return backups[len(backups)-n:], nil
}

// parseBackupFilename extracts metadata from a backup filename
// Expected format: YYYYMMDD_HHMMSS_<sessionID>.json
func parseBackupFilename(filename string, fullPath string) (BackupMetadata, error) {
	base := strings.TrimSuffix(filename, backupExt)
	if len(base) != len(backupTimeLayout)+1+sessionIDLen || base[len(backupTimeLayout)] != '_' {
		return BackupMetadata{}, fmt.Errorf("unexpected backup filename %q", filename)
	}

	timestamp, err := time.ParseInLocation(backupTimeLayout, base[:len(backupTimeLayout)], time.Local)
	if err != nil {
		return BackupMetadata{}, fmt.Errorf("invalid timestamp format: %w", err)
	}

	var originalFile string
	if data, err := os.ReadFile(fullPath); err == nil {
		var header struct {
			OriginalFilename string `json:"original_filename"`
		}
		if err := json.Unmarshal(data, &header); err == nil {
			originalFile = header.OriginalFilename
		}
	}

	return BackupMetadata{
		FilePath:     fullPath,
		Timestamp:    timestamp,
		SessionID:    base[len(backupTimeLayout)+1:],
		OriginalFile: originalFile,
	}, nil
}
