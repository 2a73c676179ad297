// Package reliability provides database backups, verification and maintenance.
package reliability

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/aristath/satellite/internal/database"
	"github.com/aristath/satellite/internal/events"
)

const (
	backupPrefix     = "satellite-backup-"
	backupSuffix     = ".db"
	backupTimeLayout = "2006-01-02-150405"

	// minBackupsToKeep survive rotation regardless of age
	minBackupsToKeep = 3
)

// EventEmitter publishes domain events
type EventEmitter interface {
	Emit(module string, data events.EventData)
}

// BackupInfo describes one stored backup
type BackupInfo struct {
	Timestamp time.Time `json:"timestamp"`
	Filename  string    `json:"filename"`
	Checksum  string    `json:"checksum,omitempty"`
	SizeBytes int64     `json:"sizeBytes"`
	AgeHours  int64     `json:"ageHours"`
}

// BackupResult is the outcome of a single backup run
type BackupResult struct {
	BackupInfo
	Path          string  `json:"path"`
	RemoteKey     string  `json:"remoteKey,omitempty"`
	DurationMs    float64 `json:"durationMs"`
	RotatedLocal  int     `json:"rotatedLocal"`
	RotatedRemote int     `json:"rotatedRemote"`
}

// BackupService snapshots the database into a local directory and
// optionally mirrors each snapshot to a remote bucket
type BackupService struct {
	db            *database.DB
	remote        RemoteStore
	emitter       EventEmitter
	now           func() time.Time
	backupDir     string
	retentionDays int
	mu            sync.Mutex
	log           zerolog.Logger
}

// NewBackupService creates a new backup service. remote and emitter may be nil.
func NewBackupService(
	db *database.DB,
	backupDir string,
	retentionDays int,
	remote RemoteStore,
	emitter EventEmitter,
	log zerolog.Logger,
) *BackupService {
	return &BackupService{
		db:            db,
		remote:        remote,
		emitter:       emitter,
		now:           time.Now,
		backupDir:     backupDir,
		retentionDays: retentionDays,
		log:           log.With().Str("service", "backup").Logger(),
	}
}

// BackupDir returns the local backup directory
func (s *BackupService) BackupDir() string {
	return s.backupDir
}

// CreateBackup writes a verified snapshot, uploads it when a remote store is
// configured and rotates old snapshots on both sides
func (s *BackupService) CreateBackup(ctx context.Context) (*BackupResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	startTime := s.now()
	s.log.Info().Msg("Starting database backup")

	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	filename := backupPrefix + startTime.UTC().Format(backupTimeLayout) + backupSuffix
	path := filepath.Join(s.backupDir, filename)
	if _, err := os.Stat(path); err == nil {
		// VACUUM INTO refuses to overwrite
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("failed to replace existing backup: %w", err)
		}
	}

	if err := s.db.VacuumInto(ctx, path); err != nil {
		return nil, fmt.Errorf("failed to snapshot database: %w", err)
	}

	if err := VerifyBackup(ctx, path); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}
	checksum, err := fileChecksum(path)
	if err != nil {
		return nil, fmt.Errorf("failed to checksum backup: %w", err)
	}

	result := &BackupResult{
		BackupInfo: BackupInfo{
			Timestamp: startTime.UTC(),
			Filename:  filename,
			Checksum:  checksum,
			SizeBytes: info.Size(),
		},
		Path: path,
	}

	if s.remote != nil {
		if err := s.upload(ctx, path, filename); err != nil {
			return nil, err
		}
		result.RemoteKey = filename
	}

	rotated, err := s.rotateLocal()
	if err != nil {
		s.log.Warn().Err(err).Msg("Local backup rotation failed")
	}
	result.RotatedLocal = rotated

	if s.remote != nil {
		rotated, err := s.rotateRemote(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("Remote backup rotation failed")
		}
		result.RotatedRemote = rotated
	}

	duration := s.now().Sub(startTime)
	result.DurationMs = float64(duration.Milliseconds())

	s.log.Info().
		Str("filename", filename).
		Int64("size_bytes", result.SizeBytes).
		Str("remote_key", result.RemoteKey).
		Int("rotated_local", result.RotatedLocal).
		Int("rotated_remote", result.RotatedRemote).
		Dur("duration_ms", duration).
		Msg("Database backup completed")

	if s.emitter != nil {
		s.emitter.Emit("reliability", &events.BackupCompletedData{
			Path:      path,
			RemoteKey: result.RemoteKey,
			SizeBytes: result.SizeBytes,
			Duration:  duration.Seconds(),
			Rotated:   result.RotatedLocal + result.RotatedRemote,
		})
	}

	return result, nil
}

// ListBackups returns local backups, newest first
func (s *BackupService) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BackupInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	now := s.now()
	backups := make([]BackupInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, ok := parseBackupName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Timestamp: ts,
			Filename:  entry.Name(),
			SizeBytes: info.Size(),
			AgeHours:  int64(now.Sub(ts).Hours()),
		})
	}

	sortNewestFirst(backups)
	return backups, nil
}

func (s *BackupService) upload(ctx context.Context, path, key string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open backup for upload: %w", err)
	}
	defer file.Close()

	if err := s.remote.Upload(ctx, key, file); err != nil {
		return fmt.Errorf("failed to upload backup: %w", err)
	}
	return nil
}

// rotateLocal deletes local backups past retention, keeping the newest few
func (s *BackupService) rotateLocal() (int, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}

	backups, err := s.ListBackups()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, name := range expired(backups, s.now().AddDate(0, 0, -s.retentionDays)) {
		if err := os.Remove(filepath.Join(s.backupDir, name)); err != nil {
			s.log.Error().Err(err).Str("filename", name).Msg("Failed to delete old backup")
			continue
		}
		s.log.Info().Str("filename", name).Msg("Deleted old backup")
		deleted++
	}
	return deleted, nil
}

func (s *BackupService) rotateRemote(ctx context.Context) (int, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}

	objects, err := s.remote.List(ctx, backupPrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list remote backups: %w", err)
	}

	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		ts, ok := parseBackupName(obj.Key)
		if !ok {
			continue
		}
		backups = append(backups, BackupInfo{Timestamp: ts, Filename: obj.Key, SizeBytes: obj.SizeBytes})
	}
	sortNewestFirst(backups)

	deleted := 0
	for _, key := range expired(backups, s.now().AddDate(0, 0, -s.retentionDays)) {
		if err := s.remote.Delete(ctx, key); err != nil {
			s.log.Error().Err(err).Str("key", key).Msg("Failed to delete remote backup")
			continue
		}
		deleted++
	}
	return deleted, nil
}

// expired returns the names of backups older than cutoff, skipping the
// newest minBackupsToKeep. backups must be sorted newest first.
func expired(backups []BackupInfo, cutoff time.Time) []string {
	var names []string
	for i, b := range backups {
		if i < minBackupsToKeep {
			continue
		}
		if b.Timestamp.Before(cutoff) {
			names = append(names, b.Filename)
		}
	}
	return names
}

func sortNewestFirst(backups []BackupInfo) {
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
}

// parseBackupName extracts the timestamp from satellite-backup-<ts>.db
func parseBackupName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
		return time.Time{}, false
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), backupSuffix)
	ts, err := time.Parse(backupTimeLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// VerifyBackup opens a backup and runs an integrity check on it
func VerifyBackup(ctx context.Context, path string) error {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open backup %s: %w", path, err)
	}
	defer conn.Close()

	if err := database.IntegrityCheck(ctx, conn); err != nil {
		return fmt.Errorf("backup %s failed verification: %w", path, err)
	}

	missing, err := database.MissingTables(ctx, conn)
	if err != nil {
		return fmt.Errorf("failed to inspect backup %s: %w", path, err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("backup %s is missing tables: %s", path, strings.Join(missing, ", "))
	}
	return nil
}

func fileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}
