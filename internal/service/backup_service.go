package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"sundaytable/internal/database"
	"sundaytable/internal/models"
	"sundaytable/internal/repository"
)

const backupVersion = "1.0"

// Format is a backup file encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported backup format %q", s)
}

// FormatForPath picks the format from a file extension, defaulting to JSON
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string                `json:"version" yaml:"version"`
	ExportedAt   time.Time             `json:"exported_at" yaml:"exported_at"`
	DatabaseType string                `json:"database_type" yaml:"database_type"`
	Config       models.RotationConfig `json:"config" yaml:"config"`
	Dinners      []models.Dinner       `json:"dinners" yaml:"dinners"`
}

// ImportResult counts what an import wrote
type ImportResult struct {
	ConfigCreated   bool
	DinnersImported int
	DinnersSkipped  int
}

// BackupService exports and restores the config and every dinner
type BackupService struct {
	db         *database.DB
	configRepo *repository.ConfigRepository
	dinnerRepo *repository.DinnerRepository
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{
		db:         db,
		configRepo: repository.NewConfigRepository(db),
		dinnerRepo: repository.NewDinnerRepository(db),
	}
}

// Export reads a consistent copy of the whole store
func (s *BackupService) Export(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.Name(),
	}

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		cfg, err := s.configRepo.WithTx(tx).GetConfig(ctx)
		if err != nil {
			return fmt.Errorf("failed to export config: %w", err)
		}
		dinners, err := s.dinnerRepo.WithTx(tx).ListDinners(ctx)
		if err != nil {
			return fmt.Errorf("failed to export dinners: %w", err)
		}
		backup.Config = *cfg
		backup.Dinners = dinners
		return nil
	})
	if err != nil {
		return nil, err
	}
	if backup.Dinners == nil {
		backup.Dinners = []models.Dinner{}
	}
	return backup, nil
}

// ExportToWriter writes a backup to w in the given format
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer, format Format) error {
	backup, err := s.Export(ctx)
	if err != nil {
		return err
	}
	if err := EncodeBackup(w, backup, format); err != nil {
		return err
	}
	log.Printf("Exported config with %d families and %d dinners", len(backup.Config.Families), len(backup.Dinners))
	return nil
}

// EncodeBackup writes backup to w
func EncodeBackup(w io.Writer, backup *BackupData, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(backup); err != nil {
			return fmt.Errorf("failed to encode backup: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(backup); err != nil {
			return fmt.Errorf("failed to encode backup: %w", err)
		}
		return nil
	}
}

// DecodeBackup reads and validates a backup from r
func DecodeBackup(r io.Reader, format Format) (*BackupData, error) {
	var backup BackupData
	var err error
	switch format {
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&backup)
	default:
		err = json.NewDecoder(r).Decode(&backup)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if err := backup.Validate(); err != nil {
		return nil, err
	}
	return &backup, nil
}

// Validate checks the backup is internally consistent
func (b *BackupData) Validate() error {
	cfg := b.Config
	if len(cfg.Families) == 0 {
		return fmt.Errorf("backup has no families")
	}
	seen := map[string]bool{}
	for _, f := range cfg.Families {
		if f.ID == "" || seen[f.ID] {
			return fmt.Errorf("backup has a missing or duplicate family id %q", f.ID)
		}
		seen[f.ID] = true
	}
	for _, id := range cfg.HostRotation {
		if !seen[id] {
			return fmt.Errorf("host rotation references unknown family %q", id)
		}
	}
	if cfg.LastHostIndex < -1 || cfg.LastHostIndex >= len(cfg.HostRotation) {
		return fmt.Errorf("last host index %d is out of range", cfg.LastHostIndex)
	}

	dates := map[models.DateKey]bool{}
	for _, d := range b.Dinners {
		if _, err := models.ParseDateKey(string(d.Date)); err != nil {
			return fmt.Errorf("dinner has invalid date %q", d.Date)
		}
		if dates[d.Date] {
			return fmt.Errorf("dinner %s appears twice", d.Date)
		}
		dates[d.Date] = true
		if d.Confirmed && d.HostID == "" {
			return fmt.Errorf("dinner %s is confirmed without a host", d.Date)
		}
		if d.HostID != "" && !seen[d.HostID] {
			return fmt.Errorf("dinner %s has unknown host %q", d.Date, d.HostID)
		}
		for id := range d.Responses {
			if !seen[id] {
				return fmt.Errorf("dinner %s has a response from unknown family %q", d.Date, id)
			}
		}
	}
	return nil
}

// Import restores backup in one transaction. Without clear, existing rows win
// and only missing dinners are added.
func (s *BackupService) Import(ctx context.Context, backup *BackupData, clear bool) (ImportResult, error) {
	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	var result ImportResult
	now := time.Now().UTC()
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		configs := s.configRepo.WithTx(tx)
		dinners := s.dinnerRepo.WithTx(tx)

		if clear {
			if err := dinners.DeleteAll(ctx); err != nil {
				return err
			}
			if err := configs.DeleteAll(ctx); err != nil {
				return err
			}
		}

		created, err := configs.CreateConfig(ctx, backup.Config, now)
		if err != nil {
			return fmt.Errorf("failed to import config: %w", err)
		}
		result.ConfigCreated = created

		for _, d := range backup.Dinners {
			if d.Responses == nil {
				d.Responses = map[string]models.Availability{}
			}
			ok, err := dinners.InsertDinner(ctx, d, now)
			if err != nil {
				return fmt.Errorf("failed to import dinner %s: %w", d.Date, err)
			}
			if ok {
				result.DinnersImported++
			} else {
				result.DinnersSkipped++
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	log.Printf("Import completed: config created=%t, %d dinners imported, %d skipped",
		result.ConfigCreated, result.DinnersImported, result.DinnersSkipped)
	return result, nil
}

// ImportFromReader decodes and restores a backup
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader, format Format, clear bool) (ImportResult, error) {
	backup, err := DecodeBackup(r, format)
	if err != nil {
		return ImportResult{}, err
	}
	return s.Import(ctx, backup, clear)
}
