package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sahilm/fuzzy"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type HistoryManager struct {
	db          *gorm.DB
	versionPath string
}

// ReplyEntry is one generated reply together with the comment it answered.
// The saved post is never stored.
type ReplyEntry struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time `gorm:"index"`

	Model   string
	Comment string
	Reply   string
}

const (
	historySchemaVersion = 2

	// legacyPostColumn held the saved post in schema version 1
	legacyPostColumn = "post"

	// searchWindow bounds how many recent replies a fuzzy search considers
	searchWindow = 500
)

func NewHistoryManager(dbFilePath string) (*HistoryManager, error) {
	dbFileExists := true
	if _, err := os.Stat(dbFilePath); errors.Is(err, os.ErrNotExist) {
		dbFileExists = false
	} else if err != nil {
		return nil, fmt.Errorf("error checking history db: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening history db: %w", err)
	}

	historyManager := &HistoryManager{
		db:          db,
		versionPath: filepath.Join(filepath.Dir(dbFilePath), "history_schema_version"),
	}

	if historyManager.needsMigration(dbFileExists) {
		if err := db.AutoMigrate(&ReplyEntry{}); err != nil {
			return nil, fmt.Errorf("error auto-migrating history schema: %w", err)
		}
		if db.Migrator().HasColumn(&ReplyEntry{}, legacyPostColumn) {
			if err := db.Migrator().DropColumn(&ReplyEntry{}, legacyPostColumn); err != nil {
				return nil, fmt.Errorf("error dropping saved posts from history: %w", err)
			}
		}
		if err := historyManager.writeSchemaVersion(historySchemaVersion); err != nil {
			return nil, fmt.Errorf("error writing history schema version: %w", err)
		}
	}

	return historyManager, nil
}

func (historyManager *HistoryManager) needsMigration(dbFileExists bool) bool {
	if !dbFileExists {
		return true
	}

	versionMatches, err := historyManager.schemaVersionMatches()
	if err != nil || !versionMatches {
		return true
	}

	// If the version marker is present but the table is missing (corruption or manual deletion),
	// re-run migrations to restore the schema.
	return !historyManager.db.Migrator().HasTable(&ReplyEntry{})
}

func (historyManager *HistoryManager) writeSchemaVersion(version int) error {
	return os.WriteFile(historyManager.versionPath, []byte(strconv.Itoa(version)), 0644)
}

func (historyManager *HistoryManager) schemaVersionMatches() (bool, error) {
	data, err := os.ReadFile(historyManager.versionPath)
	if err != nil {
		return false, err
	}
	version, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, err
	}
	if version != historySchemaVersion {
		return false, fmt.Errorf("history schema version mismatch: got %d, want %d", version, historySchemaVersion)
	}
	return true, nil
}

// Close releases the underlying database handle.
func (historyManager *HistoryManager) Close() error {
	sqlDB, err := historyManager.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (historyManager *HistoryManager) RecordReply(entry *ReplyEntry) error {
	result := historyManager.db.Create(entry)
	if result.Error != nil {
		return result.Error
	}

	return nil
}

// GetRecentEntries returns up to limit replies, most recent first.
func (historyManager *HistoryManager) GetRecentEntries(limit int) ([]ReplyEntry, error) {
	var entries []ReplyEntry
	result := historyManager.db.Order("created_at desc").Order("id desc").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}

// SearchReplies fuzzy-matches query against the comment and reply of recent
// entries and returns up to limit matches, best first.
func (historyManager *HistoryManager) SearchReplies(query string, limit int) ([]ReplyEntry, error) {
	entries, err := historyManager.GetRecentEntries(searchWindow)
	if err != nil {
		return nil, err
	}

	matches := fuzzy.FindFrom(query, searchSource(entries))

	results := make([]ReplyEntry, 0, min(limit, len(matches)))
	for _, match := range matches {
		if len(results) >= limit {
			break
		}
		results = append(results, entries[match.Index])
	}

	return results, nil
}

func (historyManager *HistoryManager) DeleteEntry(id uint) error {
	result := historyManager.db.Delete(&ReplyEntry{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no history entry found with id %d", id)
	}

	return nil
}

func (historyManager *HistoryManager) ResetHistory() error {
	result := historyManager.db.Exec("DELETE FROM reply_entries")
	if result.Error != nil {
		return result.Error
	}

	return nil
}

type searchSource []ReplyEntry

func (s searchSource) String(i int) string {
	return s[i].Comment + "\n" + s[i].Reply
}

func (s searchSource) Len() int {
	return len(s)
}
