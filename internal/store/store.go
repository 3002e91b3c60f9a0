// Package store persists documents in a local SQLite database.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

type DocumentManager struct {
	db                *gorm.DB
	schemaVersionPath string
}

type Document struct {
	ID        string    `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time `gorm:"index"`

	Title string
	Body  string
}

const (
	documentSchemaVersion = 1
)

func NewDocumentManager(dbFilePath string) (*DocumentManager, error) {
	dbFileExists := true
	if _, err := os.Stat(dbFilePath); errors.Is(err, os.ErrNotExist) {
		dbFileExists = false
	} else if err != nil {
		return nil, fmt.Errorf("error checking documents db: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening documents db: %w", err)
	}

	manager := &DocumentManager{
		db:                db,
		schemaVersionPath: filepath.Join(filepath.Dir(dbFilePath), "documents_schema_version"),
	}

	if manager.needsMigration(dbFileExists) {
		if err := db.AutoMigrate(&Document{}); err != nil {
			return nil, fmt.Errorf("error auto-migrating documents schema: %w", err)
		}
		if err := manager.writeSchemaVersion(documentSchemaVersion); err != nil {
			return nil, fmt.Errorf("error writing documents schema version: %w", err)
		}
	}

	return manager, nil
}

func (m *DocumentManager) needsMigration(dbFileExists bool) bool {
	if !dbFileExists {
		return true
	}

	versionMatches, err := m.schemaVersionMatches()
	if err != nil || !versionMatches {
		return true
	}

	// The marker can outlive the table if the db was replaced by hand.
	return !m.db.Migrator().HasTable(&Document{})
}

func (m *DocumentManager) writeSchemaVersion(version int) error {
	return os.WriteFile(m.schemaVersionPath, []byte(strconv.Itoa(version)), 0644)
}

func (m *DocumentManager) schemaVersionMatches() (bool, error) {
	data, err := os.ReadFile(m.schemaVersionPath)
	if err != nil {
		return false, err
	}
	version, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, err
	}
	if version != documentSchemaVersion {
		return false, fmt.Errorf("documents schema version mismatch: got %d, want %d", version, documentSchemaVersion)
	}
	return true, nil
}

// Create stores a new document under a fresh id.
func (m *DocumentManager) Create(title, body string) (*Document, error) {
	doc := Document{
		ID:    uuid.NewString(),
		Title: title,
		Body:  body,
	}

	if result := m.db.Create(&doc); result.Error != nil {
		return nil, result.Error
	}

	return &doc, nil
}

// Save writes the document, inserting it if it does not exist yet.
func (m *DocumentManager) Save(doc *Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	if result := m.db.Save(doc); result.Error != nil {
		return result.Error
	}

	return nil
}

func (m *DocumentManager) Get(id string) (*Document, error) {
	var doc Document
	result := m.db.Where("id = ?", id).First(&doc)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if result.Error != nil {
		return nil, result.Error
	}

	return &doc, nil
}

// GetRecent returns documents ordered by last update, most recent first.
func (m *DocumentManager) GetRecent(limit int) ([]Document, error) {
	var docs []Document
	result := m.db.Order("updated_at desc").Limit(limit).Find(&docs)
	if result.Error != nil {
		return nil, result.Error
	}

	return docs, nil
}

type titleSource []Document

func (s titleSource) String(i int) string { return s[i].Title }
func (s titleSource) Len() int            { return len(s) }

// Search fuzzy-matches the query against document titles and returns the
// best matches first. An empty query returns the most recent documents.
func (m *DocumentManager) Search(query string, limit int) ([]Document, error) {
	if strings.TrimSpace(query) == "" {
		return m.GetRecent(limit)
	}

	var docs []Document
	result := m.db.Order("updated_at desc").Find(&docs)
	if result.Error != nil {
		return nil, result.Error
	}

	matches := fuzzy.FindFrom(query, titleSource(docs))

	found := make([]Document, 0, min(limit, len(matches)))
	for _, match := range matches {
		if len(found) == limit {
			break
		}
		found = append(found, docs[match.Index])
	}

	return found, nil
}

func (m *DocumentManager) Delete(id string) error {
	result := m.db.Where("id = ?", id).Delete(&Document{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

func (m *DocumentManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
