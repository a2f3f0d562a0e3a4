package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "chordlens.sqlite3"
const errDBClientNil = "db client is nil"

// ErrNotFound is returned when a history record does not exist.
var ErrNotFound = errors.New("record not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// AnalysisRecord is one finished or failed analysis run.
type AnalysisRecord struct {
	ID                   string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RemoteID             int       `gorm:"index:idx_remote_id" json:"remote_id"`
	SourceFile           string    `json:"source_file"`
	Artist               string    `gorm:"index:idx_analysis_meta,priority:1" json:"artist"`
	Title                string    `gorm:"index:idx_analysis_meta,priority:2" json:"title"`
	IdentificationSource string    `json:"identification_source"`
	Confidence           float64   `json:"confidence"`
	Key                  string    `json:"key"`
	BPM                  float64   `json:"bpm"`
	DurationSec          float64   `json:"duration_sec"`
	Status               string    `json:"status"`
	Error                string    `json:"error,omitempty"`
	CreatedAt            time.Time `gorm:"index" json:"created_at"`
}

// DownloadRecord is one file fetched through the download service.
type DownloadRecord struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	URL       string    `json:"url"`
	VideoID   string    `gorm:"index:idx_video_id" json:"video_id"`
	Kind      string    `json:"kind"`
	Format    string    `json:"format"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	FilePath  string    `json:"file_path"`
	FileSize  int64     `json:"file_size"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("CHORDLENS_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&AnalysisRecord{}, &DownloadRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// SaveAnalysis inserts rec, assigning an ID when it has none.
func (c *DBClient) SaveAnalysis(rec *AnalysisRecord) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := c.DB.Create(rec).Error; err != nil {
		return fmt.Errorf("creating analysis record: %w", err)
	}
	return nil
}

func (c *DBClient) GetAnalysis(id string) (*AnalysisRecord, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rec AnalysisRecord
	if err := c.DB.Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("querying analysis: %w", err)
	}
	return &rec, nil
}

// LatestAnalysis returns the most recent analysis with a backend ID.
func (c *DBClient) LatestAnalysis() (*AnalysisRecord, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rec AnalysisRecord
	err := c.DB.Where("remote_id > 0").Order("created_at DESC").First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("latest analysis: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("querying latest analysis: %w", err)
	}
	return &rec, nil
}

// ListAnalyses returns up to limit records, newest first. A non-positive
// limit returns everything.
func (c *DBClient) ListAnalyses(limit int) ([]AnalysisRecord, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var recs []AnalysisRecord
	q := c.DB.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	return recs, nil
}

func (c *DBClient) DeleteAnalysis(id string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	res := c.DB.Where("id = ?", id).Delete(&AnalysisRecord{})
	if res.Error != nil {
		return fmt.Errorf("deleting analysis: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	return nil
}

func (c *DBClient) SaveDownload(rec *DownloadRecord) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := c.DB.Create(rec).Error; err != nil {
		return fmt.Errorf("creating download record: %w", err)
	}
	return nil
}

func (c *DBClient) ListDownloads(limit int) ([]DownloadRecord, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var recs []DownloadRecord
	q := c.DB.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing downloads: %w", err)
	}
	return recs, nil
}
