// Package postgres implements store.FingerprintStore against Postgres using
// GORM, grounded on the corpus's GORM models (Song/Fingerprint with a
// foreign-key cascade-delete constraint) rather than the teacher's parallel
// raw database/sql + pgx draft, because the GORM shape already expresses
// the cascade-delete relationship spec §4.4 requires declaratively and
// auto-migrates the indexed bulk table in one call.
package postgres

import (
	"context"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shazoom/errs"
	"shazoom/models"
	gstore "shazoom/store"
)

// recordingRow is the GORM model for the recordings table.
type recordingRow struct {
	ID            uint64 `gorm:"primaryKey"`
	Title         string `gorm:"size:500;not null"`
	Artist        string `gorm:"size:500;not null"`
	Album         string `gorm:"size:500"`
	DurationSec   float64
	ContentDigest string `gorm:"size:64;uniqueIndex;not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`

	Fingerprints []fingerprintRow `gorm:"foreignKey:RecordingID;constraint:OnDelete:CASCADE"`
}

func (recordingRow) TableName() string { return "recordings" }

// fingerprintRow is the GORM model for the fingerprints table. Hash is
// stored as a signed 64-bit integer (Postgres has no unsigned type); the
// bit pattern round-trips exactly through a plain conversion.
type fingerprintRow struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	Hash        int64  `gorm:"index:idx_hash;not null"`
	AnchorTime  uint32 `gorm:"not null"`
	RecordingID uint64 `gorm:"index:idx_recording_id;not null"`
}

func (fingerprintRow) TableName() string { return "fingerprints" }

type catalogueConfigRow struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value string `gorm:"size:64"`
}

func (catalogueConfigRow) TableName() string { return "catalogue_config" }

const configHashKey = "extractor_config_hash"

// Store wraps a GORM connection.
type Store struct {
	db *gorm.DB
}

// Open connects to dsn and auto-migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errs.New(errs.StoreUnavailable, "connecting to postgres", err)
	}

	if err := db.AutoMigrate(&recordingRow{}, &fingerprintRow{}, &catalogueConfigRow{}); err != nil {
		return nil, errs.New(errs.StoreUnavailable, "migrating schema", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) PutRecording(ctx context.Context, meta models.Recording, tuples []models.Tuple) (uint64, error) {
	var existing recordingRow
	err := s.db.WithContext(ctx).Where("content_digest = ?", meta.ContentDigest).First(&existing).Error
	if err == nil {
		return 0, errs.New(errs.DuplicateContent, "content already catalogued", &gstore.DuplicateError{ExistingID: existing.ID})
	}
	if err != gorm.ErrRecordNotFound {
		return 0, errs.New(errs.StoreUnavailable, "checking content digest", err)
	}

	row := recordingRow{
		Title:         meta.Title,
		Artist:        meta.Artist,
		Album:         meta.Album,
		DurationSec:   meta.DurationSec,
		ContentDigest: meta.ContentDigest,
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		rows := make([]fingerprintRow, len(tuples))
		for i, tp := range tuples {
			rows[i] = fingerprintRow{
				Hash:        int64(tp.Hash),
				AnchorTime:  tp.AnchorTime,
				RecordingID: row.ID,
			}
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, 500).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		// a concurrent ingest of the same content may have won the
		// content_digest unique index; resolve to its id as a duplicate.
		var winner recordingRow
		if s.db.WithContext(ctx).Where("content_digest = ?", meta.ContentDigest).First(&winner).Error == nil {
			return 0, errs.New(errs.DuplicateContent, "content already catalogued", &gstore.DuplicateError{ExistingID: winner.ID})
		}
		return 0, errs.New(errs.StoreUnavailable, "writing recording", txErr)
	}

	return row.ID, nil
}

func (s *Store) DeleteRecording(ctx context.Context, recordingID uint64) error {
	result := s.db.WithContext(ctx).Where("id = ?", recordingID).Delete(&recordingRow{})
	if result.Error != nil {
		return errs.New(errs.StoreUnavailable, "deleting recording", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.New(errs.NotFound, "recording not found", nil)
	}
	return nil
}

func (s *Store) Lookup(ctx context.Context, hashes []uint64) ([]models.Posting, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	signed := make([]int64, len(hashes))
	for i, h := range hashes {
		signed[i] = int64(h)
	}

	var rows []fingerprintRow
	if err := s.db.WithContext(ctx).Where("hash IN ?", signed).Find(&rows).Error; err != nil {
		return nil, errs.New(errs.StoreUnavailable, "looking up hashes", err)
	}

	out := make([]models.Posting, len(rows))
	for i, r := range rows {
		out[i] = models.Posting{
			Hash:        uint64(r.Hash),
			RecordingID: r.RecordingID,
			StoredTime:  r.AnchorTime,
		}
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, recordingID uint64) (models.Recording, error) {
	var row recordingRow
	err := s.db.WithContext(ctx).Where("id = ?", recordingID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return models.Recording{}, errs.New(errs.NotFound, "recording not found", nil)
	}
	if err != nil {
		return models.Recording{}, errs.New(errs.StoreUnavailable, "fetching recording", err)
	}
	return toModel(row), nil
}

func (s *Store) List(ctx context.Context) ([]models.Recording, error) {
	var rows []recordingRow
	if err := s.db.WithContext(ctx).Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, errs.New(errs.StoreUnavailable, "listing recordings", err)
	}
	out := make([]models.Recording, len(rows))
	for i, r := range rows {
		out[i] = toModel(r)
	}
	return out, nil
}

func (s *Store) Stats(ctx context.Context) (models.Stats, error) {
	var recordingCount, tupleCount int64
	if err := s.db.WithContext(ctx).Model(&recordingRow{}).Count(&recordingCount).Error; err != nil {
		return models.Stats{}, errs.New(errs.StoreUnavailable, "counting recordings", err)
	}
	if err := s.db.WithContext(ctx).Model(&fingerprintRow{}).Count(&tupleCount).Error; err != nil {
		return models.Stats{}, errs.New(errs.StoreUnavailable, "counting fingerprints", err)
	}
	return models.Stats{RecordingCount: recordingCount, TupleCount: tupleCount}, nil
}

func (s *Store) ConfigHash(ctx context.Context) (string, error) {
	var row catalogueConfigRow
	err := s.db.WithContext(ctx).Where("key = ?", configHashKey).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", errs.New(errs.StoreUnavailable, "reading config hash", err)
	}
	return row.Value, nil
}

func (s *Store) SetConfigHash(ctx context.Context, hash string) error {
	row := catalogueConfigRow{Key: configHashKey, Value: hash}
	err := s.db.WithContext(ctx).Save(&row).Error
	if err != nil {
		return errs.New(errs.StoreUnavailable, "writing config hash", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toModel(r recordingRow) models.Recording {
	return models.Recording{
		ID:            r.ID,
		Title:         r.Title,
		Artist:        r.Artist,
		Album:         r.Album,
		DurationSec:   r.DurationSec,
		ContentDigest: r.ContentDigest,
		CreatedAt:     r.CreatedAt,
	}
}
