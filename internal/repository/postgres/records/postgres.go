package records

import (
	"context"
	"errors"
	"time"

	familydomain "cras-cadastro/internal/domain/family"
	"cras-cadastro/internal/repository/blob"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type recordBlob struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Payload   string    `gorm:"column:payload;type:jsonb"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (recordBlob) TableName() string {
	return "record_blobs"
}

// PostgresRepository keeps the collection in one row of record_blobs. Update
// holds a row lock for the whole read-modify-write.
type PostgresRepository struct {
	db  *gorm.DB
	key string
}

func NewPostgres(db *gorm.DB, key string) *PostgresRepository {
	if key == "" {
		key = blob.DefaultKey
	}
	return &PostgresRepository{db: db, key: key}
}

func (r *PostgresRepository) LoadAll(ctx context.Context) ([]familydomain.Family, error) {
	var row recordBlob
	err := r.db.WithContext(ctx).Where("key = ?", r.key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []familydomain.Family{}, nil
	}
	if err != nil {
		return nil, err
	}
	return blob.Decode([]byte(row.Payload))
}

func (r *PostgresRepository) SaveAll(ctx context.Context, families []familydomain.Family) error {
	payload, err := blob.Encode(families)
	if err != nil {
		return err
	}
	return r.upsert(r.db.WithContext(ctx), payload)
}

func (r *PostgresRepository) Update(ctx context.Context, mutate familydomain.Mutation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := recordBlob{Key: r.key, Payload: "[]", UpdatedAt: time.Now().UTC()}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}

		var row recordBlob
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("key = ?", r.key).First(&row).Error; err != nil {
			return err
		}

		families, err := blob.Decode([]byte(row.Payload))
		if err != nil {
			return err
		}
		updated, changed, err := mutate(families)
		if err != nil || !changed {
			return err
		}
		payload, err := blob.Encode(updated)
		if err != nil {
			return err
		}
		return r.upsert(tx, payload)
	})
}

func (r *PostgresRepository) upsert(db *gorm.DB, payload []byte) error {
	row := recordBlob{Key: r.key, Payload: string(payload), UpdatedAt: time.Now().UTC()}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
}
