package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/diewo77/metertrack/internal/models"
)

// Store is the persistence gateway. Every request runs its reads and writes
// inside a single transaction obtained from Tx; the session never outlives
// the request.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{db: db} }

// Tx opens one transaction scoped to the request context. gorm commits when
// fn returns nil and rolls back on error or panic, so the session is
// released on every exit path.
func (s *Store) Tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// GetProfile fetches a profile by primary key. Returns (nil, nil) when the
// row does not exist.
func GetProfile(tx *gorm.DB, id uint) (*models.Profile, error) {
	var p models.Profile
	if err := tx.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ProfilesByUser lists the caller's profiles.
func ProfilesByUser(tx *gorm.DB, userID string) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := tx.Where("user_id = ?", userID).Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func CreateProfile(tx *gorm.DB, p *models.Profile) error {
	return tx.Create(p).Error
}

func UpdateInitialReading(tx *gorm.DB, p *models.Profile, value int64) error {
	p.InitialReading = &value
	return tx.Model(p).Update("initial_reading", value).Error
}

// DeleteProfile removes a profile and its readings in the same transaction.
// The schema also declares ON DELETE CASCADE; the explicit delete keeps the
// behavior identical on engines where the constraint is not enforced.
func DeleteProfile(tx *gorm.DB, p *models.Profile) error {
	if err := tx.Where("profile_id = ?", p.ID).Delete(&models.Reading{}).Error; err != nil {
		return err
	}
	return tx.Delete(p).Error
}

// LatestReading returns the most recent reading for a profile, most recent
// meaning highest primary key. Returns (nil, nil) when the profile has no
// readings yet.
func LatestReading(tx *gorm.DB, profileID uint) (*models.Reading, error) {
	var r models.Reading
	err := tx.Where("profile_id = ?", profileID).Order("id desc").Limit(1).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

func CreateReading(tx *gorm.DB, r *models.Reading) error {
	return tx.Create(r).Error
}

// GetReading fetches a reading by primary key. Returns (nil, nil) when the
// row does not exist.
func GetReading(tx *gorm.DB, id uint) (*models.Reading, error) {
	var r models.Reading
	if err := tx.First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// ReadingsByProfile lists every reading recorded against a profile.
func ReadingsByProfile(tx *gorm.DB, profileID uint) ([]models.Reading, error) {
	var readings []models.Reading
	if err := tx.Where("profile_id = ?", profileID).Find(&readings).Error; err != nil {
		return nil, err
	}
	return readings, nil
}

func DeleteReading(tx *gorm.DB, r *models.Reading) error {
	return tx.Delete(r).Error
}
