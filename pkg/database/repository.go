package database

import (
	"gorm.io/gorm"
)

// HeardRepository handles last-heard database operations
type HeardRepository struct {
	db *gorm.DB
}

// NewHeardRepository creates a new last-heard repository
func NewHeardRepository(db *gorm.DB) *HeardRepository {
	return &HeardRepository{db: db}
}

// Create adds a new last-heard record
func (r *HeardRepository) Create(h *Heard) error {
	return r.db.Create(h).Error
}

// GetRecent retrieves the most recent N entries
func (r *HeardRepository) GetRecent(limit int) ([]Heard, error) {
	var heard []Heard
	err := r.db.Order("heard_at DESC").Limit(limit).Find(&heard).Error
	return heard, err
}

// GetBySrcID retrieves entries for a specific subscriber
func (r *HeardRepository) GetBySrcID(srcID uint32, limit int) ([]Heard, error) {
	var heard []Heard
	err := r.db.Where("src_id = ?", srcID).
		Order("heard_at DESC").
		Limit(limit).
		Find(&heard).Error
	return heard, err
}

// Prune deletes every entry except the keep most recent ones
func (r *HeardRepository) Prune(keep int) error {
	sub := r.db.Model(&Heard{}).
		Select("id").
		Order("heard_at DESC").
		Limit(keep)
	return r.db.Where("id NOT IN (?)", sub).Delete(&Heard{}).Error
}
