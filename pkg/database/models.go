package database

import (
	"time"

	"gorm.io/gorm"
)

// Heard is one last-heard entry: a stream observed crossing the bridge.
type Heard struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	SrcID     uint32    `gorm:"index;not null" json:"src_id"`
	DstID     uint32    `gorm:"index;not null" json:"dst_id"`
	Timeslot  uint8     `gorm:"not null" json:"timeslot"`
	Private   bool      `gorm:"not null" json:"private"`
	StreamID  uint32    `gorm:"index" json:"stream_id"`
	Proto     string    `gorm:"size:16" json:"proto"`
	HeardAt   time.Time `gorm:"index;not null" json:"heard_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for Heard
func (Heard) TableName() string {
	return "lastheard"
}

// BeforeCreate hook to ensure HeardAt is set
func (h *Heard) BeforeCreate(tx *gorm.DB) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	if h.HeardAt.IsZero() {
		h.HeardAt = time.Now()
	}
	return nil
}
