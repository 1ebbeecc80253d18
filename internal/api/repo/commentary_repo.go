package repo

import (
	"livescore"
	"livescore/internal/api/models"

	"gorm.io/gorm"
)

type CommentaryRepository struct {
	Db *gorm.DB
}

func NewCommentaryRepository() *CommentaryRepository {
	return &CommentaryRepository{Db: livescore.DB}
}

func (slf *CommentaryRepository) Create(entry *models.Commentary) error {
	return slf.Db.Create(entry).Error
}

// FindByMatch returns the newest entries of a match first
func (slf *CommentaryRepository) FindByMatch(matchID uint, limit int) ([]models.Commentary, error) {
	var entries []models.Commentary
	err := slf.Db.
		Where("match_id = ?", matchID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
