package repo

import (
	"errors"

	"livescore"
	"livescore/internal/api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStatusChanged is returned by UpdateStatus when the row no longer has the
// expected status.
var ErrStatusChanged = errors.New("match status changed")

type MatchRepository struct {
	Db *gorm.DB
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{Db: livescore.DB}
}

// FindByID retrieves a match by ID
func (slf *MatchRepository) FindByID(id uint) (models.Match, error) {
	var match models.Match
	err := slf.Db.First(&match, id).Error
	return match, err
}

// FindByExternalID retrieves a match by its feed identifier
func (slf *MatchRepository) FindByExternalID(externalID string) (models.Match, error) {
	var match models.Match
	err := slf.Db.Where("external_id = ?", externalID).First(&match).Error
	return match, err
}

// FindAll retrieves the most recently created matches
func (slf *MatchRepository) FindAll(limit int) ([]models.Match, error) {
	var matches []models.Match
	err := slf.Db.
		Order("created_at DESC").
		Limit(limit).
		Find(&matches).Error
	return matches, err
}

func (slf *MatchRepository) Create(match *models.Match) error {
	return slf.Db.Create(match).Error
}

// UpdateScore sets both scores and returns the updated row
func (slf *MatchRepository) UpdateScore(id uint, home int, away int) (models.Match, error) {
	var match models.Match
	err := slf.Db.Model(&match).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"home_score": home,
			"away_score": away,
		}).Error
	if err == nil && match.ID == 0 {
		err = gorm.ErrRecordNotFound
	}
	return match, err
}

// UpdateStatus moves the row from one status to another and returns the
// updated row. The write only applies while the row still has status from.
func (slf *MatchRepository) UpdateStatus(id uint, from models.MatchStatus, to models.MatchStatus) (models.Match, error) {
	var match models.Match
	result := slf.Db.Model(&match).
		Clauses(clause.Returning{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return match, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := slf.FindByID(id); err != nil {
			return match, err
		}
		return match, ErrStatusChanged
	}
	return match, nil
}

// Save writes every column of an existing match
func (slf *MatchRepository) Save(match *models.Match) error {
	return slf.Db.Save(match).Error
}
