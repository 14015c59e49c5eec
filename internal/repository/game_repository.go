// Package repository provides CRUD access to games stored in the database.
package repository

import (
	"context"
	"errors"

	"gamestore/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when no game has the requested id.
var ErrNotFound = errors.New("game not found")

// GameRepository is the persistence contract used by the HTTP handlers.
type GameRepository interface {
	List(ctx context.Context) ([]models.Game, error)
	Get(ctx context.Context, id uint) (*models.Game, error)
	Create(ctx context.Context, g *models.Game) error
	// Update loads the game, hands it to apply and saves the result as one
	// transaction. An error from apply aborts the update and is returned as is.
	Update(ctx context.Context, id uint, apply func(*models.Game) error) (*models.Game, error)
	Delete(ctx context.Context, id uint) error
}

// GormGameRepository implements GameRepository on top of gorm.
type GormGameRepository struct{ db *gorm.DB }

var _ GameRepository = (*GormGameRepository)(nil)

func NewGameRepository(db *gorm.DB) *GormGameRepository { return &GormGameRepository{db: db} }

// List returns every game in the order the database yields them.
func (r *GormGameRepository) List(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	if err := r.db.WithContext(ctx).Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

func (r *GormGameRepository) Get(ctx context.Context, id uint) (*models.Game, error) {
	var game models.Game
	if err := r.db.WithContext(ctx).First(&game, id).Error; err != nil {
		return nil, translate(err)
	}
	return &game, nil
}

// Create inserts g and fills in its generated id.
func (r *GormGameRepository) Create(ctx context.Context, g *models.Game) error {
	g.ID = 0
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *GormGameRepository) Update(ctx context.Context, id uint, apply func(*models.Game) error) (*models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&game, id).Error; err != nil {
			return translate(err)
		}
		if err := apply(&game); err != nil {
			return err
		}
		game.ID = id
		return tx.Save(&game).Error
	})
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// Delete removes the row permanently. Deleting a missing id reports ErrNotFound.
func (r *GormGameRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Game{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// lockForUpdate adds SELECT ... FOR UPDATE where the dialect supports row
// locks. SQLite has none; its single connection already serialises writers.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
