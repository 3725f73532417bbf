package repository

import (
	"gorm.io/gorm"
)

// Factory manages all repositories
type Factory struct {
	FailureRepository FailureRepository
}

// NewRepositoryFactory creates a repository factory with all repositories
func NewRepositoryFactory(db *gorm.DB) *Factory {
	return &Factory{
		FailureRepository: NewFailureRepository(db),
	}
}
