package app

import (
	"gorm.io/gorm"

	resourcerepos "github.com/yungbote/collection-listing/internal/data/repos/resources"
	"github.com/yungbote/collection-listing/internal/platform/logger"
)

type Repos struct {
	Resource resourcerepos.ResourceRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Resource: resourcerepos.NewResourceRepo(db, log),
	}
}
