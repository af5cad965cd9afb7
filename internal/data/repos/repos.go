package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/promptlift-backend/internal/data/repos/guide"
	"github.com/yungbote/promptlift-backend/internal/data/repos/user"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type GuideRepo = guide.GuideRepo

type Repos struct {
	User  UserRepo
	Guide GuideRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		User:  user.NewUserRepo(db, log),
		Guide: guide.NewGuideRepo(db, log),
	}
}
