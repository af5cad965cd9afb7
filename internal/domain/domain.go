package domain

import (
	"github.com/yungbote/promptlift-backend/internal/domain/guide"
	"github.com/yungbote/promptlift-backend/internal/domain/user"
)

type User = user.User

type PlatformGuide = guide.PlatformGuide
type GuideDocument = guide.Document
type GuidePrinciple = guide.Principle
type GuideFragment = guide.Fragment
type TaskGuide = guide.TaskGuide

// Models lists every persisted model, in migration order.
func Models() []any {
	return []any{
		&User{},
		&PlatformGuide{},
	}
}
