package guide

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// ErrNotFound is returned by guide stores when no document exists for a platform.
var ErrNotFound = errors.New("guide not found")

// Store resolves the guide for a canonical platform name.
type Store interface {
	Get(ctx context.Context, platform string) (*Document, error)
}

// Document is the platform-specific knowledge base used to build instructions.
// Every field is optional; a zero Document is a valid, empty guide.
type Document struct {
	Principles         []Principle            `json:"principles,omitempty" yaml:"principles,omitempty"`
	StructuralElements []Fragment             `json:"structural_elements,omitempty" yaml:"structural_elements,omitempty"`
	AntiPatterns       []Fragment             `json:"anti_patterns,omitempty" yaml:"anti_patterns,omitempty"`
	TaskSpecificGuides map[string][]TaskGuide `json:"task_specific_guides,omitempty" yaml:"task_specific_guides,omitempty"`
}

// Fragment is one titled unit of guidance content.
type Fragment struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

type Principle struct {
	Title             string   `json:"title" yaml:"title"`
	Content           string   `json:"content" yaml:"content"`
	DetectionPatterns []string `json:"detection_patterns,omitempty" yaml:"detection_patterns,omitempty"`
	Priority          *int     `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// MissingPriority is the sort key used for principles without a priority.
const MissingPriority = 999

func (p Principle) SortPriority() int {
	if p.Priority == nil {
		return MissingPriority
	}
	return *p.Priority
}

type TaskGuide struct {
	Title   string   `json:"title" yaml:"title"`
	Content string   `json:"content" yaml:"content"`
	Example *Example `json:"example,omitempty" yaml:"example,omitempty"`
}

type Example struct {
	Before string `json:"before" yaml:"before"`
	After  string `json:"after" yaml:"after"`
}

// PlatformGuide is the persisted form of a Document, keyed by canonical platform name.
type PlatformGuide struct {
	Platform  string         `gorm:"column:platform;primaryKey;type:varchar(128)" json:"platform"`
	Document  datatypes.JSON `gorm:"column:document;not null" json:"document"`
	Version   int            `gorm:"column:version;not null;default:1" json:"version"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (PlatformGuide) TableName() string { return "platform_guide" }

// Decode unmarshals the stored JSON. An empty column decodes to an empty Document.
func (pg *PlatformGuide) Decode() (*Document, error) {
	doc := &Document{}
	if pg == nil || len(strings.TrimSpace(string(pg.Document))) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(pg.Document, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Encode builds a row for doc; a nil doc is stored as an empty object.
func Encode(platform string, doc *Document) (*PlatformGuide, error) {
	if doc == nil {
		doc = &Document{}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return &PlatformGuide{Platform: platform, Document: datatypes.JSON(raw)}, nil
}
