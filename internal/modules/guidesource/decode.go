package guidesource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/promptlift-backend/internal/domain/guide"
	"github.com/yungbote/promptlift-backend/internal/modules/enhance"
)

// Entry is one decoded guide file.
type Entry struct {
	Platform string
	Document *guide.Document
	Source   string
}

type guideFile struct {
	Platform       string `json:"platform,omitempty" yaml:"platform,omitempty"`
	guide.Document `yaml:",inline"`
}

// Supported reports whether name has a guide file extension.
func Supported(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// Decode parses a YAML or JSON guide file. The platform comes from a top-level
// "platform" key, falling back to the file name; either way it is normalized
// to the canonical platform name.
func Decode(name string, data []byte) (Entry, error) {
	var f guideFile
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&f); err != nil {
			return Entry{}, fmt.Errorf("decode %s: %w", name, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return Entry{}, fmt.Errorf("decode %s: %w", name, err)
		}
	default:
		return Entry{}, fmt.Errorf("decode %s: unsupported extension", name)
	}

	platform := strings.TrimSpace(f.Platform)
	if platform == "" {
		platform = PlatformFromFilename(name)
	}
	platform = enhance.NormalizePlatform(platform)
	if platform == "" {
		return Entry{}, fmt.Errorf("decode %s: cannot determine platform", name)
	}

	doc := f.Document
	return Entry{Platform: platform, Document: &doc, Source: name}, nil
}

// PlatformFromFilename turns "claude_sonnet_4.yaml" into "claude sonnet 4".
func PlatformFromFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.NewReplacer("_", " ").Replace(base)
	return strings.TrimSpace(base)
}
