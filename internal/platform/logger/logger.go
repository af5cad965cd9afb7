package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type Logger struct {
	SugaredLogger *zap.SugaredLogger
	red           *redactor
}

func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "test", "nop":
		return Nop(), nil
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zapLogger.Sugar(), red: redactorFromEnv()}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar(), red: redactorFromEnv()}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, l.red.kvs(keysAndValues)...)
}
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, l.red.kvs(keysAndValues)...)
}
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, l.red.kvs(keysAndValues)...)
}
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, l.red.kvs(keysAndValues)...)
}
func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, l.red.kvs(keysAndValues)...)
}
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(l.red.kvs(keysAndValues)...), red: l.red}
}

// redactor rewrites log fields before they reach zap: credentials and emails
// are dropped, user ids hashed, prompt bodies shortened to a preview.
type redactor struct {
	enabled bool
	salt    string
	preview int
}

func redactorFromEnv() *redactor {
	r := &redactor{
		enabled: true,
		salt:    strings.TrimSpace(os.Getenv("LOG_HASH_SALT")),
		preview: 80,
	}
	switch strings.TrimSpace(strings.ToLower(os.Getenv("LOG_REDACTION_ENABLED"))) {
	case "0", "false", "no", "off":
		r.enabled = false
	}
	if v := strings.TrimSpace(os.Getenv("LOG_PROMPT_PREVIEW_CHARS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			r.preview = n
		}
	}
	return r
}

func (r *redactor) kvs(kv []interface{}) []interface{} {
	if r == nil || !r.enabled || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		key := toString(kv[i])
		out = append(out, key, r.value(normalizeKey(key), kv[i+1]))
	}
	return out
}

func (r *redactor) value(key string, val interface{}) interface{} {
	switch fieldClass(key) {
	case classSecret:
		return "[REDACTED]"
	case classIdentity:
		return r.hash(val)
	case classPrompt:
		return r.shorten(val)
	}
	switch v := val.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, vv := range v {
			out[k] = r.value(normalizeKey(k), vv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(v))
		for _, vv := range v {
			out = append(out, r.value("", vv))
		}
		return out
	case string:
		if looksLikeJWT(v) {
			return "[REDACTED]"
		}
	}
	return val
}

func (r *redactor) shorten(val interface{}) interface{} {
	s, ok := val.(string)
	if !ok {
		return val
	}
	if r.preview <= 0 {
		return fmt.Sprintf("[%d chars]", len(s))
	}
	runes := []rune(s)
	if len(runes) <= r.preview {
		return s
	}
	return string(runes[:r.preview]) + "…"
}

func (r *redactor) hash(val interface{}) string {
	raw := toString(val)
	if raw == "" {
		return ""
	}
	h := sha256.New()
	if r.salt != "" {
		_, _ = h.Write([]byte(r.salt))
	}
	_, _ = h.Write([]byte(raw))
	return "hash:" + hex.EncodeToString(h.Sum(nil))[:12]
}

type fieldKind int

const (
	classPlain fieldKind = iota
	classSecret
	classIdentity
	classPrompt
)

var secretMarkers = []string{"token", "authorization", "password", "secret", "service_key", "api_key", "apikey", "email"}

func fieldClass(key string) fieldKind {
	if key == "" {
		return classPlain
	}
	for _, m := range secretMarkers {
		if strings.Contains(key, m) {
			return classSecret
		}
	}
	if strings.Contains(key, "user_id") || key == "userid" {
		return classIdentity
	}
	switch key {
	case "prompt", "enhanced_prompt", "instructions", "output":
		return classPrompt
	}
	if strings.HasSuffix(key, "_text") {
		return classPrompt
	}
	return classPlain
}

func normalizeKey(k string) string { return strings.TrimSpace(strings.ToLower(k)) }

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
