package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/valyala/fastjson"
)

// Default values for fields a client leaves out
const (
	DefaultTimestamp = "N/A"
	DefaultLevel     = "INFO"
	DefaultTag       = "Unknown"
	DefaultMessage   = "No message"
)

// Conventional log levels. Any other string is accepted as a level.
const (
	LevelError = "ERROR"
	LevelWarn  = "WARN"
	LevelInfo  = "INFO"
	LevelDebug = "DEBUG"
)

// LevelClassDefault is the display class for levels outside the conventional set
const LevelClassDefault = "DEFAULT"

// ErrInvalidRecord is returned when an ingest body cannot be turned into a LogRecord
var ErrInvalidRecord = errors.New("invalid log record")

var parserPool fastjson.ParserPool

// LogRecord represents one client-reported event plus the fields the server adds
type LogRecord struct {
	Timestamp       string `json:"timestamp"`
	Level           string `json:"level"`
	Tag             string `json:"tag"`
	Message         string `json:"message"`
	ServerTimestamp string `json:"server_timestamp"`
	ClientIP        string `json:"client_ip"`

	// Extra holds any additional client fields as raw JSON
	Extra map[string]json.RawMessage `json:"-"`
}

// knownFields lists the keys with defined semantics; everything else goes to Extra
var knownFields = map[string]bool{
	"timestamp":        true,
	"level":            true,
	"tag":              true,
	"message":          true,
	"server_timestamp": true,
	"client_ip":        true,
}

// NewLogRecord returns a record with every client field set to its default
func NewLogRecord() *LogRecord {
	return &LogRecord{
		Timestamp: DefaultTimestamp,
		Level:     DefaultLevel,
		Tag:       DefaultTag,
		Message:   DefaultMessage,
	}
}

// ParseLogRecord decodes an ingest body into a LogRecord.
// Missing or null fields take their defaults. The body must be a JSON object,
// and the known string fields must be strings when present.
func ParseLogRecord(body []byte) (*LogRecord, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	obj, err := v.Object()
	if err != nil {
		return nil, fmt.Errorf("%w: expected a JSON object, got %s", ErrInvalidRecord, v.Type())
	}

	record := NewLogRecord()
	var fieldErr error
	obj.Visit(func(key []byte, val *fastjson.Value) {
		if fieldErr != nil {
			return
		}
		name := string(key)

		if !knownFields[name] {
			if record.Extra == nil {
				record.Extra = make(map[string]json.RawMessage)
			}
			// fastjson tolerates numbers like NaN or 1-2 that encoding/json rejects
			raw := val.MarshalTo(nil)
			if !json.Valid(raw) {
				fieldErr = fmt.Errorf("%w: field %q is not valid JSON", ErrInvalidRecord, name)
				return
			}
			record.Extra[name] = json.RawMessage(raw)
			return
		}

		// Server-owned fields are overwritten at ingest time
		if name == "server_timestamp" || name == "client_ip" {
			return
		}

		if val.Type() == fastjson.TypeNull {
			return
		}
		s, err := val.StringBytes()
		if err != nil {
			fieldErr = fmt.Errorf("%w: field %q must be a string, got %s", ErrInvalidRecord, name, val.Type())
			return
		}

		switch name {
		case "timestamp":
			record.Timestamp = string(s)
		case "level":
			record.Level = string(s)
		case "tag":
			record.Tag = string(s)
		case "message":
			record.Message = string(s)
		}
	})
	if fieldErr != nil {
		return nil, fieldErr
	}

	return record, nil
}

// LevelClass returns the display class for the record's level
func (r LogRecord) LevelClass() string {
	switch strings.ToUpper(r.Level) {
	case LevelError:
		return LevelError
	case LevelWarn:
		return LevelWarn
	case LevelInfo:
		return LevelInfo
	case LevelDebug:
		return LevelDebug
	default:
		return LevelClassDefault
	}
}

// Clone returns a copy that shares no mutable state with r
func (r LogRecord) Clone() LogRecord {
	if r.Extra == nil {
		return r
	}
	extra := make(map[string]json.RawMessage, len(r.Extra))
	for k, v := range r.Extra {
		extra[k] = v
	}
	r.Extra = extra
	return r
}

// MarshalJSON writes the known fields followed by the extra client fields in key order
func (r LogRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	fields := []struct {
		key   string
		value string
	}{
		{"timestamp", r.Timestamp},
		{"level", r.Level},
		{"tag", r.Tag},
		{"message", r.Message},
		{"server_timestamp", r.ServerTimestamp},
		{"client_ip", r.ClientIP},
	}
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONPair(&buf, f.key, f.value); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		if !knownFields[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		buf.WriteByte(',')
		if err := writeJSONPair(&buf, k, r.Extra[k]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the export format back, keeping unknown keys in Extra
func (r *LogRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = LogRecord{}
	targets := map[string]*string{
		"timestamp":        &r.Timestamp,
		"level":            &r.Level,
		"tag":              &r.Tag,
		"message":          &r.Message,
		"server_timestamp": &r.ServerTimestamp,
		"client_ip":        &r.ClientIP,
	}
	for k, v := range raw {
		if target, ok := targets[k]; ok {
			if err := json.Unmarshal(v, target); err != nil {
				return fmt.Errorf("failed to decode field %q: %w", k, err)
			}
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage)
		}
		r.Extra[k] = v
	}
	return nil
}

func writeJSONPair(buf *bytes.Buffer, key string, value interface{}) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode field %q: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}
