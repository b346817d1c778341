package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNoCourses is returned when a snapshot record has no "grades" object.
var ErrNoCourses = errors.New("snapshot record has no grades field")

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// MarshalJSON writes the durable record shape
// {"timestamp": ..., "grades": {course_name: {...}}} keeping course order.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	ts, err := json.Marshal(s.Timestamp.Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"timestamp":`)
	buf.Write(ts)
	buf.WriteString(`,"grades":{`)
	for i, c := range s.Courses {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("marshal course %q: %w", c.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the durable record shape. The grades object is decoded
// token by token so the stored course order survives the round trip.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Timestamp string          `json:"timestamp"`
		Grades    json.RawMessage `json:"grades"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Grades) == 0 || string(raw.Grades) == "null" {
		return ErrNoCourses
	}

	dec := json.NewDecoder(bytes.NewReader(raw.Grades))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read grades: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("grades: expected object, got %v", tok)
	}

	courses := make([]CourseSnapshot, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read course name: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("grades: expected course name, got %v", tok)
		}
		var c CourseSnapshot
		if err := dec.Decode(&c); err != nil {
			return fmt.Errorf("decode course %q: %w", name, err)
		}
		c.Name = name
		courses = append(courses, c)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read grades end: %w", err)
	}

	s.Timestamp = parseTimestamp(raw.Timestamp)
	s.Courses = courses
	return nil
}

// parseTimestamp accepts RFC 3339 and naive ISO timestamps. The timestamp is
// informational, so an unreadable one yields the zero time.
func parseTimestamp(v string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
