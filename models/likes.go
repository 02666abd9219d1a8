package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Likes is the set of user ids that liked a project. It is stored as a JSON array.
// Older documents stored a bare counter in the same column; anything that is not an
// array of strings decodes to the empty set.
type Likes []string

// NormalizeLikes deduplicates ids, keeping first-seen order and dropping blanks.
func NormalizeLikes(ids []string) Likes {
	out := make(Likes, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ParseLikes decodes a raw JSON value into a normalized set.
func ParseLikes(raw []byte) Likes {
	var ids []string
	if len(raw) == 0 || json.Unmarshal(raw, &ids) != nil {
		return Likes{}
	}
	return NormalizeLikes(ids)
}

func (l Likes) Contains(userID string) bool {
	for _, id := range l {
		if id == userID {
			return true
		}
	}
	return false
}

// With returns a copy of l that includes userID.
func (l Likes) With(userID string) Likes {
	if l.Contains(userID) {
		return NormalizeLikes(l)
	}
	return NormalizeLikes(append(append(Likes{}, l...), userID))
}

// Without returns a copy of l that excludes userID.
func (l Likes) Without(userID string) Likes {
	out := make(Likes, 0, len(l))
	for _, id := range l {
		if id != userID {
			out = append(out, id)
		}
	}
	return NormalizeLikes(out)
}

func (l Likes) Count() int {
	return len(NormalizeLikes(l))
}

func (l *Likes) UnmarshalJSON(data []byte) error {
	*l = ParseLikes(data)
	return nil
}

func (l Likes) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(NormalizeLikes(l)))
}

// Scan implements sql.Scanner.
func (l *Likes) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*l = Likes{}
	case []byte:
		*l = ParseLikes(v)
	case string:
		*l = ParseLikes([]byte(v))
	default:
		return fmt.Errorf("unsupported likes column type %T", value)
	}
	return nil
}

// Value implements driver.Valuer.
func (l Likes) Value() (driver.Value, error) {
	b, err := json.Marshal([]string(NormalizeLikes(l)))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (Likes) GormDataType() string {
	return "jsonb"
}
