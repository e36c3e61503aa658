// Package quiz normalizes instructor-supplied answer keys and grades submissions.
package quiz

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"coursehub/models"
)

var (
	// ErrInvalidAnswerFormat is returned when the submitted key is not a number,
	// a numeric string or an array of numbers.
	ErrInvalidAnswerFormat = errors.New("correct_answer must be a number, a numeric string or an array of numbers")
	// ErrAnswerOutOfRange is returned when a single answer does not point at an option.
	ErrAnswerOutOfRange = errors.New("correct_answer does not match any option")
	// ErrCorruptAnswerKey is returned when a stored key cannot be decoded.
	ErrCorruptAnswerKey = errors.New("stored correct answer is corrupt")
)

// Key is the normalized answer key: one index (Single) or a list of indices
// (Multiple, one entry per question sharing the quiz record).
type Key struct {
	Kind    string
	Indices []int
}

func Single(index int) Key       { return Key{Kind: models.AnswerSingle, Indices: []int{index}} }
func Multiple(indices []int) Key { return Key{Kind: models.AnswerMultiple, Indices: indices} }

// Normalize turns a raw correct_answer JSON value into a Key.
func Normalize(raw json.RawMessage) (Key, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Key{}, ErrInvalidAnswerFormat
	}

	switch raw[0] {
	case '[':
		var values []json.Number
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&values); err != nil || len(values) == 0 {
			return Key{}, ErrInvalidAnswerFormat
		}
		indices := make([]int, 0, len(values))
		for _, v := range values {
			idx, err := toIndex(string(v))
			if err != nil {
				return Key{}, err
			}
			indices = append(indices, idx)
		}
		return Multiple(indices), nil

	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Key{}, ErrInvalidAnswerFormat
		}
		idx, err := toIndex(strings.TrimSpace(s))
		if err != nil {
			return Key{}, err
		}
		return Single(idx), nil

	default:
		var n json.Number
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&n); err != nil {
			return Key{}, ErrInvalidAnswerFormat
		}
		idx, err := toIndex(string(n))
		if err != nil {
			return Key{}, err
		}
		return Single(idx), nil
	}
}

// Unanswered marks a submitted entry that is not a usable option index.
const Unanswered = -1

// ParseSubmission reads submitted answers leniently. Numbers and numeric
// strings with an integral, non-negative value become indices; anything else
// becomes Unanswered so that position is graded incorrect.
func ParseSubmission(raw []json.RawMessage) []int {
	out := make([]int, len(raw))
	for i, entry := range raw {
		out[i] = Unanswered
		entry = bytes.TrimSpace(entry)
		if len(entry) == 0 {
			continue
		}
		text := string(entry)
		if entry[0] == '"' {
			if err := json.Unmarshal(entry, &text); err != nil {
				continue
			}
			text = strings.TrimSpace(text)
		}
		if idx, err := toIndex(text); err == nil {
			out[i] = idx
		}
	}
	return out
}

// toIndex accepts integral, non-negative numbers only.
func toIndex(s string) (int, error) {
	if s == "" {
		return 0, ErrInvalidAnswerFormat
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return 0, ErrInvalidAnswerFormat
	}
	return int(f), nil
}

// CheckRange validates a Single key against the number of options.
func (k Key) CheckRange(optionCount int) error {
	if k.Kind != models.AnswerSingle {
		return nil
	}
	if k.Indices[0] >= optionCount {
		return ErrAnswerOutOfRange
	}
	return nil
}

// Apply stores the key on the quiz row.
func (k Key) Apply(q *models.Quiz) error {
	encoded, err := json.Marshal(k.Indices)
	if err != nil {
		return err
	}
	q.AnswerKind = k.Kind
	q.AnswerIndices = encoded
	return nil
}

// Decode reads the key stored on a quiz row.
func Decode(q models.Quiz) (Key, error) {
	var indices []int
	if err := json.Unmarshal(q.AnswerIndices, &indices); err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrCorruptAnswerKey, err)
	}
	switch q.AnswerKind {
	case models.AnswerSingle:
		if len(indices) != 1 {
			return Key{}, fmt.Errorf("%w: single key holds %d indices", ErrCorruptAnswerKey, len(indices))
		}
	case models.AnswerMultiple:
		if len(indices) == 0 {
			return Key{}, fmt.Errorf("%w: empty multiple key", ErrCorruptAnswerKey)
		}
	default:
		return Key{}, fmt.Errorf("%w: unknown kind %q", ErrCorruptAnswerKey, q.AnswerKind)
	}
	return Key{Kind: q.AnswerKind, Indices: indices}, nil
}
