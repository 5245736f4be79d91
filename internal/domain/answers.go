package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AnswerSet maps question ids to chosen answer text. Clients may send answers
// either as an ordered array (position i answers question i) or as an object
// keyed by id; both decode into the same normalized form. Numeric answer
// values are stringified so "4" and 4 compare equal during scoring.
type AnswerSet map[int]string

// UnmarshalJSON accepts both the array and the object submission forms.
func (a *AnswerSet) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = nil
		return nil
	}

	out := make(AnswerSet)
	switch trimmed[0] {
	case '[':
		var seq []json.RawMessage
		if err := json.Unmarshal(trimmed, &seq); err != nil {
			return err
		}
		for i, raw := range seq {
			value, err := answerValue(raw)
			if err != nil {
				return err
			}
			out[i] = value
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		for key, raw := range obj {
			id, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil {
				return fmt.Errorf("answer key %q is not an integer", key)
			}
			value, err := answerValue(raw)
			if err != nil {
				return err
			}
			out[id] = value
		}
	default:
		return fmt.Errorf("answers must be an array or an object")
	}

	*a = out
	return nil
}

// Covers reports whether every id in [0, n) has an answer.
func (a AnswerSet) Covers(n int) bool {
	for i := 0; i < n; i++ {
		if _, ok := a[i]; !ok {
			return false
		}
	}
	return true
}

func answerValue(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("answer value %s is not a string or number", raw)
}
