package round

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// MarshalJSON encodes the state in its plain structured form. The results
// object keeps draw order; single entries encode as a string and multi
// entries as a list of strings.
func (s State) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(`{"results":{`)
	for i, r := range s.Results {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(r.Wheel)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')

		var val []byte
		switch r.Kind {
		case KindSingle:
			val, err = json.Marshal(r.Label())
		case KindMulti:
			val, err = json.Marshal(nonNil(r.Labels))
		default:
			err = fmt.Errorf("wheel %q: unknown result kind %d", r.Wheel, r.Kind)
		}
		if err != nil {
			return nil, err
		}
		b.Write(val)
	}
	b.WriteString(`}`)

	rest, err := json.Marshal(struct {
		Replaced             []string `json:"replaced"`
		ReplacementUsed      bool     `json:"replacement_used"`
		ReplacementAvailable bool     `json:"replacement_available"`
		Notes                []string `json:"notes"`
		DidCheat             bool     `json:"did_cheat"`
		DidWin               bool     `json:"did_win"`
	}{
		Replaced:             nonNil(s.Replaced),
		ReplacementUsed:      s.ReplacementUsed,
		ReplacementAvailable: s.ReplacementAvailable,
		Notes:                nonNil(s.Notes),
		DidCheat:             s.DidCheat,
		DidWin:               s.DidWin,
	})
	if err != nil {
		return nil, err
	}
	// Splice the remaining fields in after the results object.
	b.WriteByte(',')
	b.Write(rest[1:])
	return b.Bytes(), nil
}

// UnmarshalJSON decodes the plain structured form, preserving the order of
// the results object.
func (s *State) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("round state: invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return errors.New("round state: expected JSON object")
	}

	var out State
	var decodeErr error
	results := doc.Get("results")
	if results.Exists() && !results.IsObject() {
		return errors.New("round state: results must be an object")
	}
	seen := make(map[string]bool)
	results.ForEach(func(key, value gjson.Result) bool {
		if seen[key.String()] {
			decodeErr = fmt.Errorf("round state: wheel %q appears more than once", key.String())
			return false
		}
		seen[key.String()] = true
		switch {
		case value.Type == gjson.String:
			out.Results = append(out.Results, Single(key.String(), value.String()))
		case value.IsArray():
			labels, err := stringList(value)
			if err != nil {
				decodeErr = fmt.Errorf("round state: wheel %q: %w", key.String(), err)
				return false
			}
			out.Results = append(out.Results, Result{Wheel: key.String(), Kind: KindMulti, Labels: labels})
		default:
			decodeErr = fmt.Errorf("round state: wheel %q: expected string or list", key.String())
			return false
		}
		return true
	})
	if decodeErr != nil {
		return decodeErr
	}

	var err error
	if out.Replaced, err = stringList(doc.Get("replaced")); err != nil {
		return fmt.Errorf("round state: replaced: %w", err)
	}
	if out.Notes, err = stringList(doc.Get("notes")); err != nil {
		return fmt.Errorf("round state: notes: %w", err)
	}
	out.ReplacementUsed = doc.Get("replacement_used").Bool()
	out.ReplacementAvailable = doc.Get("replacement_available").Bool()
	out.DidCheat = doc.Get("did_cheat").Bool()
	out.DidWin = doc.Get("did_win").Bool()

	*s = out
	return nil
}

func stringList(v gjson.Result) ([]string, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return []string{}, nil
	}
	if !v.IsArray() {
		return nil, errors.New("expected list of strings")
	}
	items := v.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type != gjson.String {
			return nil, errors.New("expected list of strings")
		}
		out = append(out, item.String())
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
