package records

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"strings"

	"github.com/phrazzld/scry-studygen/internal/domain"
)

// Validate parses payload as a JSON array of question records and returns
// them in payload order. An empty array is a valid, empty batch.
func Validate(payload string) ([]domain.QuestionRecord, error) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, domain.NewSchemaError("malformed document")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, domain.NewSchemaError("malformed document")
	}

	elems, ok := doc.([]any)
	if !ok {
		return nil, domain.NewSchemaError("not a sequence")
	}

	out := make([]domain.QuestionRecord, 0, len(elems))
	seen := make(map[int]struct{}, len(elems))
	duplicate := false
	for i, elem := range elems {
		rec, err := decodeRecord(elem, i)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[rec.ID]; dup {
			duplicate = true
		}
		seen[rec.ID] = struct{}{}
		out = append(out, rec)
	}
	if duplicate {
		return nil, domain.NewSchemaError("duplicate id")
	}
	return out, nil
}

func decodeRecord(elem any, index int) (domain.QuestionRecord, error) {
	obj, ok := elem.(map[string]any)
	if !ok {
		return domain.QuestionRecord{}, domain.NewFieldError("id", index)
	}

	var rec domain.QuestionRecord
	id, ok := integer(obj["id"])
	if !ok {
		return rec, domain.NewFieldError("id", index)
	}
	rec.ID = id

	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"question", &rec.Question},
		{"answer", &rec.Answer},
		{"difficulty", &rec.Difficulty},
	} {
		s, ok := obj[f.name].(string)
		if !ok || strings.TrimSpace(s) == "" {
			return rec, domain.NewFieldError(f.name, index)
		}
		*f.dst = s
	}

	score, ok := number(obj["importanceScore"])
	if !ok || score < domain.MinImportanceScore || score > domain.MaxImportanceScore {
		return rec, domain.NewFieldError("importanceScore", index)
	}
	rec.ImportanceScore = score

	return rec, nil
}

func number(v any) (float64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// integer accepts integral JSON numbers within the int32 range, including
// forms like 3.0 or 1e2.
func integer(v any) (int, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		if i < math.MinInt32 || i > math.MaxInt32 {
			return 0, false
		}
		return int(i), true
	}
	f, ok := number(v)
	if !ok || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
