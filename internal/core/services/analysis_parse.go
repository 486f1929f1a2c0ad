package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/custodia-labs/policylens/internal/core/domain"
)

// analysisKeys are the top-level keys of the model contract
var analysisKeys = []string{
	"summary", "dataCollection", "dataSharing", "retention",
	"userRights", "score", "redFlags", "compliance",
}

// ParseAnalysis decodes a model response into the fixed result schema.
// It tries the whole response, then the first balanced {...} substring, and
// falls back to domain.FailedAnalysis. It never panics on malformed input.
func ParseAnalysis(raw string) domain.AnalysisResult {
	obj, ok := decodeObject(stripCodeFence(raw))
	if !ok {
		if sub, found := FirstJSONObject(raw); found {
			obj, ok = decodeObject(sub)
		}
	}
	if !ok || !hasAnyKey(obj, analysisKeys) {
		return domain.FailedAnalysis()
	}
	return coerceAnalysis(obj)
}

func hasAnyKey(obj map[string]any, keys []string) bool {
	return lo.SomeBy(keys, func(k string) bool {
		_, has := obj[k]
		return has
	})
}

func decodeObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}

// FirstJSONObject returns the first balanced {...} substring, honoring JSON string escapes
func FirstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// coerceAnalysis maps a loosely shaped object onto AnalysisResult
func coerceAnalysis(obj map[string]any) domain.AnalysisResult {
	result := domain.AnalysisResult{
		Summary:        stringList(obj["summary"]),
		DataCollection: listMap(obj["dataCollection"]),
		DataSharing:    stringMap(obj["dataSharing"]),
		Retention:      stringValue(obj["retention"]),
		UserRights:     stringList(obj["userRights"]),
		Score:          coerceScore(obj["score"]),
		RedFlags:       stringList(obj["redFlags"]),
		Compliance:     stringMap(obj["compliance"]),
	}
	result.Normalize()
	return result
}

func coerceScore(v any) domain.Score {
	switch s := v.(type) {
	case map[string]any:
		return domain.Score{
			Value:       scoreValue(s["value"]),
			Explanation: stringValue(s["explanation"]),
		}
	case nil:
		return domain.Score{}
	default:
		return domain.Score{Value: scoreValue(s)}
	}
}

// scoreValue reads a number or numeric string as a score clamped to 0-100
func scoreValue(v any) int {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(n), "%"), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	return int(math.Round(math.Min(math.Max(f, 0), 100)))
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case []any:
		return strings.Join(stringList(s), ", ")
	default:
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Sprint(s)
		}
		return string(data)
	}
}

func stringList(v any) []string {
	switch items := v.(type) {
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s := stringValue(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(items); s != "" {
			return []string{s}
		}
	}
	return []string{}
}

func stringMap(v any) map[string]string {
	out := map[string]string{}
	switch m := v.(type) {
	case map[string]any:
		for k, val := range m {
			out[k] = stringValue(val)
		}
	case []any:
		for _, item := range stringList(m) {
			out[item] = ""
		}
	}
	return out
}

func listMap(v any) map[string][]string {
	out := map[string][]string{}
	switch m := v.(type) {
	case map[string]any:
		for k, val := range m {
			out[k] = stringList(val)
		}
	case []any:
		if items := stringList(m); len(items) > 0 {
			out["general"] = items
		}
	}
	return out
}
