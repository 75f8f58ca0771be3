package knowledge

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/knowbase/knowbase-go/pkg/logger"
)

// arrayRe locates the first JSON-like array in a response. Greedy with
// (?s) so the match spans embedded newlines and reaches the last ']'.
var arrayRe = regexp.MustCompile(`(?s)\[.*\]`)

// Parser converts raw model output into knowledge items.
//
// Model output is untrusted text: it may wrap the payload in markdown
// fences, surround it with prose, or be malformed outright. The parser
// degrades item by item instead of failing a whole batch, and never
// returns an error; every failure mode yields fewer items and a warning
// in the log.
type Parser struct {
	log *logger.Logger
}

// NewParser creates a Parser. A nil log discards diagnostics.
func NewParser(log *logger.Logger) *Parser {
	if log == nil {
		log = logger.NewNop()
	}
	return &Parser{log: log}
}

// Parse extracts knowledge items from a raw model response.
//
// The stages, each with an empty-result escape:
//  1. Strip markdown code fences.
//  2. Locate the first JSON array substring. None → empty result.
//  3. Decode the substring. Failure → empty result; the batch is
//     dropped whole at this stage.
//  4. Build an Item per decoded element, applying defaults. A single
//     malformed element is skipped; its siblings survive.
//
// Surviving items keep their source-array order.
func (p *Parser) Parse(raw string) []Item {
	cleaned := removeCodeBlocks(raw)

	match := arrayRe.FindString(cleaned)
	if match == "" {
		p.log.Warn("no JSON array found in llm response")
		return nil
	}

	var elements []interface{}
	if err := json.Unmarshal([]byte(match), &elements); err != nil {
		p.log.Warn("failed to parse JSON from llm response", "error", err)
		return nil
	}

	items := make([]Item, 0, len(elements))
	for i, element := range elements {
		obj, ok := element.(map[string]interface{})
		if !ok {
			p.log.Warn("skipping malformed knowledge item", "index", i, "error", "not a JSON object")
			continue
		}

		item, err := p.buildItem(obj)
		if err != nil {
			p.log.Warn("skipping malformed knowledge item", "index", i, "error", err)
			continue
		}
		items = append(items, item)
	}

	return items
}

// buildItem constructs an Item from one decoded object, applying the
// tolerant defaults: topic "Unknown", empty content, empty keywords,
// importance DefaultImportance. Only a non-coercible importance score
// invalidates the item.
func (p *Parser) buildItem(obj map[string]interface{}) (Item, error) {
	item := Item{
		Topic:           defaultTopic,
		Content:         "",
		ImportanceScore: DefaultImportance,
	}

	if v, ok := obj["topic"].(string); ok {
		item.Topic = v
	}
	if v, ok := obj["content"].(string); ok {
		item.Content = v
	}
	if list, ok := obj["keywords"].([]interface{}); ok {
		for _, kw := range list {
			if s, ok := kw.(string); ok {
				item.Keywords = append(item.Keywords, s)
			}
		}
	}

	if raw, ok := obj["importance_score"]; ok {
		score, err := coerceImportance(raw)
		if err != nil {
			return Item{}, err
		}
		if score < MinImportance || score > MaxImportance {
			p.log.Warn("importance score out of range, using default", "score", score)
			score = DefaultImportance
		}
		item.ImportanceScore = score
	}

	return item, nil
}

// coerceImportance converts a decoded JSON value to an int. Numbers
// truncate toward zero, integer-form strings parse, booleans map to
// 1/0. Anything else is non-coercible.
func coerceImportance(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("importance_score %q is not an integer", v)
		}
		return n, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("importance_score has unsupported type %T", raw)
	}
}

// removeCodeBlocks removes markdown code fence markers (```json ... ```)
// from a response.
func removeCodeBlocks(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")
	return strings.TrimSpace(response)
}
