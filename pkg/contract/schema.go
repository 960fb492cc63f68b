package contract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/muses-project/progress/pkg/domain/mission"
	"github.com/muses-project/progress/pkg/domain/progress"
	"github.com/muses-project/progress/pkg/domain/quest"
)

const questSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["title", "status", "tasks"],
  "properties": {
    "id": { "type": "string" },
    "title": { "type": "string" },
    "description": { "type": "string" },
    "subject_id": { "type": "string" },
    "status": { "enum": ["PENDING", "IN_PROGRESS", "COMPLETE", "STOPPED"] },
    "tasks": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["completed"],
        "properties": {
          "completed": { "type": "boolean" },
          "title": { "type": "string" },
          "description": { "type": "string" }
        }
      }
    }
  }
}`

const missionSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["user_id", "status", "steps"],
  "properties": {
    "id": { "type": "string" },
    "user_id": { "type": "string", "minLength": 1 },
    "status": { "enum": ["PENDING", "IN_PROGRESS", "COMPLETE", "STOPPED"] },
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["step_id", "completed"],
        "properties": {
          "step_id": { "type": "string", "minLength": 1 },
          "completed": { "type": "boolean" }
        }
      }
    }
  }
}`

var (
	questSchema   = mustSchema(questSchemaJSON)
	missionSchema = mustSchema(missionSchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("contract: bad schema: %v", err))
	}
	return s
}

// DecodeQuest validates raw against the quest schema and decodes it.
func DecodeQuest(raw []byte) (*quest.Quest, error) {
	if err := validate(questSchema, raw); err != nil {
		return nil, err
	}
	var q quest.Quest
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, fmt.Errorf("%w: %v", progress.ErrInvalidDocument, err)
	}
	if q.Tasks == nil {
		q.Tasks = make(map[string]quest.Task)
	}
	if done, total := q.Progress(); q.Status == progress.StatusComplete && done < total {
		return nil, fmt.Errorf("%w: quest is COMPLETE with %d of %d tasks done", progress.ErrInvalidDocument, done, total)
	}
	return &q, nil
}

// DecodeMission validates raw against the mission schema and decodes it.
func DecodeMission(raw []byte) (*mission.Mission, error) {
	if err := validate(missionSchema, raw); err != nil {
		return nil, err
	}
	var m mission.Mission
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", progress.ErrInvalidDocument, err)
	}
	if done, total := m.Progress(); m.Status == progress.StatusComplete && done < total {
		return nil, fmt.Errorf("%w: mission is COMPLETE with %d of %d steps done", progress.ErrInvalidDocument, done, total)
	}
	return &m, nil
}

func validate(schema *gojsonschema.Schema, raw []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", progress.ErrInvalidDocument, err)
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return fmt.Errorf("%w: %s", progress.ErrInvalidDocument, strings.Join(issues, "; "))
}
