package infrastructure

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const nextTurnSchema = `{
  "type": "object",
  "required": ["question", "isClosed"],
  "properties": {
    "question": {"type": ["string", "null"]},
    "category": {"type": ["string", "null"]},
    "strategy_note": {"type": ["string", "null"]},
    "isClosed": {"type": "boolean"}
  }
}`

var openingSchema = mustSchema(`{
  "type": "object",
  "required": ["next"],
  "properties": {"next": ` + nextTurnSchema + `}
}`)

var assessmentSchema = mustSchema(`{
  "type": "object",
  "required": ["evaluation", "next"],
  "properties": {
    "evaluation": {
      "type": "object",
      "required": ["status", "reason", "ask_same_question"],
      "properties": {
        "status": {"type": "boolean"},
        "reason": {"type": "string", "minLength": 1},
        "ask_same_question": {"type": "boolean"},
        "exit_interview": {"type": ["boolean", "null"]},
        "response": {"type": ["string", "null"]}
      }
    },
    "next": ` + nextTurnSchema + `
  }
}`)

var resultSchema = mustSchema(`{
  "type": "object",
  "required": ["recommendation", "criteria_scores", "strengths", "weaknesses", "confidence_level"],
  "properties": {
    "overall_relevance_score": {"type": "number", "minimum": 0, "maximum": 100},
    "recommendation": {"enum": ["Match", "No Match"]},
    "criteria_scores": {
      "type": "object",
      "required": [
        "relevance_to_questions",
        "experience_background_fit",
        "role_specific_knowledge",
        "communication_skills",
        "emotional_intelligence",
        "depth_precision"
      ],
      "additionalProperties": {"type": "number", "minimum": 0, "maximum": 100}
    },
    "criteria_weights": {"type": "object"},
    "factor_based_breakdown": {
      "type": "object",
      "additionalProperties": {"type": "number", "minimum": 0, "maximum": 100}
    },
    "strengths": {"type": "array", "items": {"type": "string"}},
    "weaknesses": {"type": "array", "items": {"type": "string"}},
    "comprehensive_explanation": {"type": "string"},
    "confidence_level": {"type": "number", "minimum": 0, "maximum": 100}
  }
}`)

var documentSchema = mustSchema(`{"type": "object", "minProperties": 1}`)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded schema: %v", err))
	}
	return schema
}

// SchemaError lists the fields that failed validation.
type SchemaError struct {
	Fields []string
}

func (e *SchemaError) Error() string {
	return "schema validation failed: " + strings.Join(e.Fields, "; ")
}

func validateDocument(schema *gojsonschema.Schema, document string) error {
	result, err := schema.Validate(gojsonschema.NewStringLoader(document))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	schemaErr := &SchemaError{}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		schemaErr.Fields = append(schemaErr.Fields, field+": "+desc.Description())
	}
	return schemaErr
}

// cleanJSONResponse strips markdown fences and any prose around the outermost
// JSON object.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		content = content[start : end+1]
	}

	return strings.TrimSpace(content)
}
