package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/JonMunkholm/reviewsense/internal/core"
)

// maxJSONBody caps JSON request bodies; a full batch is far below it.
const maxJSONBody = 1 << 20

// Request bodies are checked for shape here. Count and length limits are
// configurable and enforced by core.ValidateBatch.
const classifyRequestSchema = `{
  "type": "object",
  "required": ["text"],
  "properties": {
    "text": {"type": "string"}
  },
  "additionalProperties": false
}`

const batchRequestSchema = `{
  "type": "object",
  "required": ["texts"],
  "properties": {
    "texts": {"type": "array", "items": {"type": "string"}}
  },
  "additionalProperties": false
}`

type requestSchemas struct {
	classify *jsonschema.Schema
	batch    *jsonschema.Schema
}

// ClassifyRequest is the body of POST /api/classify.
type ClassifyRequest struct {
	Text string `json:"text"`
}

// BatchRequest is the body of POST /api/classify-batch.
type BatchRequest struct {
	Texts []string `json:"texts"`
}

func compileRequestSchemas() (*requestSchemas, error) {
	compiler := jsonschema.NewCompiler()
	resources := map[string]string{
		"classify.json": classifyRequestSchema,
		"batch.json":    batchRequestSchema,
	}
	for name, src := range resources {
		if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}

	classify, err := compiler.Compile("classify.json")
	if err != nil {
		return nil, fmt.Errorf("compile classify schema: %w", err)
	}
	batch, err := compiler.Compile("batch.json")
	if err != nil {
		return nil, fmt.Errorf("compile batch schema: %w", err)
	}
	return &requestSchemas{classify: classify, batch: batch}, nil
}

// decodeJSON reads the body, validates it against schema, then decodes it into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, schema *jsonschema.Schema, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return fmt.Errorf("%w: request body exceeds %d bytes", core.ErrOversizeDocument, mbe.Limit)
		}
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}
