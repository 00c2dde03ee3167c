package medicinesparser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// facetFileSchema describes all-filters.json: column name to list of distinct values.
const facetFileSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": {
    "type": "array",
    "items": { "type": "string" }
  }
}`

var facetSchemaLoader = gojsonschema.NewStringLoader(facetFileSchema)

// ParseFacetFile validates and decodes a precomputed facet file.
func ParseFacetFile(data []byte) (map[string][]string, error) {
	result, err := gojsonschema.Validate(facetSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to validate facet file: %w", err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("facet file does not match schema: %s", strings.Join(problems, "; "))
	}

	var facets map[string][]string
	if err := json.Unmarshal(data, &facets); err != nil {
		return nil, fmt.Errorf("failed to decode facet file: %w", err)
	}
	return facets, nil
}
