package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"
)

const schemaJSON = `{
  "type": "object",
  "required": ["scripts"],
  "properties": {
    "scripts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["repo", "file", "name"],
        "properties": {
          "repo": {"type": "string", "minLength": 1},
          "file": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "requiresAdmin": {"type": "boolean"},
          "parameters": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["name"],
              "properties": {
                "name": {"type": "string", "pattern": "^[A-Za-z_][A-Za-z0-9_]*$"},
                "type": {"type": "string"},
                "label": {"type": "string"},
                "required": {"type": "boolean"},
                "options": {
                  "type": "array",
                  "items": {
                    "anyOf": [
                      {"type": ["string", "number", "boolean"]},
                      {
                        "type": "object",
                        "required": ["value"],
                        "properties": {
                          "value": {"type": ["string", "number", "boolean"]},
                          "label": {"type": "string"}
                        }
                      }
                    ]
                  }
                },
                "placeholder": {"type": "string"},
                "description": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(schemaJSON)

// Parse validates data against the catalog schema and decodes it.
func Parse(data []byte) (*Catalog, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	c.defaultTypes()
	return &c, nil
}

// defaultTypes renders parameters with a missing or unrecognized type as
// plain text inputs.
func (c *Catalog) defaultTypes() {
	for i := range c.Scripts {
		params := c.Scripts[i].Parameters
		for j := range params {
			if !params[j].Type.Known() {
				params[j].Type = TypeText
			}
		}
	}
}

// Load reads and validates the catalog at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return Parse(data)
}

// LoadOrEmpty loads the catalog, returning an empty one when the file is
// missing or malformed. Execution features stay disabled for an empty catalog.
func LoadOrEmpty(path string, log logrus.FieldLogger) *Catalog {
	c, err := Load(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Warn("catalog unavailable, continuing with no scripts")
		return &Catalog{}
	}
	log.WithField("scripts", len(c.Scripts)).Debug("catalog loaded")
	return c
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
