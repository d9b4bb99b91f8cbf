package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	errBodyTooLarge = errors.New("request body too large")
	errMalformed    = errors.New("malformed request body")
	errAmountRange  = errors.New("amount out of range")
)

// Numeric literals are bounded before anything parses them into big values.
const (
	maxNumberLength   = 32
	maxNumberExponent = 20
)

const schemaSubscribe = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "email": { "type": "string", "maxLength": 254 }
  }
}`

const schemaAddToCollection = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "productName": { "type": "string", "maxLength": 128 },
    "size": { "type": "string", "maxLength": 32 }
  }
}`

// Shared by both verification routes. Lines must carry every signed field
// with its primitive type.
const orderDefinitions = `
  "definitions": {
    "line": {
      "type": "object",
      "required": ["productCode", "productName", "price", "size"],
      "properties": {
        "_id": { "type": "string" },
        "productCode": { "type": "string" },
        "productName": { "type": "string" },
        "price": { "type": "number" },
        "imageUrl": { "type": "string" },
        "size": { "type": "string" }
      }
    },
    "cart": { "type": "array", "minItems": 1, "items": { "$ref": "#/definitions/line" } },
    "address": { "type": "object" },
    "pricing": {
      "type": "object",
      "required": ["subtotal", "discount", "delivery", "total"],
      "properties": {
        "subtotal": { "type": "number" },
        "discount": { "type": "number" },
        "delivery": { "type": "number" },
        "total": { "type": "number" }
      }
    },
    "hash": { "type": "string", "pattern": "^[0-9a-fA-F]{64}$" }
  }`

const schemaVerifyAndSave = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["cart", "address", "pricing", "hash"],
  "properties": {
    "cart": { "$ref": "#/definitions/cart" },
    "address": { "$ref": "#/definitions/address" },
    "pricing": { "$ref": "#/definitions/pricing" },
    "hash": { "$ref": "#/definitions/hash" }
  },` + orderDefinitions + `
}`

const schemaSaveOrder = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["order", "orderHash"],
  "properties": {
    "order": {
      "type": "object",
      "required": ["cart", "address", "pricing"],
      "properties": {
        "cart": { "$ref": "#/definitions/cart" },
        "address": { "$ref": "#/definitions/address" },
        "pricing": { "$ref": "#/definitions/pricing" }
      }
    },
    "orderHash": { "$ref": "#/definitions/hash" }
  },` + orderDefinitions + `
}`

var (
	subscribeLoader       = gojsonschema.NewStringLoader(schemaSubscribe)
	addToCollectionLoader = gojsonschema.NewStringLoader(schemaAddToCollection)
	verifyAndSaveLoader   = gojsonschema.NewStringLoader(schemaVerifyAndSave)
	saveOrderLoader       = gojsonschema.NewStringLoader(schemaSaveOrder)
)

func validateJSONSchema(schemaLoader gojsonschema.JSONLoader, body []byte) error {
	loader := gojsonschema.NewBytesLoader(body)
	result, err := gojsonschema.Validate(schemaLoader, loader)
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if !result.Valid() {
		var sb strings.Builder
		for _, e := range result.Errors() {
			sb.WriteString(e.String())
			sb.WriteString("; ")
		}
		return fmt.Errorf("request does not conform to schema: %s", sb.String())
	}
	return nil
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errBodyTooLarge
		}
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return body, nil
}

// decodeJSON reads the body, checks it against schema when one is given and
// decodes it into v. Numbers decode as json.Number.
func decodeJSON(r *http.Request, schema gojsonschema.JSONLoader, v interface{}) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}
	if err := checkNumbers(body); err != nil {
		return err
	}
	if schema != nil {
		if err := validateJSONSchema(schema, body); err != nil {
			return err
		}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return nil
}

// checkNumbers rejects any numeric literal in body that is too long or whose
// exponent is out of bounds. Syntax errors are left to the later stages.
func checkNumbers(body []byte) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil
		}
		n, ok := tok.(json.Number)
		if !ok {
			continue
		}
		if !numberInBounds(string(n)) {
			return fmt.Errorf("%w: number %.32q out of range", errMalformed, string(n))
		}
	}
}

func numberInBounds(n string) bool {
	if len(n) > maxNumberLength {
		return false
	}
	i := strings.IndexAny(n, "eE")
	if i < 0 {
		return true
	}
	exp, err := strconv.Atoi(n[i+1:])
	if err != nil {
		return false
	}
	return exp >= -maxNumberExponent && exp <= maxNumberExponent
}
