// Package codec converts between the JSON wire form of a game and
// models.Game. Decoding is parse → validate → construct; every problem
// found along the way is reported per field instead of stopping at the first.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gamestore/backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// SchemaKey holds errors that concern the payload as a whole.
const SchemaKey = "_schema"

const (
	MsgInvalidJSON = "Invalid JSON body."
	MsgInvalidType = "Invalid input type."
	MsgMissing     = "Missing data for required field."
	MsgNull        = "Field may not be null."
	MsgString      = "Not a valid string."
	MsgNumber      = "Not a valid number."
	MsgInteger     = "Not a valid integer."
	MsgUnknown     = "Unknown field."
)

// FieldErrors maps a field name to what is wrong with it. It is also the
// body of a 400 response.
type FieldErrors map[string][]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e[k], " "))
	}
	return "invalid game: " + strings.Join(parts, "; ")
}

func (e FieldErrors) add(field, msg string) { e[field] = append(e[field], msg) }

// Payload is a parsed JSON object whose values are still undecoded.
type Payload map[string]json.RawMessage

// Parse checks that body is a JSON object.
func Parse(body []byte) (Payload, FieldErrors) {
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, FieldErrors{SchemaKey: {MsgInvalidJSON}}
	}
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil || p == nil {
		return nil, FieldErrors{SchemaKey: {MsgInvalidType}}
	}
	return p, nil
}

type kind int

const (
	kindString kind = iota
	kindNumber
	kindInteger
)

type field struct {
	name     string
	kind     kind
	required bool
	nullable bool
	rules    string // validator tag applied to the decoded value
}

var gameFields = []field{
	{name: "name", kind: kindString, required: true, rules: "max=255"},
	{name: "description", kind: kindString, required: true, rules: "max=255"},
	{name: "price", kind: kindNumber, required: true},
	{name: "inventory_quantity", kind: kindInteger, nullable: true},
}

// Read-only on input; the store assigns it.
const idField = "id"

var validate = validator.New()

// Patch carries the fields present in a partial update. A nil pointer means
// the field was absent. SetInventory distinguishes an explicit null from absence.
type Patch struct {
	Name              *string
	Description       *string
	Price             *float64
	SetInventory      bool
	InventoryQuantity *int
}

// Apply overwrites the fields present in the patch.
func (p Patch) Apply(g *models.Game) {
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.Price != nil {
		g.Price = *p.Price
	}
	if p.SetInventory {
		g.InventoryQuantity = p.InventoryQuantity
	}
}

// Decode validates a create payload and builds a game without an id.
func Decode(p Payload) (*models.Game, FieldErrors) {
	errs := FieldErrors{}
	for key := range p {
		if key != idField && !known(key) {
			errs.add(key, MsgUnknown)
		}
	}
	patch := decodeFields(p, true, errs)
	if len(errs) > 0 {
		return nil, errs
	}
	g := &models.Game{}
	patch.Apply(g)
	return g, nil
}

// DecodePatch validates only the fields present in p. Unknown keys are ignored.
func DecodePatch(p Payload) (Patch, FieldErrors) {
	errs := FieldErrors{}
	patch := decodeFields(p, false, errs)
	if len(errs) > 0 {
		return Patch{}, errs
	}
	return patch, nil
}

func known(key string) bool {
	for _, f := range gameFields {
		if f.name == key {
			return true
		}
	}
	return false
}

func decodeFields(p Payload, requireAll bool, errs FieldErrors) Patch {
	var patch Patch
	for _, f := range gameFields {
		raw, ok := p[f.name]
		if !ok {
			if requireAll && f.required {
				errs.add(f.name, MsgMissing)
			}
			continue
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			if !f.nullable {
				errs.add(f.name, MsgNull)
				continue
			}
			if f.name == "inventory_quantity" {
				patch.SetInventory = true
				patch.InventoryQuantity = nil
			}
			continue
		}

		switch f.kind {
		case kindString:
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				errs.add(f.name, MsgString)
				continue
			}
			if msg := check(s, f.rules); msg != "" {
				errs.add(f.name, msg)
				continue
			}
			if f.name == "name" {
				patch.Name = &s
			} else {
				patch.Description = &s
			}
		case kindNumber:
			var n float64
			if err := json.Unmarshal(raw, &n); err != nil {
				errs.add(f.name, MsgNumber)
				continue
			}
			patch.Price = &n
		case kindInteger:
			var n int
			if err := json.Unmarshal(raw, &n); err != nil {
				errs.add(f.name, MsgInteger)
				continue
			}
			patch.SetInventory = true
			patch.InventoryQuantity = &n
		}
	}
	return patch
}

func check(v any, rules string) string {
	if rules == "" {
		return ""
	}
	err := validate.Var(v, rules)
	if err == nil {
		return ""
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "max":
		return fmt.Sprintf("Longer than maximum length %s.", fe.Param())
	default:
		return fmt.Sprintf("Failed %s validation.", fe.Tag())
	}
}
