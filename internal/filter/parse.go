package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Limits on caller-supplied filters.
const (
	MaxDepth      = 8
	MaxConditions = 64
	MaxListLength = 100
)

// Parse decodes a JSON filter document into an expression tree.
//
// The document is an object whose keys are field paths or the logical
// operators $and, $or and $nor. A field maps either to a scalar (implicit
// $eq) or to an object of comparison operators. Keys are visited in sorted
// order so equal documents always produce equal trees.
func Parse(data []byte) (Expr, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidFilter)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", ErrInvalidFilter, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after filter document", ErrInvalidFilter)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: filter must be a JSON object", ErrInvalidFilter)
	}

	p := &parser{}
	return p.object(obj, 1)
}

type parser struct {
	conditions int
}

func (p *parser) object(obj map[string]any, depth int) (Expr, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d levels", ErrInvalidFilter, MaxDepth)
	}

	out := And{}
	for _, key := range sortedKeys(obj) {
		value := obj[key]

		if strings.HasPrefix(key, "$") {
			e, err := p.logical(key, value, depth)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
			continue
		}

		field, err := Lookup(key)
		if err != nil {
			return nil, err
		}
		conds, err := p.field(field, value)
		if err != nil {
			return nil, err
		}
		out = append(out, conds...)
	}

	if len(out) == 1 {
		return out[0], nil
	}
	return out, nil
}

func (p *parser) logical(op string, value any, depth int) (Expr, error) {
	if op != "$and" && op != "$or" && op != "$nor" {
		return nil, fmt.Errorf("%w: unsupported operator %q", ErrInvalidFilter, op)
	}

	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s expects an array", ErrInvalidFilter, op)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s expects a non-empty array", ErrInvalidFilter, op)
	}

	children := make([]Expr, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] must be an object", ErrInvalidFilter, op, i)
		}
		child, err := p.object(obj, depth+1)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	switch op {
	case "$or":
		return Or(children), nil
	case "$nor":
		return Nor(children), nil
	default:
		return And(children), nil
	}
}

func (p *parser) field(f Field, value any) ([]Expr, error) {
	ops, isOps := value.(map[string]any)
	if !isOps {
		c, err := p.cond(f, OpEq, value)
		if err != nil {
			return nil, err
		}
		return []Expr{c}, nil
	}

	if len(ops) == 0 {
		return nil, fmt.Errorf("%w: %s: empty operator object", ErrInvalidFilter, f.Path())
	}

	out := make([]Expr, 0, len(ops))
	for _, key := range sortedKeys(ops) {
		if !strings.HasPrefix(key, "$") {
			return nil, fmt.Errorf("%w: %s: nested documents are not supported", ErrInvalidFilter, f.Path())
		}
		c, err := p.cond(f, Op(key), ops[key])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (p *parser) cond(f Field, op Op, raw any) (Cond, error) {
	p.conditions++
	if p.conditions > MaxConditions {
		return Cond{}, fmt.Errorf("%w: more than %d conditions", ErrInvalidFilter, MaxConditions)
	}

	switch op {
	case OpEq, OpNe:
		v, err := scalar(f, raw, true)
		if err != nil {
			return Cond{}, err
		}
		return Cond{Field: f, Op: op, Value: v}, nil

	case OpGt, OpGte, OpLt, OpLte:
		if f.Kind == KindID || f.Kind == KindOverlay {
			return Cond{}, fmt.Errorf("%w: %s does not support %s", ErrInvalidFilter, f.Path(), op)
		}
		v, err := scalar(f, raw, false)
		if err != nil {
			return Cond{}, err
		}
		if _, isBool := v.(bool); isBool {
			return Cond{}, fmt.Errorf("%w: %s: %s needs a number or a string", ErrInvalidFilter, f.Path(), op)
		}
		return Cond{Field: f, Op: op, Value: v}, nil

	case OpIn, OpNin:
		items, ok := raw.([]any)
		if !ok {
			return Cond{}, fmt.Errorf("%w: %s: %s expects an array", ErrInvalidFilter, f.Path(), op)
		}
		if len(items) > MaxListLength {
			return Cond{}, fmt.Errorf("%w: %s: %s accepts at most %d values", ErrInvalidFilter, f.Path(), op, MaxListLength)
		}
		values := make([]any, 0, len(items))
		for _, item := range items {
			v, err := scalar(f, item, false)
			if err != nil {
				return Cond{}, err
			}
			values = append(values, v)
		}
		return Cond{Field: f, Op: op, Value: values}, nil

	case OpExists:
		b, ok := raw.(bool)
		if !ok {
			return Cond{}, fmt.Errorf("%w: %s: $exists expects a boolean", ErrInvalidFilter, f.Path())
		}
		return Cond{Field: f, Op: op, Value: b}, nil

	default:
		return Cond{}, fmt.Errorf("%w: %s: unsupported operator %q", ErrInvalidFilter, f.Path(), op)
	}
}

// scalar checks raw against the field's kind and converts it to the value
// representation carried by Cond.
func scalar(f Field, raw any, allowNull bool) (any, error) {
	if raw == nil {
		if !allowNull {
			return nil, fmt.Errorf("%w: %s: null is only allowed with $eq and $ne", ErrInvalidFilter, f.Path())
		}
		return nil, nil
	}

	switch f.Kind {
	case KindOverlay:
		return nil, fmt.Errorf("%w: %s can only be compared with null or tested with $exists", ErrInvalidFilter, f.Path())

	case KindID:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a string", ErrInvalidFilter, f.Path())
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q is not a valid identifier", ErrInvalidFilter, f.Path(), s)
		}
		return id, nil

	case KindInt:
		n, ok := raw.(json.Number)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects an integer", ErrInvalidFilter, f.Path())
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects an integer, got %s", ErrInvalidFilter, f.Path(), n)
		}
		return i, nil

	case KindText:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a string", ErrInvalidFilter, f.Path())
		}
		return s, nil

	case KindJSON:
		switch v := raw.(type) {
		case string, bool:
			return v, nil
		case json.Number:
			return number(f, v)
		default:
			return nil, fmt.Errorf("%w: %s expects a string, number or boolean", ErrInvalidFilter, f.Path())
		}
	}

	return nil, fmt.Errorf("%w: %s has an unsupported type", ErrInvalidFilter, f.Path())
}

func number(f Field, n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	fl, err := n.Float64()
	if err != nil || math.IsInf(fl, 0) || math.IsNaN(fl) {
		return nil, fmt.Errorf("%w: %s: %s is not a valid number", ErrInvalidFilter, f.Path(), n)
	}
	return fl, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
