// Package snapshot converts producer documents into validated snapshots.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"poolScope/internal/model"
)

const rootPath = "$"

// Parse decodes a JSON snapshot document.
func Parse(data []byte) (*model.Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, malformed(rootPath, "invalid json: %v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, malformed(rootPath, "trailing data after document")
	}

	obj, ok := doc.(map[string]interface{})
	if !ok {
		return nil, malformed(rootPath, "expected object, got %s", typeName(doc))
	}
	return FromDocument(obj)
}

// FromDocument validates an already decoded document. Numeric fields may be
// json.Number or any Go integer type; integral float64 values are accepted.
// Either a complete snapshot or a *MalformedError is returned.
func FromDocument(doc map[string]interface{}) (*model.Snapshot, error) {
	if doc == nil {
		return nil, malformed(rootPath, "document is nil")
	}

	rawTokens, err := requireArray(doc, "tokens", "tokens")
	if err != nil {
		return nil, err
	}
	rawPools, err := requireArray(doc, "pools", "pools")
	if err != nil {
		return nil, err
	}

	tokens := make([]model.Token, 0, len(rawTokens))
	for i, raw := range rawTokens {
		token, err := parseToken(raw, fmt.Sprintf("tokens[%d]", i))
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}

	pools := make([]model.Pool, 0, len(rawPools))
	for i, raw := range rawPools {
		pool, err := parsePool(raw, fmt.Sprintf("pools[%d]", i))
		if err != nil {
			return nil, err
		}
		pools = append(pools, pool)
	}

	return model.NewSnapshot(tokens, pools), nil
}

func parseToken(raw interface{}, path string) (model.Token, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return model.Token{}, malformed(path, "expected object, got %s", typeName(raw))
	}

	var token model.Token
	var err error
	if token.Symbol, err = requireString(obj, "symbol", path); err != nil {
		return model.Token{}, err
	}
	decimals, err := requireUint(obj, "decimals", path, math.MaxUint32)
	if err != nil {
		return model.Token{}, err
	}
	token.Decimals = uint32(decimals)
	if token.Address, err = requireString(obj, "address", path); err != nil {
		return model.Token{}, err
	}
	return token, nil
}

func parsePool(raw interface{}, path string) (model.Pool, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return model.Pool{}, malformed(path, "expected object, got %s", typeName(raw))
	}

	var pool model.Pool
	var err error
	if pool.DexName, err = requireString(obj, "dexName", path); err != nil {
		return model.Pool{}, err
	}
	if pool.Chain, err = requireString(obj, "chain", path); err != nil {
		return model.Pool{}, err
	}
	if pool.Token0, err = requireString(obj, "token0", path); err != nil {
		return model.Pool{}, err
	}
	if pool.Token1, err = requireString(obj, "token1", path); err != nil {
		return model.Pool{}, err
	}
	if pool.Reserve0, err = requireUint(obj, "reserve0", path, math.MaxUint64); err != nil {
		return model.Pool{}, err
	}
	if pool.Reserve1, err = requireUint(obj, "reserve1", path, math.MaxUint64); err != nil {
		return model.Pool{}, err
	}
	if pool.Fee, err = requireUint(obj, "fee", path, math.MaxUint64); err != nil {
		return model.Pool{}, err
	}
	return pool, nil
}

func requireArray(obj map[string]interface{}, key, path string) ([]interface{}, error) {
	val, ok := obj[key]
	if !ok || val == nil {
		return nil, malformed(path, "missing required field")
	}
	arr, ok := val.([]interface{})
	if !ok {
		return nil, malformed(path, "expected array, got %s", typeName(val))
	}
	return arr, nil
}

func requireString(obj map[string]interface{}, key, parent string) (string, error) {
	path := parent + "." + key
	val, ok := obj[key]
	if !ok || val == nil {
		return "", malformed(path, "missing required field")
	}
	s, ok := val.(string)
	if !ok {
		return "", malformed(path, "expected string, got %s", typeName(val))
	}
	return s, nil
}

func requireUint(obj map[string]interface{}, key, parent string, max uint64) (uint64, error) {
	path := parent + "." + key
	val, ok := obj[key]
	if !ok || val == nil {
		return 0, malformed(path, "missing required field")
	}
	n, err := toUint(val)
	if err != nil {
		return 0, malformed(path, "%v", err)
	}
	if n > max {
		return 0, malformed(path, "value %d exceeds %d", n, max)
	}
	return n, nil
}

func toUint(val interface{}) (uint64, error) {
	switch v := val.(type) {
	case json.Number:
		return parseNumber(string(v))
	case uint64:
		return v, nil
	case uint32:
		return uint64(v), nil
	case uint:
		return uint64(v), nil
	case int64:
		return fromSigned(v)
	case int32:
		return fromSigned(int64(v))
	case int:
		return fromSigned(int64(v))
	case float64:
		return fromFloat(v)
	default:
		return 0, fmt.Errorf("expected non-negative integer, got %s", typeName(val))
	}
}

func parseNumber(text string) (uint64, error) {
	if n, err := strconv.ParseUint(text, 10, 64); err == nil {
		return n, nil
	}
	if strings.HasPrefix(text, "-") {
		// -0 and -0.0 are zero.
		if f, err := strconv.ParseFloat(text, 64); err == nil && f == 0 {
			return 0, nil
		}
		return 0, fmt.Errorf("must be non-negative, got %s", text)
	}
	if strings.ContainsAny(text, ".eE") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %s", text)
		}
		return fromFloat(f)
	}
	return 0, fmt.Errorf("integer out of range: %s", text)
}

func fromSigned(v int64) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("must be non-negative, got %d", v)
	}
	return uint64(v), nil
}

func fromFloat(f float64) (uint64, error) {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0, fmt.Errorf("expected non-negative integer, got %v", f)
	case f < 0:
		return 0, fmt.Errorf("must be non-negative, got %v", f)
	case f != math.Trunc(f):
		return 0, fmt.Errorf("expected integer, got %v", f)
	case f >= math.MaxUint64:
		return 0, fmt.Errorf("integer out of range: %v", f)
	}
	return uint64(f), nil
}

func typeName(val interface{}) string {
	switch val.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case json.Number, float64, int, int32, int64, uint, uint32, uint64:
		return "number"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", val)
	}
}
