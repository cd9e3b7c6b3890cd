package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/budgetrak/internal/advisor"
	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/shopspring/decimal"
)

const argsOp = "tools.args"

func getString(args map[string]interface{}, key string) string {
	if val, ok := args[key].(string); ok {
		return strings.TrimSpace(val)
	}
	return ""
}

func getStringRequired(args map[string]interface{}, key string) (string, error) {
	if val := getString(args, key); val != "" {
		return val, nil
	}
	return "", apperr.Invalidf(argsOp, "missing required argument: %s", key)
}

// getInt accepts JSON numbers with no fractional part.
func getInt(args map[string]interface{}, key string, defaultVal int) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return defaultVal, nil
	}
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case int:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, apperr.Invalidf(argsOp, "argument %s must be an integer", key)
		}
		return int(n), nil
	default:
		return 0, apperr.Invalidf(argsOp, "argument %s must be an integer, got %T", key, raw)
	}
	if f != math.Trunc(f) {
		return 0, apperr.Invalidf(argsOp, "argument %s must be an integer", key)
	}
	return int(f), nil
}

func toDecimal(raw interface{}) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	}
	return decimal.Decimal{}, fmt.Errorf("got %T, want number", raw)
}

func getDecimalRequired(args map[string]interface{}, key string) (decimal.Decimal, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return decimal.Decimal{}, apperr.Invalidf(argsOp, "missing required argument: %s", key)
	}
	d, err := toDecimal(raw)
	if err != nil {
		return decimal.Decimal{}, apperr.Invalidf(argsOp, "argument %s: %v", key, err)
	}
	return d, nil
}

// getDate parses an optional YYYY-MM-DD argument.
func getDate(args map[string]interface{}, key string) (civil.Date, error) {
	s := getString(args, key)
	if s == "" {
		return civil.Date{}, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil || !d.IsValid() {
		return civil.Date{}, apperr.Invalidf(argsOp, "argument %s must be a YYYY-MM-DD date, got %q", key, s)
	}
	return d, nil
}

func getPeriod(args map[string]interface{}) (advisor.Period, error) {
	start, err := getDate(args, "start_date")
	if err != nil {
		return advisor.Period{}, err
	}
	end, err := getDate(args, "end_date")
	if err != nil {
		return advisor.Period{}, err
	}
	p := advisor.Period{Start: start, End: end}
	return p, p.Validate()
}

func getObject(args map[string]interface{}, key string) (map[string]interface{}, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, apperr.Invalidf(argsOp, "argument %s must be an object, got %T", key, raw)
	}
	return m, nil
}

func getArrayRequired(args map[string]interface{}, key string) ([]interface{}, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, apperr.Invalidf(argsOp, "missing required argument: %s", key)
	}
	a, ok := raw.([]interface{})
	if !ok {
		return nil, apperr.Invalidf(argsOp, "argument %s must be an array, got %T", key, raw)
	}
	return a, nil
}

// getTargets reads a category to amount map.
func getTargets(args map[string]interface{}, key string) (map[string]decimal.Decimal, error) {
	m, err := getObject(args, key)
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, apperr.Invalidf(argsOp, "missing required argument: %s", key)
	}
	out := make(map[string]decimal.Decimal, len(m))
	for name, raw := range m {
		d, err := toDecimal(raw)
		if err != nil {
			return nil, apperr.Invalidf(argsOp, "budget for %q: %v", name, err)
		}
		out[name] = d
	}
	return out, nil
}
