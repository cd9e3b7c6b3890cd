package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/budgetrak/internal/domain"
	"github.com/shopspring/decimal"
)

// decodeModelJSON parses cleaned model output keeping numbers exact.
func decodeModelJSON(raw string) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(cleanModelJSON(raw))))
	dec.UseNumber()
	var parsed interface{}
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("model output is not valid JSON: %w (output: %q)", err, describeOutput(raw))
	}
	return parsed, nil
}

// transformModelOutput converts raw model output into a statement.
// The output is either {"account_info": {...}, "transactions": [...]} or a
// bare array of transactions.
func transformModelOutput(raw string, categories *CategoryValidator) (*domain.Statement, error) {
	parsed, err := decodeModelJSON(raw)
	if err != nil {
		return nil, err
	}

	stmt := &domain.Statement{}
	var txAny interface{}

	switch v := parsed.(type) {
	case []interface{}:
		txAny = v
	case map[string]interface{}:
		t, ok := v["transactions"]
		if !ok {
			return nil, fmt.Errorf("missing 'transactions' key in model output")
		}
		txAny = t
		if acctAny, ok := v["account_info"]; ok && acctAny != nil {
			acct, ok := acctAny.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("'account_info' is %T, want object", acctAny)
			}
			info, err := transformAccountInfo(acct)
			if err != nil {
				return nil, err
			}
			stmt.Account = *info
		}
	default:
		return nil, fmt.Errorf("model output is %T, want object or array", parsed)
	}

	txSlice, ok := txAny.([]interface{})
	if !ok {
		return nil, fmt.Errorf("'transactions' is %T, want array", txAny)
	}

	stmt.Transactions = make([]domain.Transaction, 0, len(txSlice))
	for i, item := range txSlice {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("transaction %d: element is %T, want object", i, item)
		}
		tx, err := transformTransaction(obj, categories)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		stmt.Transactions = append(stmt.Transactions, *tx)
	}

	return stmt, nil
}

func transformTransaction(obj map[string]interface{}, categories *CategoryValidator) (*domain.Transaction, error) {
	// Required fields
	dateStr, err := getStringField(obj, "date", true)
	if err != nil {
		return nil, err
	}
	date, err := civil.ParseDate(strings.TrimSpace(dateStr))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	amount, err := getDecimalField(obj, "amount")
	if err != nil {
		return nil, err
	}

	// Description falls back to the merchant name and vice versa.
	desc, err := getOptionalStringField(obj, "description")
	if err != nil {
		return nil, err
	}
	merchant, err := getOptionalStringField(obj, "merchant")
	if err != nil {
		return nil, err
	}
	if desc == nil && merchant == nil {
		return nil, fmt.Errorf("missing required field %q", "description")
	}
	if desc == nil {
		desc = merchant
	}
	if merchant == nil {
		merchant = desc
	}

	// Optional fields
	typ, err := getOptionalStringField(obj, "type")
	if err != nil {
		return nil, err
	}
	category, err := getOptionalStringField(obj, "category")
	if err != nil {
		return nil, err
	}

	tx := &domain.Transaction{
		Date:        date,
		Merchant:    *merchant,
		Description: *desc,
		Amount:      amount,
	}
	if typ != nil {
		tx.Type = domain.ParseTransactionType(*typ)
	}
	if category != nil {
		tx.Category = categories.Canonical(*category)
	}
	tx.NormalizeSign()

	return tx, nil
}

// transformAccountInfo reads the statement header. Every field is optional
// but present values must be well formed.
func transformAccountInfo(raw map[string]interface{}) (*domain.AccountInfo, error) {
	info := &domain.AccountInfo{}

	bank, err := getOptionalStringField(raw, "bank")
	if err != nil {
		return nil, fmt.Errorf("account_info: %w", err)
	}
	if bank != nil {
		info.Bank = *bank
	}

	number, err := getOptionalTextField(raw, "account_number")
	if err != nil {
		return nil, fmt.Errorf("account_info: %w", err)
	}
	if number != nil {
		info.AccountNumber = *number
	}

	for key, dst := range map[string]**civil.Date{
		"statement_period_start": &info.PeriodStart,
		"statement_period_end":   &info.PeriodEnd,
	} {
		s, err := getOptionalStringField(raw, key)
		if err != nil {
			return nil, fmt.Errorf("account_info: %w", err)
		}
		if s == nil {
			continue
		}
		d, err := civil.ParseDate(*s)
		if err != nil {
			return nil, fmt.Errorf("account_info: invalid %s %q: %w", key, *s, err)
		}
		*dst = &d
	}

	for key, dst := range map[string]**decimal.Decimal{
		"beginning_balance": &info.BeginningBalance,
		"ending_balance":    &info.EndingBalance,
	} {
		d, err := getOptionalDecimalField(raw, key)
		if err != nil {
			return nil, fmt.Errorf("account_info: %w", err)
		}
		*dst = d
	}

	return info, nil
}

func getStringField(m map[string]interface{}, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	switch val := v.(type) {
	case string:
		if required && strings.TrimSpace(val) == "" {
			return "", fmt.Errorf("required field %q is empty", key)
		}
		return val, nil
	default:
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
}

func getOptionalStringField(m map[string]interface{}, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, nil
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want string or null", key, v)
	}
}

// getOptionalTextField accepts a string or a bare number, for identifiers
// the model sometimes emits unquoted.
func getOptionalTextField(m map[string]interface{}, key string) (*string, error) {
	if n, ok := m[key].(json.Number); ok {
		s := n.String()
		return &s, nil
	}
	return getOptionalStringField(m, key)
}

func getDecimalField(m map[string]interface{}, key string) (decimal.Decimal, error) {
	d, err := getOptionalDecimalField(m, key)
	if err != nil {
		return decimal.Zero, err
	}
	if d == nil {
		return decimal.Zero, fmt.Errorf("missing required field %q", key)
	}
	return *d, nil
}

func getOptionalDecimalField(m map[string]interface{}, key string) (*decimal.Decimal, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	var (
		d   decimal.Decimal
		err error
	)
	switch val := v.(type) {
	case json.Number:
		d, err = decimal.NewFromString(val.String())
	case float64:
		d = decimal.NewFromFloat(val)
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		d, err = parseMoney(val)
	default:
		return nil, fmt.Errorf("field %q has type %T, want number", key, v)
	}
	if err != nil {
		return nil, fmt.Errorf("field %q: invalid amount %v: %w", key, v, err)
	}
	return &d, nil
}

// parseMoney reads amounts printed as text: "$1,234.50", "-12.00",
// "(45.10)" for negatives.
func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	s = strings.NewReplacer(",", "", "$", "", "£", "", "€", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}
