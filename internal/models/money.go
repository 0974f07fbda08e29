package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Money 统一金额类型（保留 2 位小数）
type Money struct {
	decimal.Decimal
}

func roundMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(2)}
}

// NewMoneyFromDecimal 从 decimal 创建金额
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return roundMoney(amount)
}

// NewMoneyFromFloat 从浮点数创建金额
func NewMoneyFromFloat(amount float64) Money {
	return roundMoney(decimal.NewFromFloat(amount))
}

// NewMoneyFromString 从字符串创建金额
func NewMoneyFromString(raw string) (Money, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Money{}, err
	}
	return roundMoney(d), nil
}

// Add 金额相加
func (m Money) Add(other Money) Money {
	return roundMoney(m.Decimal.Add(other.Decimal))
}

// Mul 金额乘以数量
func (m Money) Mul(quantity int64) Money {
	return roundMoney(m.Decimal.Mul(decimal.NewFromInt(quantity)))
}

// MarshalJSON 统一输出 2 位小数的字符串
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON 解析金额, 接受字符串或数字字面量
func (m *Money) UnmarshalJSON(b []byte) error {
	token := bytes.TrimSpace(b)
	if len(token) == 0 || bytes.Equal(token, []byte("null")) {
		return nil
	}
	if token[0] == '"' {
		var s string
		if err := json.Unmarshal(token, &s); err != nil {
			return err
		}
		token = []byte(s)
	}
	d, err := decimal.NewFromString(string(token))
	if err != nil {
		return err
	}
	m.Decimal = d.Round(2)
	return nil
}

// Value 用于数据库写入
func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Round(2).Value()
}

// Scan 用于数据库读取
func (m *Money) Scan(value interface{}) error {
	if err := m.Decimal.Scan(value); err != nil {
		return err
	}
	m.Decimal = m.Decimal.Round(2)
	return nil
}

// String 返回 2 位小数格式
func (m Money) String() string {
	return m.Decimal.Round(2).StringFixed(2)
}
