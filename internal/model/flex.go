package model

import (
	"bytes"
	"strconv"
)

// FlexFloat 宽松数值：上游对同一字段时而返回数字、时而返回字符串
// 缺失/null/空串一律按 0 处理
type FlexFloat float64

// UnmarshalJSON 实现宽松解析
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		s := string(data[1 : len(data)-1])
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexFloat(v)
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

// FlexInt 宽松整数，解析规则同 FlexFloat
type FlexInt int64

// UnmarshalJSON 实现宽松解析
func (i *FlexInt) UnmarshalJSON(data []byte) error {
	var f FlexFloat
	if err := f.UnmarshalJSON(data); err != nil {
		return err
	}
	*i = FlexInt(f)
	return nil
}
