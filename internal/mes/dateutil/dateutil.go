package dateutil

import (
	"fmt"
	"time"
)

// DateLayout 日期字段统一格式（计划开工/完工日期等）
const DateLayout = "2006-01-02"

// ParseDate 把"YYYY-MM-DD"解析成UTC零点时刻。
// 日期字段不携带时区信息，统一落在UTC零点，避免跨时区比较漂移。
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("日期格式错误(应为YYYY-MM-DD): %s", s)
	}
	return t.UTC(), nil
}

// ParseDatePtr ParseDate的指针版，空串返回nil。
func ParseDatePtr(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Truncate 把任意时刻归一到其所在UTC日的零点。
func Truncate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Format 输出"YYYY-MM-DD"。
func Format(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
