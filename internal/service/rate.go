package service

import (
	"errors"
	"math"
	"time"
)

// 日型常量
const (
	DayTypeWeekday = "weekday"
	DayTypeWeekend = "weekend"
)

var ErrInvalidSession = errors.New("加班时段无效：结束时间必须晚于开始时间")

// RateResult 费率计算结果；引擎将这些值视为不透明字段原样落库
type RateResult struct {
	DayType    string
	TotalHours float64
	ORP        float64
	HRP        float64
	Amount     float64
}

// RateCalculator 外部费率计算协作方：在提交时为每个时段赋
// day_type / orp / hrp / ot_amount，引擎从不重新计算。
type RateCalculator interface {
	Calculate(otDate, start, end time.Time) (RateResult, error)
}

// standardRate 默认实现：按周中/周末倍率乘以基础时薪。
// 节假日日历不在系统范围内，节假日倍率仅作为字段带出。
type standardRate struct {
	baseHourly float64
}

// NewStandardRateCalculator 创建默认费率计算器
func NewStandardRateCalculator(baseHourly float64) RateCalculator {
	return &standardRate{baseHourly: baseHourly}
}

func (c *standardRate) Calculate(otDate, start, end time.Time) (RateResult, error) {
	if !end.After(start) {
		return RateResult{}, ErrInvalidSession
	}

	hours := math.Round(end.Sub(start).Hours()*100) / 100

	dayType := DayTypeWeekday
	orp := 1.5
	switch otDate.Weekday() {
	case time.Saturday, time.Sunday:
		dayType = DayTypeWeekend
		orp = 2.0
	}

	return RateResult{
		DayType:    dayType,
		TotalHours: hours,
		ORP:        orp,
		HRP:        3.0,
		Amount:     math.Round(hours*orp*c.baseHourly*100) / 100,
	}, nil
}
