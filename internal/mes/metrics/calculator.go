// Package metrics 按工序日志重放计算工位人工指标。
// 纯内存计算，不依赖数据库，方便对重放语义做确定性测试。
package metrics

import (
	"sort"
	"time"
)

// 与entity.StageEvent*保持同一套字面量，这里不引入entity避免循环依赖。
const (
	eventStart    = "START"
	eventPause    = "PAUSE"
	eventComplete = "COMPLETE"
)

// Event 参与重放的单条工序日志
type Event struct {
	WorkOrderID string
	UserID      string
	Event       string // START / PAUSE / COMPLETE
	At          time.Time
}

// Result 一个工位在一个周期内的人工指标汇总
type Result struct {
	WeightedAverageRate float64 `json:"weighted_average_rate"`
	TotalHoursWorked    float64 `json:"total_hours_worked"`
	TotalLaborCost      float64 `json:"total_labor_cost"`
	UniqueOperatorCount int     `json:"unique_operator_count"`
}

// session 每个工单同一时刻最多一个在计时的会话
type session struct {
	userID  string
	rate    float64
	startAt time.Time
}

// Replay 按时间升序重放日志，返回汇总指标。
// 规则：
//   - START开启该工单的会话，记下操作工与其当时的小时工资；
//     同一工单重复START以最新一次为准（同工单同人的并行会话不支持）。
//   - PAUSE/COMPLETE且操作工与会话一致时，按(事件时刻-开始时刻)累计工时与成本，
//     然后关闭会话。PAUSE不会自动恢复计时，必须有新的START才继续累计。
//   - 没有匹配START的PAUSE/COMPLETE（孤儿事件）直接忽略，不报错。
//
// 一小时工时都没累计出来时返回nil。
// rates给出每个操作工的小时工资，工资在START时刻取定。
func Replay(events []Event, rates map[string]float64) *Result {
	ordered := make([]Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].At.Before(ordered[j].At)
	})

	sessions := make(map[string]session)          // workOrderID -> 进行中会话
	hoursByUser := make(map[string]float64)       // userID -> 累计工时
	costByUser := make(map[string]float64)        // userID -> 累计成本

	for _, ev := range ordered {
		switch ev.Event {
		case eventStart:
			sessions[ev.WorkOrderID] = session{
				userID:  ev.UserID,
				rate:    rates[ev.UserID],
				startAt: ev.At,
			}
		case eventPause, eventComplete:
			sess, ok := sessions[ev.WorkOrderID]
			if !ok || sess.userID != ev.UserID {
				continue // 孤儿事件
			}
			hours := ev.At.Sub(sess.startAt).Seconds() / 3600
			if hours > 0 {
				hoursByUser[ev.UserID] += hours
				costByUser[ev.UserID] += hours * sess.rate
			}
			delete(sessions, ev.WorkOrderID)
		}
	}

	var totalHours, totalCost float64
	for userID, hours := range hoursByUser {
		totalHours += hours
		totalCost += costByUser[userID]
	}
	if totalHours == 0 {
		return nil
	}

	return &Result{
		WeightedAverageRate: totalCost / totalHours,
		TotalHoursWorked:    totalHours,
		TotalLaborCost:      totalCost,
		UniqueOperatorCount: len(hoursByUser),
	}
}
