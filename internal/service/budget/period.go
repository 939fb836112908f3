package budget

import (
	"time"

	"accelodash/internal/model"
)

// PeriodStatusOpened 上游标记的进行中周期
const PeriodStatusOpened = "opened"

// SelectCurrentPeriod 选出服务协议的当前周期
// 优先级：
//  1. status 为 opened 的周期（无论排在第几位）
//  2. [commencedAt, expiresAt] 覆盖当前时刻的周期
//  3. 最近开始的周期（入参已按开始时间倒序，取第一个）
//  4. 均不满足返回 nil（协议按无数据展示）
func SelectCurrentPeriod(periods []model.RawPeriod, now time.Time) *model.RawPeriod {
	for i := range periods {
		if periods[i].Status == PeriodStatusOpened {
			return &periods[i]
		}
	}

	nowUnix := now.Unix()
	for i := range periods {
		commenced := int64(periods[i].CommencedAt)
		expires := int64(periods[i].ExpiresAt)
		if commenced > 0 && expires > 0 && commenced <= nowUnix && nowUnix <= expires {
			return &periods[i]
		}
	}

	if len(periods) > 0 {
		return &periods[0]
	}
	return nil
}
