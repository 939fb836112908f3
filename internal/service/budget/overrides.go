package budget

// allowanceOverrides 项目预算修正表
// 历史上部分项目在上游没有可用预算字段，这里人工维护其真实额度（小时）。
// 命中修正表的额度优先于启发式推导。
var allowanceOverrides = map[int64]float64{
	// 老项目的历史修正值，按需增补
	1287: 120,
	1342: 80,
	1398: 250,
	1455: 60,
}

// OverrideAllowance 查修正表；未命中返回 (0, false)
func OverrideAllowance(projectID int64) (float64, bool) {
	hours, ok := allowanceOverrides[projectID]
	return hours, ok
}
