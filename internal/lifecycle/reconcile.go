package lifecycle

import "skillsprint_backend/internal/model"

// ReconcileSprints 调和目标的当前冲刺与历史冲刺列表：
//   - 当前冲刺已完成 → 不再作为当前展示，插入历史列表头部（按ID去重）；
//   - 当前冲刺未完成 → 保留为当前，并从历史列表中剔除同ID条目；
//   - 无当前冲刺 → 原样返回历史列表。
//
// 历史列表中其余条目保持服务端给定的顺序。调和后的 current+past
// 不会出现重复的冲刺ID。
func ReconcileSprints(current *model.SprintView, past []model.SprintView) (*model.SprintView, []model.SprintView) {
	if current == nil {
		return nil, past
	}

	if IsComplete(FromView(*current)) {
		for _, p := range past {
			if p.ID == current.ID {
				return nil, past
			}
		}
		merged := make([]model.SprintView, 0, len(past)+1)
		merged = append(merged, *current)
		merged = append(merged, past...)
		return nil, merged
	}

	filtered := past[:0:0]
	for _, p := range past {
		if p.ID != current.ID {
			filtered = append(filtered, p)
		}
	}
	return current, filtered
}
