package domain

// HistoryLimit 返回生效的历史保留条数，范围 [1, MaxNoteHistory]
func HistoryLimit(configured int) int {
	if configured <= 0 || configured > MaxNoteHistory {
		return MaxNoteHistory
	}
	return configured
}

// PrependHistory 将快照放到最前面，并截断到 limit 条
// 返回新的切片，不修改 history
func PrependHistory(history []*NoteHistory, snapshot *NoteHistory, limit int) []*NoteHistory {
	limit = HistoryLimit(limit)
	n := len(history) + 1
	if n > limit {
		n = limit
	}
	out := make([]*NoteHistory, 0, n)
	out = append(out, snapshot)
	for _, h := range history {
		if len(out) == n {
			break
		}
		out = append(out, h)
	}
	return out
}
