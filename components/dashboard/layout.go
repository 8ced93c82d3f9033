package dashboard

import "sort"

// sortByPosition orders persisted widgets top to bottom, then left to right.
// Ties fall back to id so rebuilding a grid is deterministic.
func sortByPosition(widgets []PersistableWidget) []PersistableWidget {
	out := append([]PersistableWidget(nil), widgets...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Options.Position, out[j].Options.Position
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		if a.Col != b.Col {
			return a.Col < b.Col
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ReadingOrder returns copies of the widgets sorted top to bottom, then left to right.
func ReadingOrder(widgets []*Widget) []*Widget {
	out := make([]*Widget, 0, len(widgets))
	for _, w := range widgets {
		out = append(out, w.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Position, out[j].Position
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		if a.Col != b.Col {
			return a.Col < b.Col
		}
		return out[i].ID < out[j].ID
	})
	return out
}
