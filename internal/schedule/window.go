package schedule

// Aggregator merges the ordering windows of the categories in a cart.
type Aggregator struct {
	alwaysAvailable map[string]bool
}

// NewAggregator creates an aggregator. Categories in alwaysAvailable are left out of
// the merge; nil means DefaultAlwaysAvailable.
func NewAggregator(alwaysAvailable []string) *Aggregator {
	if alwaysAvailable == nil {
		alwaysAvailable = DefaultAlwaysAvailable
	}
	set := make(map[string]bool, len(alwaysAvailable))
	for _, c := range alwaysAvailable {
		set[c] = true
	}
	return &Aggregator{alwaysAvailable: set}
}

// IsAlwaysAvailable reports whether category is excluded from window merging.
func (a *Aggregator) IsAlwaysAvailable(category string) bool {
	return a.alwaysAvailable[category]
}

// MainCategories returns the distinct categories subject to merging, in first
// occurrence order.
func (a *Aggregator) MainCategories(categories []string) []string {
	seen := make(map[string]bool, len(categories))
	var main []string
	for _, c := range categories {
		if seen[c] || a.alwaysAvailable[c] {
			continue
		}
		seen[c] = true
		main = append(main, c)
	}
	return main
}

// ComputeWindow intersects the windows of the main categories in cart.
//
// Each enabled main category contributes its summary start and the later of its
// order end and delivery end. The window runs from the latest start to the earliest
// end; RestrictiveCategory is the first category that supplied the latest start.
// Carts without main categories, or whose main categories yield no bound, get the
// global hours. An inverted result is returned as computed; see EffectiveWindow.Empty.
func (a *Aggregator) ComputeWindow(cart []string, schedules ScheduleMap, global GlobalHours) EffectiveWindow {
	main := a.MainCategories(cart)
	fallback := EffectiveWindow{Start: global.Open, End: global.Close, Categories: main}
	if len(main) == 0 {
		return fallback
	}

	var (
		w       EffectiveWindow
		bounded bool
	)
	for _, category := range main {
		cs, ok := schedules[category]
		if !ok || !cs.Enabled {
			continue
		}
		summary, ok := cs.LegacySummary()
		if !ok {
			continue
		}
		start := summary.OrderStart
		end := maxClock(summary.DeliveryEnd, summary.OrderEnd)

		if !bounded {
			w = EffectiveWindow{Start: start, End: end, RestrictiveCategory: category}
			bounded = true
			continue
		}
		if start > w.Start {
			w.Start = start
			w.RestrictiveCategory = category
		}
		if end < w.End {
			w.End = end
		}
	}

	if !bounded {
		return fallback
	}
	w.Categories = main
	return w
}
