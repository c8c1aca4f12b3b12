package checklist

import "github.com/vbonduro/housecheck/internal/domain"

// CalculateProgress derives per-section and overall completion from states.
// Overall is the unweighted mean of the section percentages; sections with no
// items are reported but left out of the mean.
func CalculateProgress(tpl *domain.Template, states domain.ItemStates) domain.Progress {
	progress := domain.Progress{Sections: make([]domain.SectionProgress, 0, len(tpl.Sections))}

	var sum float64
	counted := 0
	for _, sec := range tpl.Sections {
		sp := domain.SectionProgress{Key: sec.Key, Name: sec.Name}
		for _, item := range sec.Items {
			done := states[item.ID].Completed
			if item.Required {
				sp.RequiredTotal++
				if done {
					sp.RequiredDone++
				}
			} else {
				sp.OptionalTotal++
				if done {
					sp.OptionalDone++
				}
			}
		}

		total := sp.RequiredTotal + sp.OptionalTotal
		if total > 0 {
			sp.Percent = percent(sp.RequiredDone+sp.OptionalDone, total)
			sum += sp.Percent
			counted++
		}

		progress.RequiredDone += sp.RequiredDone
		progress.RequiredTotal += sp.RequiredTotal
		progress.Sections = append(progress.Sections, sp)
	}

	if counted > 0 {
		progress.Overall = sum / float64(counted)
	}
	return progress
}

// UnmetRequired lists the required items that are not completed, in
// template order.
func UnmetRequired(tpl *domain.Template, states domain.ItemStates) []domain.UnmetItem {
	var unmet []domain.UnmetItem
	for _, sec := range tpl.Sections {
		for _, item := range sec.Items {
			if !item.Required || states[item.ID].Completed {
				continue
			}
			unmet = append(unmet, domain.UnmetItem{
				ItemID:  item.ID,
				Label:   item.Label,
				Section: sec.Key,
				Hint:    domain.KindHint(item.Kind),
			})
		}
	}
	return unmet
}

func percent(done, total int) float64 {
	return float64(done) * 100 / float64(total)
}
