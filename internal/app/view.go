package app

import "github.com/felixbrock/okrs/internal/domain"

type KeyResultView struct {
	ObjectiveId string
	Id          string
	Description string
	Metric      string
	Current     float64
	Target      float64
	// Percentage and Completed come from the last reconciled collection.
	Percentage int
	Completed  bool
	// Preview is set while a typed value has not been confirmed yet.
	Preview           bool
	PreviewCurrent    float64
	PreviewPercentage int
	State             MutationState
}

type ObjectiveView struct {
	Id         string
	Title      string
	Percentage int
	Complete   bool
	State      MutationState
	KeyResults []KeyResultView
}

// Views derives the display model. Rollups are computed on every call from
// the stored values only; echoed values only affect the per-item preview.
func (s Snapshot) Views() []ObjectiveView {
	views := make([]ObjectiveView, 0, len(s.Objectives))

	for _, o := range s.Objectives {
		view := ObjectiveView{
			Id:         o.Id,
			Title:      o.Title,
			Percentage: domain.ObjectivePercentage(o),
			Complete:   o.IsComplete(),
			State:      s.State(ObjectiveRegion(o.Id)),
			KeyResults: make([]KeyResultView, 0, len(o.KeyResults)),
		}

		for _, kr := range o.KeyResults {
			region := KeyResultRegion(o.Id, kr.Id)
			krView := KeyResultView{
				ObjectiveId: o.Id,
				Id:          kr.Id,
				Description: kr.Description,
				Metric:      kr.Metric,
				Current:     kr.Current,
				Target:      kr.Target,
				Percentage:  kr.Percentage(),
				Completed:   kr.IsCompleted(),
				State:       s.State(region),
			}
			if echo, ok := s.Echoes[region]; ok {
				krView.Preview = true
				krView.PreviewCurrent = echo
				krView.PreviewPercentage = domain.Percentage(echo, kr.Target)
			}
			view.KeyResults = append(view.KeyResults, krView)
		}

		views = append(views, view)
	}

	return views
}
