package tasks

import (
	"context"

	"whitkirk-services/internal/airtable"
	"whitkirk-services/internal/service"
)

// List derives a summary for every record matching q. Records that cannot be
// built are reported in the outcomes and left out of the summaries.
func (r *Runner) List(ctx context.Context, q airtable.Query) ([]service.Summary, []Outcome, error) {
	entries, err := r.load(ctx, q)
	if err != nil {
		return nil, nil, err
	}

	var summaries []service.Summary
	var failed []Outcome
	for _, e := range entries {
		if e.err != nil {
			failed = append(failed, Outcome{RecordID: e.rec.ID, Action: ActionFailed, Err: e.err})
			continue
		}
		summaries = append(summaries, e.svc.Summarise(e.previous))
	}
	return summaries, failed, nil
}
