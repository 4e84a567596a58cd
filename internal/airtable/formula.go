package airtable

import (
	"context"
	"strings"

	"whitkirk-services/internal/record"
)

// Ref returns a formula reference to the column for f.
func Ref(f record.Field) string {
	return "{" + record.MustExternalName(f) + "}"
}

// And joins conditions into an AND() formula.
func And(conditions ...string) string {
	return "AND(" + strings.Join(conditions, ",") + ")"
}

var (
	// UpcomingStreaming selects services from today onwards that are being streamed.
	UpcomingStreaming = Query{
		Formula: And(Ref(record.Datetime)+" >= TODAY()", Ref(record.Streaming)+" = 'Yes'"),
		Sort:    []string{record.MustExternalName(record.Datetime)},
	}

	// UpcomingWithOrderOfService selects services from today onwards that have an order of service.
	UpcomingWithOrderOfService = Query{
		Formula: And(Ref(record.Datetime)+" >= TODAY()", Ref(record.HasOOS)+" = TRUE()"),
		Sort:    []string{record.MustExternalName(record.Datetime)},
	}

	// UpcomingUndecidedStream selects services from today onwards with no streaming decision.
	UpcomingUndecidedStream = Query{
		Formula: And(Ref(record.Datetime)+" >= TODAY()", Ref(record.Streaming)+" = ''"),
		Sort:    []string{record.MustExternalName(record.Datetime)},
	}
)

// UpdateFields is like Update but takes logical field names.
func (c *Client) UpdateFields(ctx context.Context, id string, values map[record.Field]any) (record.Record, error) {
	return c.Update(ctx, id, record.Fields(values))
}
