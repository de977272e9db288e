package escrow

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	actionCount  = stats.Int64("escrow/actions", "Escrow actions executed", stats.UnitDimensionless)
	buildLatency = stats.Float64("escrow/build_latency", "Time to build an escrow transaction",
		stats.UnitMilliseconds)

	keyAction = tag.MustNewKey("action")
	keyResult = tag.MustNewKey("result")

	ActionCountView = &view.View{
		Name:        "escrow/actions",
		Measure:     actionCount,
		Description: "Escrow actions by action and result",
		TagKeys:     []tag.Key{keyAction, keyResult},
		Aggregation: view.Count(),
	}

	BuildLatencyView = &view.View{
		Name:        "escrow/build_latency",
		Measure:     buildLatency,
		Description: "Distribution of escrow transaction build times",
		TagKeys:     []tag.Key{keyAction},
		Aggregation: view.Distribution(10, 50, 100, 250, 500, 1000, 2500, 5000, 10000),
	}
)

// RegisterViews registers the escrow stats views with opencensus.
func RegisterViews() error {
	return view.Register(ActionCountView, BuildLatencyView)
}

// recordResult counts an executed action. result is "success" or the error code name.
func recordResult(ctx context.Context, action Action, err error) {
	result := "success"
	if err != nil {
		result = ErrorCodeString(ErrorCode(err))
	}

	stats.RecordWithTags(ctx, []tag.Mutator{
		tag.Upsert(keyAction, string(action)),
		tag.Upsert(keyResult, result),
	}, actionCount.M(1))
}

func recordBuildLatency(ctx context.Context, action Action, start time.Time) {
	stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(keyAction, string(action))},
		buildLatency.M(float64(time.Since(start))/float64(time.Millisecond)))
}
