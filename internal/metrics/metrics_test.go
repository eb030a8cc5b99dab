package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/schedorder/constants"
	"github.com/joseph-ayodele/schedorder/internal/entity"
)

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "success", ResultLabel(entity.Succeeded(&entity.ExtractedDocument{}, false)))
	assert.Equal(t, "needs_review", ResultLabel(entity.Succeeded(&entity.ExtractedDocument{}, true)))
	assert.Equal(t, "duplicate_document", ResultLabel(entity.Failed(constants.FailureDuplicate, "dup")))
	assert.Equal(t, "failed", ResultLabel(entity.ExtractionOutcome{}))
}

func TestPipelineObserver(t *testing.T) {
	before := testutil.ToFloat64(DeadlinesTotal.WithLabelValues(string(constants.Motion)))
	beforeOK := testutil.ToFloat64(ExtractionsTotal.WithLabelValues("success"))

	doc := &entity.ExtractedDocument{Deadlines: []entity.Deadline{
		{Category: constants.Motion}, {Category: constants.Motion},
	}}
	var obs PipelineObserver
	obs.Stage(constants.StageDone)
	obs.Outcome(entity.Succeeded(doc, false), 10*time.Millisecond)

	assert.Equal(t, before+2, testutil.ToFloat64(DeadlinesTotal.WithLabelValues(string(constants.Motion))))
	assert.Equal(t, beforeOK+1, testutil.ToFloat64(ExtractionsTotal.WithLabelValues("success")))
}
