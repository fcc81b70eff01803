package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordStorageBytesIgnoresEmptyWrites(t *testing.T) {
	before := testutil.ToFloat64(StorageBytesTotal.WithLabelValues("in"))
	RecordStorageBytes("in", 0)
	RecordStorageBytes("in", 10)
	assert.Equal(t, before+10, testutil.ToFloat64(StorageBytesTotal.WithLabelValues("in")))
}

func TestRecordTrashPurged(t *testing.T) {
	before := testutil.ToFloat64(TrashPurgedTotal.WithLabelValues("file", "retention"))
	RecordTrashPurged("file", "retention", 3)
	assert.Equal(t, before+3, testutil.ToFloat64(TrashPurgedTotal.WithLabelValues("file", "retention")))
}
