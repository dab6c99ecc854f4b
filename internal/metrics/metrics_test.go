package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetrics はレジストリから指定名のメトリクス群を取得する。
func findMetrics(t *testing.T, reg *prometheus.Registry, name string) []*dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

// counterByLabel はラベル値ごとのカウンタ値を返す。
func counterByLabel(metrics []*dto.Metric) map[string]float64 {
	out := make(map[string]float64)
	for _, m := range metrics {
		for _, lp := range m.GetLabel() {
			out[lp.GetValue()] = m.GetCounter().GetValue()
		}
	}
	return out
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	if c := NewCollector(reg); c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordLockAcquire_LabelsByResult はロック取得が結果別に集計されることを検証する。
func TestRecordLockAcquire_LabelsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLockAcquire(true)
	c.RecordLockAcquire(false)
	c.RecordLockAcquire(false)

	got := counterByLabel(findMetrics(t, reg, "newsroom_lock_acquire_total"))
	if got["granted"] != 1 {
		t.Errorf("granted = %v, want 1", got["granted"])
	}
	if got["denied"] != 2 {
		t.Errorf("denied = %v, want 2", got["denied"])
	}
}

// TestRecordLockRenewAndRelease は延長・解放が結果別に集計されることを検証する。
func TestRecordLockRenewAndRelease(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLockRenew(true)
	c.RecordLockRenew(false)
	c.RecordLockRelease(false)

	renew := counterByLabel(findMetrics(t, reg, "newsroom_lock_renew_total"))
	if renew["ok"] != 1 || renew["rejected"] != 1 {
		t.Errorf("renew = %v, want ok:1 rejected:1", renew)
	}
	release := counterByLabel(findMetrics(t, reg, "newsroom_lock_release_total"))
	if release["rejected"] != 1 {
		t.Errorf("release = %v, want rejected:1", release)
	}
}

// TestRecordRevisionCounters はリビジョン関連カウンタの増加を検証する。
func TestRecordRevisionCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRevisionCreated()
	c.RecordRevisionCreated()
	c.RecordRevisionsPruned(3)
	c.RecordVersionConflict()
	c.RecordLocksSwept(4)

	tests := map[string]float64{
		"newsroom_revisions_created_total":          2,
		"newsroom_revisions_pruned_total":           3,
		"newsroom_revision_version_conflicts_total": 1,
		"newsroom_locks_swept_total":                4,
	}
	for name, want := range tests {
		m := findMetrics(t, reg, name)
		if got := m[0].GetCounter().GetValue(); got != want {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
}

// TestRecordHTTPStatus_LabelsByCode はステータスコード別の集計を検証する。
func TestRecordHTTPStatus_LabelsByCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(423)
	c.RecordHTTPStatus(423)

	got := counterByLabel(findMetrics(t, reg, "newsroom_http_status_total"))
	if got["200"] != 1 || got["423"] != 2 {
		t.Errorf("http status = %v, want 200:1 423:2", got)
	}
}

// TestRecordRequestLatency_ObservesHistogram はレイテンシがヒストグラムに記録されることを検証する。
func TestRecordRequestLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestLatency(150 * time.Millisecond)

	m := findMetrics(t, reg, "newsroom_http_request_duration_seconds")
	if got := m[0].GetHistogram().GetSampleCount(); got != 1 {
		t.Errorf("sample count = %d, want 1", got)
	}
}

// TestNopCollector_DoesNotPanic はNopCollectorが全メソッドで安全に呼び出せることを検証する。
func TestNopCollector_DoesNotPanic(t *testing.T) {
	var c MetricsCollector = NopCollector{}
	c.RecordLockAcquire(true)
	c.RecordLockRenew(false)
	c.RecordLockRelease(true)
	c.RecordLocksSwept(1)
	c.RecordRevisionCreated()
	c.RecordRevisionsPruned(1)
	c.RecordVersionConflict()
	c.RecordHTTPStatus(500)
	c.RecordRequestLatency(time.Second)
}
