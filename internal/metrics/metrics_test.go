package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/statkeys/internal/annotate"
	"github.com/roach88/statkeys/internal/rules"
)

func testResult() *annotate.Result {
	return &annotate.Result{
		Entries:   map[string]*annotate.Entry{},
		Annotated: 10,
		Skipped:   2,
		Stats: annotate.Stats{
			TagMatches:      7,
			CategoryMatches: 5,
			Uncategorized:   3,
		},
	}
}

func TestObservePass(t *testing.T) {
	m := New()

	m.ObservePass(testResult(), 20*time.Millisecond)
	m.ObservePass(testResult(), 30*time.Millisecond)

	assert.Equal(t, 20.0, testutil.ToFloat64(m.keysAnnotated))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.keysSkipped))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.uncategorized))
	assert.Equal(t, 14.0, testutil.ToFloat64(m.ruleMatches.WithLabelValues("tag")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.ruleMatches.WithLabelValues("category")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.annotateDuration))
}

func TestObserveRules(t *testing.T) {
	m := New()

	m.ObserveRules(&rules.RuleSet{Kind: rules.KindTag, Rules: make([]rules.Rule, 4)})
	m.ObserveRules(&rules.RuleSet{Kind: rules.KindCategory, Rules: make([]rules.Rule, 2)})
	m.ObserveRules(nil)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.rulesLoaded.WithLabelValues("tag")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rulesLoaded.WithLabelValues("category")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveRules(&rules.RuleSet{Kind: rules.KindTag})
		m.ObservePass(testResult(), time.Second)
	})
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "none.prom")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObservePass(testResult(), 10*time.Millisecond)

	path := filepath.Join(t.TempDir(), "statkeys.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "statkeys_keys_annotated_total 10")
	assert.Contains(t, text, "statkeys_keys_skipped_total 2")
	assert.Contains(t, text, `statkeys_rule_matches_total{kind="tag"} 7`)
	assert.True(t, strings.Contains(text, "statkeys_annotate_duration_seconds_count 1"))
}
