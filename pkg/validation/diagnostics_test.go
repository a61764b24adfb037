package validation

import (
	"sync"
	"testing"

	"github.com/pointaudit/pointaudit/pkg/point"
	"github.com/stretchr/testify/assert"
)

func TestDiagnostics_ErrorIsSticky(t *testing.T) {
	d := NewDiagnostics()
	d.AddSeverity("A", RuleScale, point.OperatingRangeLow, SeverityError)
	d.AddSeverity("A", RuleScale, point.OperatingRangeLow, SeverityWarning)
	got, ok := d.Severity("A", RuleScale, point.OperatingRangeLow)
	assert.True(t, ok)
	assert.Equal(t, SeverityError, got)

	d.AddSeverity("A", RuleScale, point.OperatingRangeHigh, SeverityWarning)
	d.AddSeverity("A", RuleScale, point.OperatingRangeHigh, SeverityError)
	got, _ = d.Severity("A", RuleScale, point.OperatingRangeHigh)
	assert.Equal(t, SeverityError, got)
}

func TestDiagnostics_ClearRuleIsolation(t *testing.T) {
	d := NewDiagnostics()
	d.AddInfo("A", RuleScale, "scale")
	d.AddSeverity("A", RuleScale, point.MinimumScale, SeverityWarning)
	d.AddInfo("A", RuleLimits, "limits")

	d.ClearRule(RuleScale)

	assert.False(t, d.HasError("A", RuleScale))
	assert.Empty(t, d.Severities("A", RuleScale))
	assert.True(t, d.HasError("A", RuleLimits))
	assert.Equal(t, []string{"limits"}, d.Info("A", RuleLimits))

	d.Clear()
	assert.False(t, d.HasError("A", RuleLimits))
}

func TestDiagnostics_TagsAndCount(t *testing.T) {
	d := NewDiagnostics()
	d.AddInfo("B", RuleScale, "x")
	d.AddInfo("A", RuleScale, "y")
	d.AddInfo("A", RuleScale, "z")
	assert.Equal(t, []string{"A", "B"}, d.Tags(RuleScale))
	assert.Equal(t, 2, d.Count(RuleScale))
	assert.Zero(t, d.Count(RuleLimits))
	assert.Nil(t, d.Tags(RuleLimits))
}

func TestDiagnostics_Concurrent(t *testing.T) {
	d := NewDiagnostics()
	var wg sync.WaitGroup
	for _, rule := range AllRules() {
		rule := rule
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				d.AddInfo("A", rule, "line")
				d.AddSeverity("A", rule, point.KKS, SeverityWarning)
			}
		}()
	}
	wg.Wait()
	for _, rule := range AllRules() {
		assert.Len(t, d.Info("A", rule), 100)
	}
}

func TestDiagnostics_SeverityCounts(t *testing.T) {
	d := NewDiagnostics()
	d.AddSeverity("A", RuleSOEInput, point.SOEPoint, SeverityError)
	d.AddSeverity("A", RuleSOEInput, point.SOEEnabled, SeverityWarning)
	d.AddSeverity("B", RuleSOEInput, point.SOEEnabled, SeverityWarning)
	assert.Equal(t, map[Severity]int{SeverityError: 1, SeverityWarning: 2}, d.SeverityCounts(RuleSOEInput))
	assert.Empty(t, d.SeverityCounts(RuleScale))
}

func TestDiagnostics_Annotated(t *testing.T) {
	d := NewDiagnostics()
	d.AddInfo("B", RuleScale, "scale")
	d.AddSeverity("A", RuleScale, point.MinimumScale, SeverityWarning)
	d.AddSeverity("B", RuleScale, point.MaximumScale, SeverityError)

	assert.Equal(t, []string{"A", "B"}, d.Annotated(RuleScale))
	assert.Equal(t, []string{"B"}, d.Tags(RuleScale))
	assert.Nil(t, d.Annotated(RuleLimits))
}
