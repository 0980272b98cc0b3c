package domain

import "testing"

func TestResultMergeAndBlocking(t *testing.T) {
	var res Result
	if res.HasBlocking() {
		t.Fatalf("empty result should not block")
	}
	res.Merge(Result{})
	if len(res.Violations) != 0 {
		t.Fatalf("merging empty result should be a no-op")
	}
	res.Merge(Result{Violations: []Violation{{Rule: "a", Severity: SeverityWarn}}})
	if res.HasBlocking() {
		t.Fatalf("warn severity should not block")
	}
	res.Merge(Result{Violations: []Violation{{Rule: "b", Severity: SeverityBlock}}})
	if !res.HasBlocking() {
		t.Fatalf("expected blocking result")
	}
	if len(res.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(res.Violations))
	}
}

func TestRuleViolationError(t *testing.T) {
	err := RuleViolationError{Result: Result{Violations: []Violation{{Rule: "x", Severity: SeverityBlock}}}}
	if err.Error() == "" {
		t.Fatalf("expected message")
	}
	if !err.Result.HasBlocking() {
		t.Fatalf("expected blocking payload")
	}
}

func TestEntityHelpers(t *testing.T) {
	org := Organization{Type: OrgManufacturer}
	if !org.ParticipatesInSupplyChain() {
		t.Fatalf("manufacturer should participate")
	}
	if (Organization{Type: OrgAdmin}).ParticipatesInSupplyChain() {
		t.Fatalf("admin should not participate")
	}
	if (TransferEvent{}).Returned() {
		t.Fatalf("fresh transfer should not be returned")
	}
	if (ConsumptionEvent{}).Recalled() {
		t.Fatalf("fresh consumption should not be recalled")
	}
	if !ValidDisposalReason(DisposalExpired) || ValidDisposalReason("melted") {
		t.Fatalf("disposal reason validation broken")
	}
	if !ValidLotDateFormat(DateFormatYYMM) || ValidLotDateFormat("YY") {
		t.Fatalf("date format validation broken")
	}
}
