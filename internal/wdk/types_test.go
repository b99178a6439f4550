package wdk

import (
	"encoding/json"
	"testing"
)

func TestRunStatusInProgress(t *testing.T) {
	tests := map[RunStatus]bool{
		StatusCreated:  false,
		StatusPending:  true,
		StatusRunning:  true,
		StatusComplete: false,
		StatusError:    false,
	}
	for status, want := range tests {
		if got := status.InProgress(); got != want {
			t.Errorf("%s.InProgress() = %v, want %v", status, got, want)
		}
	}
}

func TestResultEmpty(t *testing.T) {
	for _, raw := range []string{"", " {} ", "null"} {
		if !Result(raw).Empty() {
			t.Errorf("Result(%q).Empty() = false, want true", raw)
		}
	}
	if Result(`{"a":1}`).Empty() {
		t.Fatalf("non-empty result reported empty")
	}
	if !EmptyResult().Empty() {
		t.Fatalf("EmptyResult should be empty")
	}
}

func TestResultKeepsRawPayload(t *testing.T) {
	var holder struct {
		Contents Result `json:"contents"`
	}
	if err := json.Unmarshal([]byte(`{"contents":{"iframeBaseUrl":"https://x"}}`), &holder); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if string(holder.Contents) != `{"iframeBaseUrl":"https://x"}` {
		t.Fatalf("Contents = %s", holder.Contents)
	}

	var empty struct {
		Contents Result `json:"contents"`
	}
	out, err := json.Marshal(empty)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"contents":{}}` {
		t.Fatalf("Marshal = %s, want empty object", out)
	}
}

func TestParamSpecVisible(t *testing.T) {
	hidden := false
	if !(ParamSpec{}).Visible() {
		t.Fatalf("spec without flag should be visible")
	}
	if (ParamSpec{IsVisible: &hidden}).Visible() {
		t.Fatalf("spec with isVisible=false should be hidden")
	}
}
