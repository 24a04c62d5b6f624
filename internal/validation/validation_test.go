package validation

import (
	"errors"
	"testing"
)

func TestValidateMarkerName(t *testing.T) {
	valid := []string{"ref", "t", "WordBegin", "ELANEnd", "tx_2"}
	for _, name := range valid {
		if err := ValidateMarkerName(name); err != nil {
			t.Errorf("ValidateMarkerName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "word begin", "ref\\", "tx-2", "tier."}
	for _, name := range invalid {
		err := ValidateMarkerName(name)
		if !errors.Is(err, ErrInvalidMarker) {
			t.Errorf("ValidateMarkerName(%q) = %v, want ErrInvalidMarker", name, err)
		}
	}
}

func TestValidateDistinct(t *testing.T) {
	if err := ValidateDistinct("a.eaf", "b.eaf"); err != nil {
		t.Errorf("distinct paths rejected: %v", err)
	}
	if !errors.Is(ValidateDistinct("a.eaf", "a.eaf"), ErrSameInputOutput) {
		t.Error("identical paths should be rejected")
	}
}
