package errors

import "testing"

func TestValidateColumnName(t *testing.T) {
	valid := []string{"to", "downstream", "link", "COMID", "to_node"}
	for _, name := range valid {
		if err := ValidateColumnName(name); err != nil {
			t.Errorf("ValidateColumnName(%q) = %v, want nil", name, err)
		}
	}

	if err := ValidateColumnName(""); !Is(err, ErrCodeInvalidColumn) {
		t.Errorf("empty name: got %v, want INVALID_COLUMN", err)
	}

	if err := ValidateColumnName("bad\x00col"); !Is(err, ErrCodeInvalidColumn) {
		t.Errorf("control character: got %v, want INVALID_COLUMN", err)
	}

	long := make([]byte, 129)
	for i := range long {
		long[i] = 'a'
	}
	if err := ValidateColumnName(string(long)); !Is(err, ErrCodeInvalidColumn) {
		t.Errorf("long name: got %v, want INVALID_COLUMN", err)
	}
}

func TestValidateOutputPath(t *testing.T) {
	valid := []string{"out.svg", "results/topology.json", "/tmp/net.dot", "./net.png"}
	for _, p := range valid {
		if err := ValidateOutputPath(p); err != nil {
			t.Errorf("ValidateOutputPath(%q) = %v, want nil", p, err)
		}
	}

	invalid := []string{"", "../escape.json", "../../etc/passwd", "bad\x00path"}
	for _, p := range invalid {
		if err := ValidateOutputPath(p); !Is(err, ErrCodeInvalidInput) {
			t.Errorf("ValidateOutputPath(%q) = %v, want INVALID_INPUT", p, err)
		}
	}
}
