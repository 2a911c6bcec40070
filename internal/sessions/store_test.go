package sessions

import "testing"

func TestExcludedIDs(t *testing.T) {
	// A nil list must encode as an empty array. SQL NULL here would make
	// the NOT (id = ANY(...)) clause filter out every row, hiding all
	// seeded questions from users with no served history.
	v, err := excludedIDs(nil).Value()
	if err != nil {
		t.Fatalf("Value() on nil list: %v", err)
	}
	if v == nil {
		t.Fatal("nil exclusion list encoded as SQL NULL")
	}
	if s, ok := v.(string); !ok || s != "{}" {
		t.Errorf("nil exclusion list encoded as %v, want {}", v)
	}

	// Non-empty lists pass through
	v, err = excludedIDs([]int64{3, 7}).Value()
	if err != nil {
		t.Fatalf("Value() on id list: %v", err)
	}
	if s, ok := v.(string); !ok || s != "{3,7}" {
		t.Errorf("exclusion list encoded as %v, want {3,7}", v)
	}

	// Empty-but-non-nil stays empty
	v, _ = excludedIDs([]int64{}).Value()
	if s, ok := v.(string); !ok || s != "{}" {
		t.Errorf("empty exclusion list encoded as %v, want {}", v)
	}
}
