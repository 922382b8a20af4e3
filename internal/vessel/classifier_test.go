package vessel

import "testing"

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		dwt   float64
		class Class
	}{
		{250000, ClassVLCC},
		{200000, ClassVLCC},
		{199999, ClassSuezmax},
		{120000, ClassSuezmax},
		{80000, ClassAframax},
		{60000, ClassPanamax},
		{59999, ClassDefault},
		{0, ClassDefault},
	}
	for _, c := range cases {
		got := Classify(c.dwt).Class
		if got != c.class {
			t.Errorf("Classify(%v) = %v, want %v", c.dwt, got, c.class)
		}
	}
}

func TestMaxPlausibleDistance(t *testing.T) {
	d := MaxPlausibleDistanceNM(250000, 25)
	if d != 18*25 {
		t.Errorf("expected %v, got %v", 18*25, d)
	}
}

func TestSizeMultiplier(t *testing.T) {
	if SizeMultiplier(250000) != 1.3 {
		t.Errorf("expected 1.3 for VLCC")
	}
	if SizeMultiplier(50000) != 1.0 {
		t.Errorf("expected 1.0 default")
	}
}
